package exercise

// InjectGroup joins the variants of one send: either a multi-team group keyed
// by its GroupID, or an ungrouped inject keyed by its own id. Every read path
// that needs per-send rows (MELT, detail panels, recall resolution) goes
// through this one helper instead of re-deriving the join.
type InjectGroup struct {
	Key     string // GroupID for grouped sends, inject id otherwise
	Master  Inject // representative variant (first seen)
	Members []Inject
}

// Groups partitions injects into per-send groups, preserving first-seen
// order and deduplicating by group id.
func Groups(injects []Inject) []InjectGroup {
	var out []InjectGroup
	idx := make(map[string]int)
	for _, inj := range injects {
		if inj.GroupID == "" {
			out = append(out, InjectGroup{Key: inj.ID, Master: inj, Members: []Inject{inj}})
			continue
		}
		if i, ok := idx[inj.GroupID]; ok {
			out[i].Members = append(out[i].Members, inj)
			continue
		}
		idx[inj.GroupID] = len(out)
		out = append(out, InjectGroup{Key: inj.GroupID, Master: inj, Members: []Inject{inj}})
	}
	return out
}

// Recipients returns the full target team list for the group, falling back
// to the member teams when the master carries no recipient list.
func (g InjectGroup) Recipients() []string {
	if len(g.Master.Recipients) > 0 {
		return g.Master.Recipients
	}
	out := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		out = append(out, m.TeamID)
	}
	return out
}

// GroupMembers returns every variant sharing the given group id.
func (s *State) GroupMembers(groupID string) []Inject {
	var out []Inject
	for _, inj := range s.injects {
		if inj.GroupID != "" && inj.GroupID == groupID {
			out = append(out, inj)
		}
	}
	return out
}

// resolveRecall expands an inject-or-group id into the concrete inject ids to
// recall plus a representative title. Unknown ids resolve to nothing.
func (s *State) resolveRecall(idOrGroupID string) (ids []string, title string) {
	if members := s.GroupMembers(idOrGroupID); len(members) > 0 {
		for _, m := range members {
			ids = append(ids, m.ID)
		}
		return ids, members[0].Title
	}
	if inj, ok := s.Inject(idOrGroupID); ok {
		return []string{inj.ID}, inj.Title
	}
	return nil, ""
}
