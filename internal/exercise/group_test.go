package exercise

import "testing"

func TestGroupsPartition(t *testing.T) {
	injects := []Inject{
		{ID: "c", GroupID: "g1", TeamID: "team_lab", Recipients: []string{"team_lab", "team_eoc"}},
		{ID: "b", GroupID: "g1", TeamID: "team_eoc", Recipients: []string{"team_lab", "team_eoc"}},
		{ID: "a", TeamID: "team_field"},
	}
	groups := Groups(injects)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Key != "g1" || len(groups[0].Members) != 2 {
		t.Errorf("group 0 = %+v", groups[0])
	}
	if groups[0].Master.ID != "c" {
		t.Errorf("first seen variant must be master, got %s", groups[0].Master.ID)
	}
	if groups[1].Key != "a" || len(groups[1].Members) != 1 {
		t.Errorf("ungrouped inject must form its own group: %+v", groups[1])
	}
}

func TestGroupRecipientsFallback(t *testing.T) {
	g := InjectGroup{
		Master: Inject{ID: "x", TeamID: "team_eoc"},
		Members: []Inject{
			{ID: "x", TeamID: "team_eoc"},
			{ID: "y", TeamID: "team_lab"},
		},
	}
	got := g.Recipients()
	if len(got) != 2 || got[0] != "team_eoc" || got[1] != "team_lab" {
		t.Errorf("fallback recipients = %v", got)
	}

	g.Master.Recipients = []string{"team_comm"}
	if got := g.Recipients(); len(got) != 1 || got[0] != "team_comm" {
		t.Errorf("master recipients must win, got %v", got)
	}
}
