package scenario

// BuiltIn returns predefined exercise storylines with phase structures.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"outbreak-response": {
			Name:        "Outbreak Response",
			Description: "A localized disease cluster escalates into a district-wide response over one working day.",
			Phases: []Phase{
				{Name: "Detection", Description: "First signals arrive: clinic reports, lab anomalies, rumor on social media."},
				{Name: "Escalation", Description: "Case counts rise, the EOC activates, and media attention builds."},
				{Name: "Response", Description: "Full response machinery runs: field teams deploy, public messaging goes out."},
				{Name: "Stand-down", Description: "Indicators stabilize and the response scales back with hot-wash debriefs."},
			},
		},
		"comms-blackout": {
			Name:        "Comms Blackout",
			Description: "A telecom outage forces teams onto degraded channels mid-response.",
			Phases: []Phase{
				{Name: "Normal operations", Description: "Routine coordination over primary channels."},
				{Name: "Outage", Description: "Primary channels drop; teams fall back to radio and runners."},
				{Name: "Recovery", Description: "Connectivity returns; backlogs reconcile and lessons get logged."},
			},
		},
		"mass-gathering": {
			Name:        "Mass Gathering",
			Description: "Public-health cover for a large event, from planning through a medical surge.",
			Phases: []Phase{
				{Name: "Pre-event", Description: "Plans, rosters, and surveillance baselines go in place."},
				{Name: "Event surge", Description: "A cluster of casualties tests triage and transport."},
				{Name: "After-action", Description: "Demobilization and reporting."},
			},
		},
	}
}
