package bep

import "testing"

func stepByID(t *testing.T, p Progress, stepID StepID) StepProgress {
	t.Helper()
	for _, sp := range p.PerStep {
		if sp.StepID == stepID {
			return sp
		}
	}
	t.Fatalf("step %s not found in progress", stepID)
	return StepProgress{}
}

func TestComputeProgress_EmptyPlan(t *testing.T) {
	p := ComputeProgress(&Plan{})
	if p.TotalSteps != 9 {
		t.Fatalf("expected 9 steps, got %d", p.TotalSteps)
	}

	// File naming tracks no fields, so an untouched plan already has one
	// complete step.
	naming := stepByID(t, p, StepNaming)
	if !naming.Complete || naming.Percent != 100 {
		t.Fatalf("naming step should auto-complete, got %+v", naming)
	}
	if p.CompletedSteps != 1 {
		t.Fatalf("expected exactly one completed step, got %d", p.CompletedSteps)
	}
	if p.OverallPercent != 11 {
		t.Fatalf("expected overall 11 (round 1/9), got %d", p.OverallPercent)
	}
}

func TestComputeProgress_PartialOverview(t *testing.T) {
	plan := &Plan{ProjectOverview: &ProjectOverview{ProjectName: "Tower A", ClientName: "Acme"}}
	p := ComputeProgress(plan)
	overview := stepByID(t, p, StepOverview)
	if overview.Percent != 50 {
		t.Fatalf("2 of 4 overview fields should be 50%%, got %d", overview.Percent)
	}
	if overview.Complete {
		t.Fatalf("half-done overview must not be complete")
	}
}

// The firms progress predicate is stricter than the validation predicate: an
// empty-ish firm row counts for validation presence but not for progress.
func TestComputeProgress_FirmPredicateStricter(t *testing.T) {
	plan := &Plan{TeamResponsibilities: &TeamResponsibilities{Firms: []Firm{{Name: "ABC"}}}}

	for _, rule := range FieldRules {
		if rule.StepID == StepTeam && rule.Field == "firms" && !rule.Check(plan) {
			t.Fatalf("validation check should pass with one firm row present")
		}
	}
	p := ComputeProgress(plan)
	team := stepByID(t, p, StepTeam)
	if team.Complete {
		t.Fatalf("firm without discipline and lead must not complete the team step")
	}

	plan.TeamResponsibilities.Firms[0].Discipline = "Architecture"
	plan.TeamResponsibilities.Firms[0].BIMLead = "Jane Smith"
	p = ComputeProgress(plan)
	if !stepByID(t, p, StepTeam).Complete {
		t.Fatalf("fully populated firm should complete the team step")
	}
}

// An untouched geolocation section scores zero: the conditional coordinate
// system rule passes vacuously for validation but not for the step meter.
func TestComputeProgress_UntouchedGeolocationScoresZero(t *testing.T) {
	geo := stepByID(t, ComputeProgress(&Plan{}), StepGeolocation)
	if geo.Percent != 0 || len(geo.CompletedFields) != 0 {
		t.Fatalf("absent geolocation section should score 0%%, got %+v", geo)
	}

	// Answering "not georeferenced" completes the step; the coordinate system
	// stays optional.
	answered := &Plan{Geolocation: &Geolocation{IsGeoreferenced: boolPtr(false)}}
	geo = stepByID(t, ComputeProgress(answered), StepGeolocation)
	if !geo.Complete {
		t.Fatalf("negative georeferencing answer should complete the step, got %+v", geo)
	}
}

func TestComputeProgress_CompletePlan(t *testing.T) {
	p := ComputeProgress(completePlan())
	if p.CompletedSteps != 9 || p.OverallPercent != 100 {
		t.Fatalf("complete plan should be 9/9 steps and 100%%, got %d/%d %d%%",
			p.CompletedSteps, p.TotalSteps, p.OverallPercent)
	}
}

// Overall is a step-count average, not a field-weighted one: completing the
// single-field collaboration step moves the needle as much as completing the
// four-field overview.
func TestComputeProgress_StepCountAverage(t *testing.T) {
	collab := ComputeProgress(&Plan{CollaborationCDE: &CollaborationCDE{Platform: "ACC"}})
	overview := ComputeProgress(&Plan{ProjectOverview: &ProjectOverview{
		ProjectName: "Tower A", ClientName: "Acme", Location: "Rotterdam", ProjectType: "Commercial",
	}})
	if collab.OverallPercent != overview.OverallPercent {
		t.Fatalf("one complete step must weigh the same regardless of field count: %d vs %d",
			collab.OverallPercent, overview.OverallPercent)
	}
	if collab.OverallPercent != 22 {
		t.Fatalf("expected overall 22 (round 2/9), got %d", collab.OverallPercent)
	}
}

func TestComputeProgress_NilPlan(t *testing.T) {
	p := ComputeProgress(nil)
	if p.TotalSteps != 9 || p.CompletedSteps != 1 {
		t.Fatalf("nil plan should behave like an empty plan, got %+v", p)
	}
}
