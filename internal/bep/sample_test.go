package bep

import "testing"

func TestSamplePlan_ValidAndComplete(t *testing.T) {
	plan, err := SamplePlan()
	if err != nil {
		t.Fatalf("SamplePlan: %v", err)
	}

	report := Validate(plan)
	if !report.IsValid {
		t.Fatalf("sample plan must validate clean, issues: %+v", report.Issues)
	}
	if report.Completeness != 100 {
		t.Fatalf("sample plan completeness should be 100, got %d", report.Completeness)
	}

	progress := ComputeProgress(plan)
	if progress.OverallPercent != 100 {
		t.Fatalf("sample plan progress should be 100, got %d", progress.OverallPercent)
	}

	if plan.Geolocation == nil || plan.Geolocation.IsGeoreferenced == nil || !*plan.Geolocation.IsGeoreferenced {
		t.Fatalf("sample plan is expected to be georeferenced")
	}
}

func TestSamplePlan_FreshCopyEachCall(t *testing.T) {
	a, err := SamplePlan()
	if err != nil {
		t.Fatalf("SamplePlan: %v", err)
	}
	b, err := SamplePlan()
	if err != nil {
		t.Fatalf("SamplePlan: %v", err)
	}
	a.ProjectOverview.ProjectName = "mutated"
	if b.ProjectOverview.ProjectName == "mutated" {
		t.Fatalf("callers must not share sample plan state")
	}
}
