package bep

import (
	"strings"
	"testing"
)

func TestRenderMarkdown_SamplePlan(t *testing.T) {
	plan, err := SamplePlan()
	if err != nil {
		t.Fatalf("SamplePlan: %v", err)
	}
	out, err := RenderMarkdown(plan)
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}

	for _, want := range []string{
		"# BIM Execution Plan",
		"## Project Overview",
		"### ABC Architecture",
		"**Autodesk Revit** 2025",
		"- **General LOD:** LOD 300",
		"Autodesk Construction Cloud (ACC)",
		"*Generated by BIMxPlan Go - Lean BIM Execution Plan Generator*",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("markdown missing %q\n---\n%s", want, out)
		}
	}
	if strings.Contains(out, "Not specified") {
		t.Fatalf("complete sample should render no placeholders")
	}
}

func TestRenderMarkdown_EmptyPlan(t *testing.T) {
	out, err := RenderMarkdown(&Plan{})
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	for _, want := range []string{
		"- **Project Name:** Not specified",
		"No team information provided",
		"No software specified",
		"File naming conventions are not being used for this project.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("empty-plan markdown missing %q\n---\n%s", want, out)
		}
	}
}

func TestRenderMarkdown_NilSectionsMatchEmpty(t *testing.T) {
	fromNil, err := RenderMarkdown(nil)
	if err != nil {
		t.Fatalf("RenderMarkdown(nil): %v", err)
	}
	fromEmpty, err := RenderMarkdown(&Plan{})
	if err != nil {
		t.Fatalf("RenderMarkdown(empty): %v", err)
	}
	if fromNil != fromEmpty {
		t.Fatalf("nil plan and empty plan must render identically")
	}
}
