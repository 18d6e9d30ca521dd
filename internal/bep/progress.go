package bep

import "math"

type StepProgress struct {
	Step            int      `json:"step"`
	StepID          StepID   `json:"step_id"`
	Title           string   `json:"title"`
	Complete        bool     `json:"complete"`
	Percent         int      `json:"percent"`
	RequiredFields  []string `json:"required_fields"`
	CompletedFields []string `json:"completed_fields"`
}

type Progress struct {
	PerStep        []StepProgress `json:"per_step"`
	OverallPercent int            `json:"overall_percent"`
	CompletedSteps int            `json:"completed_steps"`
	TotalSteps     int            `json:"total_steps"`
}

// ComputeProgress walks the nine wizard steps and scores each against the
// progress-tracked fields of the unified schema. Steps with no tracked
// fields (file naming) are complete by definition.
//
// The overall percentage is a step-count average on purpose: a one-field
// step and a four-field step weigh the same. Do not "fix" this into a
// field-weighted average; the step meter in the UI is defined this way.
func ComputeProgress(plan *Plan) Progress {
	if plan == nil {
		plan = &Plan{}
	}

	perStep := make([]StepProgress, 0, len(Steps))
	completedSteps := 0

	for _, step := range Steps {
		sp := StepProgress{
			Step:           step.Number,
			StepID:         step.ID,
			Title:          step.Title,
			RequiredFields: StepRequiredFields(step.ID),
		}
		if len(sp.RequiredFields) == 0 {
			sp.Complete = true
			sp.Percent = 100
			completedSteps++
			perStep = append(perStep, sp)
			continue
		}

		for _, rule := range FieldRules {
			if rule.StepID != step.ID || !rule.Progress {
				continue
			}
			if rule.progressCheck(plan) {
				sp.CompletedFields = append(sp.CompletedFields, rule.Field)
			}
		}

		sp.Percent = int(math.Round(float64(len(sp.CompletedFields)) / float64(len(sp.RequiredFields)) * 100))
		sp.Complete = sp.Percent == 100
		if sp.Complete {
			completedSteps++
		}
		perStep = append(perStep, sp)
	}

	totalSteps := len(perStep)
	overall := 0
	if totalSteps > 0 {
		overall = int(math.Round(float64(completedSteps) / float64(totalSteps) * 100))
	}

	return Progress{
		PerStep:        perStep,
		OverallPercent: overall,
		CompletedSteps: completedSteps,
		TotalSteps:     totalSteps,
	}
}
