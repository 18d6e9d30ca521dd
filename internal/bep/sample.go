package bep

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed sample_plan.yaml
var samplePlanYAML []byte

// SamplePlan returns a fresh copy of the fully-populated demo plan used to
// seed sample projects. It validates clean at 100% completeness.
func SamplePlan() (*Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(samplePlanYAML, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}
