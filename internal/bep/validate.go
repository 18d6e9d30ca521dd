package bep

import (
	"fmt"
	"math"
	"strings"
)

type ValidationIssue struct {
	Section  string   `json:"section"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

type ValidationReport struct {
	IsValid           bool              `json:"is_valid"`
	HasErrors         bool              `json:"has_errors"`
	HasWarnings       bool              `json:"has_warnings"`
	HasInfo           bool              `json:"has_info"`
	Issues            []ValidationIssue `json:"issues"`
	Completeness      int               `json:"completeness"`
	SectionsValidated []string          `json:"sections_validated"`
}

// Validate runs the full schema rule table over a possibly-incomplete plan,
// then the hand-written multi-item passes. Pure function; completeness is
// computed from required schema rules only, so recommended and info findings
// never move the number.
func Validate(plan *Plan) ValidationReport {
	if plan == nil {
		plan = &Plan{}
	}

	var issues []ValidationIssue
	sectionsSeen := make(map[string]bool)
	var sections []string

	totalRequired := 0
	failedRequired := 0
	for _, rule := range FieldRules {
		if rule.Severity == "" {
			continue
		}
		if !sectionsSeen[rule.Section] {
			sectionsSeen[rule.Section] = true
			sections = append(sections, rule.Section)
		}
		passed := rule.Check(plan)
		if rule.Severity == SeverityRequired {
			totalRequired++
			if !passed {
				failedRequired++
			}
		}
		if !passed {
			issues = append(issues, ValidationIssue{
				Section:  rule.Section,
				Field:    rule.Field,
				Message:  rule.Message,
				Severity: rule.Severity,
			})
		}
	}

	issues = append(issues, teamFirmIssues(plan)...)
	issues = append(issues, softwareToolIssues(plan)...)
	issues = append(issues, modelingScopeIssues(plan)...)

	hasErrors := false
	hasWarnings := false
	hasInfo := false
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityRequired:
			hasErrors = true
		case SeverityRecommended:
			hasWarnings = true
		case SeverityInfo:
			hasInfo = true
		}
	}

	completeness := 100
	if totalRequired > 0 {
		completeness = int(math.Round(float64(totalRequired-failedRequired) / float64(totalRequired) * 100))
	}

	return ValidationReport{
		IsValid:           !hasErrors,
		HasErrors:         hasErrors,
		HasWarnings:       hasWarnings,
		HasInfo:           hasInfo,
		Issues:            issues,
		Completeness:      completeness,
		SectionsValidated: sections,
	}
}

// Per-firm detail: name/discipline/bim_lead block, a missing contact is only
// advisory.
func teamFirmIssues(plan *Plan) []ValidationIssue {
	if plan.TeamResponsibilities == nil {
		return nil
	}
	var issues []ValidationIssue
	for i, firm := range plan.TeamResponsibilities.Firms {
		if !hasText(firm.Name) {
			issues = append(issues, ValidationIssue{
				Section:  "Team & Responsibilities",
				Field:    fmt.Sprintf("firms[%d].name", i),
				Message:  fmt.Sprintf("Firm %d: Name is required", i+1),
				Severity: SeverityRequired,
			})
		}
		if !hasText(firm.Discipline) {
			issues = append(issues, ValidationIssue{
				Section:  "Team & Responsibilities",
				Field:    fmt.Sprintf("firms[%d].discipline", i),
				Message:  fmt.Sprintf("Firm %d: Discipline is required", i+1),
				Severity: SeverityRequired,
			})
		}
		if !hasText(firm.BIMLead) {
			issues = append(issues, ValidationIssue{
				Section:  "Team & Responsibilities",
				Field:    fmt.Sprintf("firms[%d].bim_lead", i),
				Message:  fmt.Sprintf("Firm %d: BIM Lead is required", i+1),
				Severity: SeverityRequired,
			})
		}
		if !hasText(firm.ContactInfo) {
			issues = append(issues, ValidationIssue{
				Section:  "Team & Responsibilities",
				Field:    fmt.Sprintf("firms[%d].contact_info", i),
				Message:  fmt.Sprintf("Firm %d: Contact information is recommended", i+1),
				Severity: SeverityRecommended,
			})
		}
	}
	return issues
}

func softwareToolIssues(plan *Plan) []ValidationIssue {
	if plan.SoftwareOverview == nil {
		return nil
	}
	var issues []ValidationIssue
	for i, tool := range plan.SoftwareOverview.MainTools {
		if !hasText(tool.Name) {
			issues = append(issues, ValidationIssue{
				Section:  "Software Overview",
				Field:    fmt.Sprintf("main_tools[%d].name", i),
				Message:  fmt.Sprintf("Tool %d: Name is required", i+1),
				Severity: SeverityRequired,
			})
		}
		if !hasText(tool.Version) {
			issues = append(issues, ValidationIssue{
				Section:  "Software Overview",
				Field:    fmt.Sprintf("main_tools[%d].version", i),
				Message:  fmt.Sprintf("Tool %d: Version is recommended for compatibility", i+1),
				Severity: SeverityRecommended,
			})
		}
		if !hasText(tool.Discipline) {
			issues = append(issues, ValidationIssue{
				Section:  "Software Overview",
				Field:    fmt.Sprintf("main_tools[%d].discipline", i),
				Message:  fmt.Sprintf("Tool %d: Discipline assignment is recommended", i+1),
				Severity: SeverityRecommended,
			})
		}
	}
	return issues
}

func modelingScopeIssues(plan *Plan) []ValidationIssue {
	if plan.ModelingScope == nil {
		return nil
	}
	var issues []ValidationIssue
	if !hasText(plan.ModelingScope.LevelsGridsStrategy) {
		issues = append(issues, ValidationIssue{
			Section:  "Modeling Scope",
			Field:    "levels_grids_strategy",
			Message:  "Levels and grids strategy is recommended",
			Severity: SeverityRecommended,
		})
	}
	if len(plan.ModelingScope.DisciplineLODs) == 0 {
		issues = append(issues, ValidationIssue{
			Section:  "Modeling Scope",
			Field:    "discipline_lods",
			Message:  "Discipline-specific LODs are recommended for clarity",
			Severity: SeverityRecommended,
		})
	}
	return issues
}

// ValidateStep is the lighter check gating wizard "Next" navigation. Only
// required fields of the one step matter; optional steps always pass.
func ValidateStep(stepID StepID, plan *Plan) (bool, []string) {
	if plan == nil {
		plan = &Plan{}
	}
	var msgs []string
	for _, rule := range FieldRules {
		if rule.StepID != stepID || rule.Severity != SeverityRequired {
			continue
		}
		if !rule.Check(plan) {
			msgs = append(msgs, rule.gateMessage())
		}
	}

	switch stepID {
	case StepTeam:
		if plan.TeamResponsibilities != nil && len(plan.TeamResponsibilities.Firms) > 0 {
			for i, firm := range plan.TeamResponsibilities.Firms {
				if !hasText(firm.Name) {
					msgs = append(msgs, fmt.Sprintf("Firm %d name is required", i+1))
				}
				if !hasText(firm.Discipline) {
					msgs = append(msgs, fmt.Sprintf("Firm %d discipline is required", i+1))
				}
				if !hasText(firm.BIMLead) {
					msgs = append(msgs, fmt.Sprintf("Firm %d BIM lead is required", i+1))
				}
			}
		}
	case StepSoftware:
		if plan.SoftwareOverview != nil && len(plan.SoftwareOverview.MainTools) > 0 {
			for i, tool := range plan.SoftwareOverview.MainTools {
				if !hasText(tool.Name) {
					msgs = append(msgs, fmt.Sprintf("Tool %d name is required", i+1))
				}
			}
		}
	}

	return len(msgs) == 0, msgs
}

// SummarizeIssues joins gate messages for user display.
func SummarizeIssues(msgs []string) string {
	return strings.Join(msgs, ", ")
}
