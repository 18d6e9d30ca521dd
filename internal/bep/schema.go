package bep

import "strings"

type Severity string

const (
	SeverityRequired    Severity = "required"
	SeverityRecommended Severity = "recommended"
	SeverityInfo        Severity = "info"
)

type StepID string

const (
	StepOverview      StepID = "overview"
	StepTeam          StepID = "team"
	StepSoftware      StepID = "software"
	StepModeling      StepID = "modeling"
	StepNaming        StepID = "naming"
	StepCollaboration StepID = "collaboration"
	StepGeolocation   StepID = "geolocation"
	StepChecking      StepID = "checking"
	StepOutputs       StepID = "outputs"
)

type Step struct {
	Number int
	ID     StepID
	Title  string
}

// Steps is the fixed wizard order. The terminal preview step is not listed
// here; it carries no plan data.
var Steps = []Step{
	{1, StepOverview, "Project Overview"},
	{2, StepTeam, "Team & Responsibilities"},
	{3, StepSoftware, "Software Overview"},
	{4, StepModeling, "Modeling Scope"},
	{5, StepNaming, "File Naming"},
	{6, StepCollaboration, "Collaboration & CDE"},
	{7, StepGeolocation, "Geolocation"},
	{8, StepChecking, "Model Checking"},
	{9, StepOutputs, "Outputs & Deliverables"},
}

// FieldRule is one row of the unified field schema. The validation report,
// the per-step navigation gate and the progress calculator all derive from
// this table, so a field cannot be required by one and unknown to another.
//
// Severity empty means the rule is tracked for progress only and never
// appears in a validation report. ProgressCheck overrides Check for progress
// purposes when the two deliberately differ (a step can count as underway on
// a weaker condition than it counts as done).
type FieldRule struct {
	StepID        StepID
	Section       string
	Field         string
	Message       string
	GateMessage   string
	Severity      Severity
	Progress      bool
	Check         func(p *Plan) bool
	ProgressCheck func(p *Plan) bool
}

func hasText(s string) bool { return strings.TrimSpace(s) != "" }

// FieldRules mirrors the order fields appear in the wizard forms.
var FieldRules = []FieldRule{
	{
		StepID: StepOverview, Section: "Project Overview", Field: "project_name",
		Message: "Project name is required", Severity: SeverityRequired, Progress: true,
		Check: func(p *Plan) bool { return p.ProjectOverview != nil && hasText(p.ProjectOverview.ProjectName) },
	},
	{
		StepID: StepOverview, Section: "Project Overview", Field: "client_name",
		Message: "Client name is required", Severity: SeverityRequired, Progress: true,
		Check: func(p *Plan) bool { return p.ProjectOverview != nil && hasText(p.ProjectOverview.ClientName) },
	},
	{
		StepID: StepOverview, Section: "Project Overview", Field: "location",
		Message: "Project location is required", GateMessage: "Location is required",
		Severity: SeverityRequired, Progress: true,
		Check: func(p *Plan) bool { return p.ProjectOverview != nil && hasText(p.ProjectOverview.Location) },
	},
	{
		StepID: StepOverview, Section: "Project Overview", Field: "project_type",
		Message: "Project type is required", Severity: SeverityRequired, Progress: true,
		Check: func(p *Plan) bool { return p.ProjectOverview != nil && hasText(p.ProjectOverview.ProjectType) },
	},
	{
		StepID: StepOverview, Section: "Project Overview", Field: "key_milestones",
		Message:  "Key milestones should be defined for better project planning",
		Severity: SeverityRecommended,
		Check:    func(p *Plan) bool { return p.ProjectOverview != nil && len(p.ProjectOverview.KeyMilestones) > 0 },
	},
	{
		StepID: StepOverview, Section: "Project Overview", Field: "description",
		Message:  "Project description helps with context",
		Severity: SeverityInfo,
		Check:    func(p *Plan) bool { return p.ProjectOverview != nil && hasText(p.ProjectOverview.Description) },
	},

	{
		StepID: StepTeam, Section: "Team & Responsibilities", Field: "firms",
		Message: "At least one firm must be defined", Severity: SeverityRequired, Progress: true,
		Check: func(p *Plan) bool { return p.TeamResponsibilities != nil && len(p.TeamResponsibilities.Firms) > 0 },
		ProgressCheck: func(p *Plan) bool {
			if p.TeamResponsibilities == nil {
				return false
			}
			for _, f := range p.TeamResponsibilities.Firms {
				if hasText(f.Name) && hasText(f.Discipline) && hasText(f.BIMLead) {
					return true
				}
			}
			return false
		},
	},

	{
		StepID: StepSoftware, Section: "Software Overview", Field: "main_tools",
		Message: "At least one main BIM tool must be specified", Severity: SeverityRequired, Progress: true,
		Check: func(p *Plan) bool { return p.SoftwareOverview != nil && len(p.SoftwareOverview.MainTools) > 0 },
		ProgressCheck: func(p *Plan) bool {
			if p.SoftwareOverview == nil {
				return false
			}
			for _, t := range p.SoftwareOverview.MainTools {
				if hasText(t.Name) {
					return true
				}
			}
			return false
		},
	},

	{
		StepID: StepModeling, Section: "Modeling Scope", Field: "general_lod",
		Message: "General Level of Development (LOD) must be specified", GateMessage: "General LOD is required",
		Severity: SeverityRequired, Progress: true,
		Check: func(p *Plan) bool { return p.ModelingScope != nil && hasText(p.ModelingScope.GeneralLOD) },
	},
	{
		StepID: StepModeling, Section: "Modeling Scope", Field: "units",
		Message: "Project units must be specified", GateMessage: "Units specification is required",
		Severity: SeverityRequired, Progress: true,
		Check: func(p *Plan) bool { return p.ModelingScope != nil && hasText(p.ModelingScope.Units) },
	},

	{
		StepID: StepNaming, Section: "File Naming", Field: "use_conventions",
		Message:  "File naming conventions should be established for consistency",
		Severity: SeverityRecommended,
		Check: func(p *Plan) bool {
			return p.FileNaming != nil && (p.FileNaming.UseConventions || hasText(p.FileNaming.PrefixFormat))
		},
	},

	{
		StepID: StepCollaboration, Section: "Collaboration & CDE", Field: "platform",
		Message: "CDE platform must be specified", GateMessage: "CDE platform is required",
		Severity: SeverityRequired, Progress: true,
		Check: func(p *Plan) bool { return p.CollaborationCDE != nil && hasText(p.CollaborationCDE.Platform) },
	},

	{
		StepID: StepGeolocation, Section: "Geolocation", Field: "is_georeferenced",
		Message: "Georeferencing status must be specified", Severity: SeverityRequired, Progress: true,
		Check: func(p *Plan) bool { return p.Geolocation != nil && p.Geolocation.IsGeoreferenced != nil },
	},
	{
		// Conditionally required: only mandatory once the project says it is
		// georeferenced. An unanswered or negative answer satisfies the rule.
		StepID: StepGeolocation, Section: "Geolocation", Field: "coordinate_system",
		Message: "Coordinate system should be specified if georeferenced", GateMessage: "Coordinate system is required when georeferenced",
		Severity: SeverityRequired, Progress: true,
		Check: func(p *Plan) bool {
			if p.Geolocation == nil || p.Geolocation.IsGeoreferenced == nil || !*p.Geolocation.IsGeoreferenced {
				return true
			}
			return hasText(p.Geolocation.CoordinateSystem)
		},
		// The step meter scores an untouched section at zero; the vacuous
		// pass above applies to validation only.
		ProgressCheck: func(p *Plan) bool {
			if p.Geolocation == nil {
				return false
			}
			if p.Geolocation.IsGeoreferenced == nil || !*p.Geolocation.IsGeoreferenced {
				return true
			}
			return hasText(p.Geolocation.CoordinateSystem)
		},
	},

	{
		StepID: StepChecking, Section: "Model Checking", Field: "clash_detection_tools",
		Message: "At least one clash detection tool must be specified", Severity: SeverityRequired, Progress: true,
		Check: func(p *Plan) bool { return p.ModelChecking != nil && len(p.ModelChecking.ClashDetectionTools) > 0 },
	},

	{
		// Progress-only: the outputs step tracks deliverables for the step
		// meter but never blocks navigation or shows up in the report.
		StepID: StepOutputs, Section: "Outputs & Deliverables", Field: "deliverables_by_phase",
		Progress: true,
		Check: func(p *Plan) bool {
			if p.OutputsDeliverables == nil {
				return false
			}
			for _, ph := range p.OutputsDeliverables.DeliverablesByPhase {
				if hasText(ph.Phase) && len(ph.Deliverables) > 0 {
					return true
				}
			}
			return false
		},
	},
}

// StepRequiredFields lists the progress-tracked field names for a step, in
// schema order.
func StepRequiredFields(stepID StepID) []string {
	var out []string
	for _, r := range FieldRules {
		if r.StepID == stepID && r.Progress {
			out = append(out, r.Field)
		}
	}
	return out
}

func (r FieldRule) gateMessage() string {
	if r.GateMessage != "" {
		return r.GateMessage
	}
	return r.Message
}

func (r FieldRule) progressCheck(p *Plan) bool {
	if r.ProgressCheck != nil {
		return r.ProgressCheck(p)
	}
	return r.Check(p)
}
