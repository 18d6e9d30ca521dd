package bep

import (
	"strings"
	"text/template"
)

// The Markdown export is the legacy secondary path: one fixed template with
// "Not specified" placeholders, deliberately less strict than the PDF
// mapper's empty-section suppression.
const markdownTemplate = `# BIM Execution Plan

## Project Overview
- **Project Name:** {{ns .ProjectOverview.ProjectName}}
- **Location:** {{ns .ProjectOverview.Location}}
- **Client:** {{ns .ProjectOverview.ClientName}}
- **Project Type:** {{ns .ProjectOverview.ProjectType}}

### Key Milestones
{{- if .ProjectOverview.KeyMilestones}}
{{- range .ProjectOverview.KeyMilestones}}
- **{{.Name}}:** {{.Date}} - {{.Description}}
{{- end}}
{{- else}}
No milestones defined
{{- end}}

## Team & Responsibilities
{{- if .TeamResponsibilities.Firms}}
{{- range .TeamResponsibilities.Firms}}

### {{.Name}}
- **Discipline:** {{.Discipline}}
- **BIM Lead:** {{.BIMLead}}
- **Contact:** {{.ContactInfo}}
{{- end}}
{{- else}}
No team information provided
{{- end}}

## Software Overview
### Main BIM Tools
{{- if .SoftwareOverview.MainTools}}
{{- range .SoftwareOverview.MainTools}}
- **{{.Name}}** {{.Version}} ({{.Discipline}}) - {{.Usage}}
{{- end}}
{{- else}}
No software specified
{{- end}}

### Team-Specific Tools
{{- if .SoftwareOverview.TeamSpecificTools}}
{{- range .SoftwareOverview.TeamSpecificTools}}
- **{{.Name}}** {{.Version}} ({{.Discipline}}) - {{.Usage}}
{{- end}}
{{- else}}
No additional tools specified
{{- end}}

## Modeling Scope
- **General LOD:** {{ns .ModelingScope.GeneralLOD}}
- **Units:** {{ns .ModelingScope.Units}}
- **Levels & Grids Strategy:** {{ns .ModelingScope.LevelsGridsStrategy}}

### Discipline-Specific LODs
{{- if .ModelingScope.DisciplineLODs}}
{{- range .ModelingScope.DisciplineLODs}}
- **{{.Discipline}}:** {{.LODLevel}} - {{.Description}}
{{- end}}
{{- else}}
No discipline LODs specified
{{- end}}

### Exceptions
{{- if .ModelingScope.Exceptions}}
{{- range .ModelingScope.Exceptions}}
- {{.}}
{{- end}}
{{- else}}
No exceptions specified
{{- end}}

## File Naming Conventions
{{- if .FileNaming.UseConventions}}
- **Format:** {{.FileNaming.PrefixFormat}}
- **Discipline Codes:** {{.FileNaming.DisciplineCodes}}
- **Versioning:** {{.FileNaming.VersioningFormat}}

### Examples
{{- if .FileNaming.Examples}}
{{- range .FileNaming.Examples}}
- {{.}}
{{- end}}
{{- else}}
No examples provided
{{- end}}
{{- else}}
File naming conventions are not being used for this project.
{{- end}}

## Collaboration & CDE
- **Platform:** {{ns .CollaborationCDE.Platform}}
- **File Linking:** {{ns .CollaborationCDE.FileLinkingMethod}}
- **Sharing Frequency:** {{ns .CollaborationCDE.SharingFrequency}}
- **Setup Responsibility:** {{ns .CollaborationCDE.SetupResponsibility}}

### Access Controls
{{or .CollaborationCDE.AccessControls "No access controls specified"}}

## Geolocation & Coordinates
{{- if georef .Geolocation}}
- **Coordinate System:** {{.Geolocation.CoordinateSystem}}
- **Setup Method:** {{.Geolocation.CoordinateSetup}}
- **Origin Location:** {{.Geolocation.OriginLocation}}
{{- else}}
Project is not georeferenced
{{- end}}

## Model Checking & Coordination
- **Clash Detection Tools:** {{nsjoin .ModelChecking.ClashDetectionTools}}
- **Meeting Frequency:** {{ns .ModelChecking.MeetingFrequency}}

### Coordination Process
{{or .ModelChecking.CoordinationProcess "No coordination process specified"}}

### Responsibility Matrix
{{or .ModelChecking.ResponsibilityMatrix "No responsibility matrix specified"}}

## Outputs & Deliverables
### Standard Formats
{{nsjoin .OutputsDeliverables.FormatsStandards}}

### Deliverables by Phase
{{- if .OutputsDeliverables.DeliverablesByPhase}}
{{- range .OutputsDeliverables.DeliverablesByPhase}}

#### {{.Phase}}
- **Deliverables:** {{join .Deliverables}}
- **Formats:** {{join .Formats}}
- **Responsibility:** {{.Responsibility}}
{{- end}}
{{- else}}
No phase deliverables specified
{{- end}}

### Milestone Schedule
{{- if .OutputsDeliverables.MilestoneSchedule}}
{{- range .OutputsDeliverables.MilestoneSchedule}}
- **{{.Milestone}}** ({{.Deadline}}): {{join .Deliverables}}
{{- end}}
{{- else}}
No milestone schedule specified
{{- end}}

---
*Generated by BIMxPlan Go - Lean BIM Execution Plan Generator*
`

var markdownTmpl = template.Must(template.New("bep-markdown").Funcs(template.FuncMap{
	"ns": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "Not specified"
		}
		return s
	},
	"join": func(items []string) string { return strings.Join(items, ", ") },
	"nsjoin": func(items []string) string {
		if len(items) == 0 {
			return "Not specified"
		}
		return strings.Join(items, ", ")
	},
	"georef": func(g Geolocation) bool { return g.IsGeoreferenced != nil && *g.IsGeoreferenced },
}).Parse(markdownTemplate))

// RenderMarkdown renders the flat Markdown translation of a plan. Missing
// sections render with their placeholder lines rather than being dropped.
func RenderMarkdown(plan *Plan) (string, error) {
	if plan == nil {
		plan = &Plan{}
	}
	view := struct {
		ProjectOverview      ProjectOverview
		TeamResponsibilities TeamResponsibilities
		SoftwareOverview     SoftwareOverview
		ModelingScope        ModelingScope
		FileNaming           FileNaming
		CollaborationCDE     CollaborationCDE
		Geolocation          Geolocation
		ModelChecking        ModelChecking
		OutputsDeliverables  OutputsDeliverables
	}{}
	if plan.ProjectOverview != nil {
		view.ProjectOverview = *plan.ProjectOverview
	}
	if plan.TeamResponsibilities != nil {
		view.TeamResponsibilities = *plan.TeamResponsibilities
	}
	if plan.SoftwareOverview != nil {
		view.SoftwareOverview = *plan.SoftwareOverview
	}
	if plan.ModelingScope != nil {
		view.ModelingScope = *plan.ModelingScope
	}
	if plan.FileNaming != nil {
		view.FileNaming = *plan.FileNaming
	}
	if plan.CollaborationCDE != nil {
		view.CollaborationCDE = *plan.CollaborationCDE
	}
	if plan.Geolocation != nil {
		view.Geolocation = *plan.Geolocation
	}
	if plan.ModelChecking != nil {
		view.ModelChecking = *plan.ModelChecking
	}
	if plan.OutputsDeliverables != nil {
		view.OutputsDeliverables = *plan.OutputsDeliverables
	}

	var sb strings.Builder
	if err := markdownTmpl.Execute(&sb, view); err != nil {
		return "", err
	}
	return sb.String(), nil
}
