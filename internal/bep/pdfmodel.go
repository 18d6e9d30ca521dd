package bep

import (
	"fmt"
	"strings"
	"time"
)

// PdfModel is the presentation-only projection handed to the PDF renderer.
// Empty fields and empty sections are stripped during mapping so the
// document never prints placeholder rows; a nil section pointer means the
// section is skipped entirely.
type PdfModel struct {
	Header   PdfHeader   `json:"header"`
	Sections PdfSections `json:"sections"`
}

type PdfHeader struct {
	ProjectName   string    `json:"projectName"`
	ClientName    string    `json:"clientName"`
	GeneratedDate string    `json:"generatedDate"`
	GeneratedAt   time.Time `json:"generatedAt"`
	ProjectID     string    `json:"projectId"`
}

type PdfSections struct {
	Overview      *PdfOverviewSection      `json:"overview,omitempty"`
	Team          *PdfTeamSection          `json:"team,omitempty"`
	Software      *PdfSoftwareSection      `json:"software,omitempty"`
	Modeling      *PdfModelingSection      `json:"modeling,omitempty"`
	Naming        *PdfNamingSection        `json:"naming,omitempty"`
	Collaboration *PdfCollaborationSection `json:"collaboration,omitempty"`
	Geolocation   *PdfGeolocationSection   `json:"geolocation,omitempty"`
	Checking      *PdfCheckingSection      `json:"checking,omitempty"`
	Outputs       *PdfOutputsSection       `json:"outputs,omitempty"`
}

type PdfOverviewSection struct {
	ProjectName string         `json:"projectName"`
	ClientName  string         `json:"clientName"`
	Location    string         `json:"location"`
	ProjectType string         `json:"projectType"`
	Milestones  []PdfMilestone `json:"milestones"`
}

type PdfMilestone struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type PdfTeamSection struct {
	Firms []PdfFirm `json:"firms"`
}

type PdfFirm struct {
	FirmName   string `json:"firmName"`
	Discipline string `json:"discipline"`
	BIMLead    string `json:"bimLead"`
	Contact    string `json:"contact"`
}

type PdfSoftwareSection struct {
	MainTools []PdfTool `json:"mainTools"`
	TeamTools []PdfTool `json:"teamTools"`
}

type PdfTool struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	Discipline string `json:"discipline"`
	Usage      string `json:"usage"`
}

type PdfModelingSection struct {
	GeneralLOD     string             `json:"generalLod"`
	DisciplineLODs []PdfDisciplineLOD `json:"disciplineLods"`
	Exceptions     []string           `json:"exceptions"`
	Units          string             `json:"units"`
	DatumStrategy  string             `json:"datumStrategy"`
}

type PdfDisciplineLOD struct {
	Discipline  string `json:"discipline"`
	Level       string `json:"level"`
	Description string `json:"description"`
}

type PdfNamingSection struct {
	UseConventions   bool     `json:"useConventions"`
	PrefixFormat     string   `json:"prefixFormat"`
	DisciplineCodes  string   `json:"disciplineCodes"`
	VersioningFormat string   `json:"versioningFormat"`
	Examples         []string `json:"examples"`
}

type PdfCollaborationSection struct {
	Platform            string `json:"platform"`
	LinkingMethod       string `json:"linkingMethod"`
	SharingFrequency    string `json:"sharingFrequency"`
	SetupResponsibility string `json:"setupResponsibility"`
	AccessControls      string `json:"accessControls"`
}

type PdfGeolocationSection struct {
	IsGeoreferenced  bool   `json:"isGeoreferenced"`
	CoordinateSetup  string `json:"coordinateSetup"`
	OriginLocation   string `json:"originLocation"`
	CoordinateSystem string `json:"coordinateSystem"`
}

type PdfCheckingSection struct {
	ClashDetectionTools  []string `json:"clashDetectionTools"`
	CoordinationProcess  string   `json:"coordinationProcess"`
	MeetingFrequency     string   `json:"meetingFrequency"`
	ResponsibilityMatrix string   `json:"responsibilityMatrix"`
}

type PdfOutputsSection struct {
	DeliverablesByPhase []PdfDeliverablePhase  `json:"deliverablesByPhase"`
	FormatsStandards    []string               `json:"formatsStandards"`
	MilestoneSchedule   []PdfMilestoneDeadline `json:"milestoneSchedule"`
}

type PdfDeliverablePhase struct {
	Phase          string   `json:"phase"`
	Deliverables   []string `json:"deliverables"`
	Formats        []string `json:"formats"`
	Responsibility string   `json:"responsibility"`
}

type PdfMilestoneDeadline struct {
	Milestone    string   `json:"milestone"`
	Deadline     string   `json:"deadline"`
	Deliverables []string `json:"deliverables"`
}

// safe normalizes any value to a trimmed string: nil becomes "", non-strings
// are coerced through fmt.
func safe(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func hasContent(s string) bool { return safe(s) != "" }

func filterContent(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if hasContent(it) {
			out = append(out, safe(it))
		}
	}
	return out
}

// MapToPdfModel reduces ExportData to the presentation model. Deterministic
// in its input: the generated date comes from the snapshot's ExportedAt, not
// from the clock, so mapping the same snapshot twice yields identical
// output.
func MapToPdfModel(data *ExportData) PdfModel {
	model := PdfModel{
		Header: PdfHeader{
			ProjectName:   safe(data.ProjectOverview.ProjectName),
			ClientName:    safe(data.ProjectOverview.ClientName),
			GeneratedDate: data.ExportedAt.Format("01/02/2006"),
			GeneratedAt:   data.ExportedAt,
			ProjectID:     data.ProjectID,
		},
	}
	if model.Header.ProjectName == "" {
		model.Header.ProjectName = "Untitled Project"
	}
	if model.Header.ClientName == "" {
		model.Header.ClientName = "Client Not Specified"
	}

	// 1. Project Overview
	overview := data.ProjectOverview
	if hasContent(overview.ProjectName) || hasContent(overview.ClientName) ||
		hasContent(overview.Location) || hasContent(overview.ProjectType) ||
		len(overview.KeyMilestones) > 0 {
		sec := &PdfOverviewSection{
			ProjectName: safe(overview.ProjectName),
			ClientName:  safe(overview.ClientName),
			Location:    safe(overview.Location),
			ProjectType: safe(overview.ProjectType),
			Milestones:  []PdfMilestone{},
		}
		for _, m := range overview.KeyMilestones {
			if hasContent(m.Name) || hasContent(m.Date) {
				sec.Milestones = append(sec.Milestones, PdfMilestone{
					Name:        safe(m.Name),
					Date:        safe(m.Date),
					Description: safe(m.Description),
				})
			}
		}
		model.Sections.Overview = sec
	}

	// 2. Team & Responsibilities: a firm with no identifying field at all is
	// dropped even if present in the raw list.
	if len(data.TeamResponsibilities.Firms) > 0 {
		firms := make([]PdfFirm, 0, len(data.TeamResponsibilities.Firms))
		for _, f := range data.TeamResponsibilities.Firms {
			if hasContent(f.Name) || hasContent(f.Discipline) || hasContent(f.BIMLead) {
				firms = append(firms, PdfFirm{
					FirmName:   safe(f.Name),
					Discipline: safe(f.Discipline),
					BIMLead:    safe(f.BIMLead),
					Contact:    safe(f.ContactInfo),
				})
			}
		}
		if len(firms) > 0 {
			model.Sections.Team = &PdfTeamSection{Firms: firms}
		}
	}

	// 3. Software Overview
	software := data.SoftwareOverview
	if len(software.MainTools) > 0 || len(software.TeamSpecificTools) > 0 {
		mainTools := mapTools(software.MainTools)
		teamTools := mapTools(software.TeamSpecificTools)
		if len(mainTools) > 0 || len(teamTools) > 0 {
			model.Sections.Software = &PdfSoftwareSection{MainTools: mainTools, TeamTools: teamTools}
		}
	}

	// 4. Modeling Scope
	modeling := data.ModelingScope
	if hasContent(modeling.GeneralLOD) || hasContent(modeling.Units) ||
		hasContent(modeling.LevelsGridsStrategy) || len(modeling.DisciplineLODs) > 0 ||
		len(modeling.Exceptions) > 0 {
		sec := &PdfModelingSection{
			GeneralLOD:     safe(modeling.GeneralLOD),
			Units:          safe(modeling.Units),
			DatumStrategy:  safe(modeling.LevelsGridsStrategy),
			DisciplineLODs: []PdfDisciplineLOD{},
			Exceptions:     filterContent(modeling.Exceptions),
		}
		for _, d := range modeling.DisciplineLODs {
			if hasContent(d.Discipline) || hasContent(d.LODLevel) {
				sec.DisciplineLODs = append(sec.DisciplineLODs, PdfDisciplineLOD{
					Discipline:  safe(d.Discipline),
					Level:       safe(d.LODLevel),
					Description: safe(d.Description),
				})
			}
		}
		model.Sections.Modeling = sec
	}

	// 5. File Naming
	naming := data.FileNaming
	if naming.UseConventions || hasContent(naming.PrefixFormat) ||
		hasContent(naming.DisciplineCodes) || hasContent(naming.VersioningFormat) ||
		len(naming.Examples) > 0 {
		model.Sections.Naming = &PdfNamingSection{
			UseConventions:   naming.UseConventions,
			PrefixFormat:     safe(naming.PrefixFormat),
			DisciplineCodes:  safe(naming.DisciplineCodes),
			VersioningFormat: safe(naming.VersioningFormat),
			Examples:         filterContent(naming.Examples),
		}
	}

	// 6. Collaboration & CDE
	collab := data.CollaborationCDE
	if hasContent(collab.Platform) || hasContent(collab.FileLinkingMethod) ||
		hasContent(collab.SharingFrequency) || hasContent(collab.SetupResponsibility) ||
		hasContent(collab.AccessControls) {
		model.Sections.Collaboration = &PdfCollaborationSection{
			Platform:            safe(collab.Platform),
			LinkingMethod:       safe(collab.FileLinkingMethod),
			SharingFrequency:    safe(collab.SharingFrequency),
			SetupResponsibility: safe(collab.SetupResponsibility),
			AccessControls:      safe(collab.AccessControls),
		}
	}

	// 7. Geolocation: an unanswered georeference question with all text
	// fields blank means the section was never touched and is omitted.
	geo := data.Geolocation
	if geo.IsGeoreferenced != nil || hasContent(geo.CoordinateSetup) ||
		hasContent(geo.OriginLocation) || hasContent(geo.CoordinateSystem) {
		model.Sections.Geolocation = &PdfGeolocationSection{
			IsGeoreferenced:  geo.IsGeoreferenced != nil && *geo.IsGeoreferenced,
			CoordinateSetup:  safe(geo.CoordinateSetup),
			OriginLocation:   safe(geo.OriginLocation),
			CoordinateSystem: safe(geo.CoordinateSystem),
		}
	}

	// 8. Model Checking
	checking := data.ModelChecking
	if len(checking.ClashDetectionTools) > 0 || hasContent(checking.CoordinationProcess) ||
		hasContent(checking.MeetingFrequency) || hasContent(checking.ResponsibilityMatrix) {
		model.Sections.Checking = &PdfCheckingSection{
			ClashDetectionTools:  filterContent(checking.ClashDetectionTools),
			CoordinationProcess:  safe(checking.CoordinationProcess),
			MeetingFrequency:     safe(checking.MeetingFrequency),
			ResponsibilityMatrix: safe(checking.ResponsibilityMatrix),
		}
	}

	// 9. Outputs & Deliverables
	outputs := data.OutputsDeliverables
	if len(outputs.DeliverablesByPhase) > 0 || len(outputs.FormatsStandards) > 0 ||
		len(outputs.MilestoneSchedule) > 0 {
		sec := &PdfOutputsSection{
			DeliverablesByPhase: []PdfDeliverablePhase{},
			FormatsStandards:    filterContent(outputs.FormatsStandards),
			MilestoneSchedule:   []PdfMilestoneDeadline{},
		}
		for _, ph := range outputs.DeliverablesByPhase {
			if hasContent(ph.Phase) || len(ph.Deliverables) > 0 {
				sec.DeliverablesByPhase = append(sec.DeliverablesByPhase, PdfDeliverablePhase{
					Phase:          safe(ph.Phase),
					Deliverables:   filterContent(ph.Deliverables),
					Formats:        filterContent(ph.Formats),
					Responsibility: safe(ph.Responsibility),
				})
			}
		}
		for _, m := range outputs.MilestoneSchedule {
			if hasContent(m.Milestone) || hasContent(m.Deadline) {
				sec.MilestoneSchedule = append(sec.MilestoneSchedule, PdfMilestoneDeadline{
					Milestone:    safe(m.Milestone),
					Deadline:     safe(m.Deadline),
					Deliverables: filterContent(m.Deliverables),
				})
			}
		}
		model.Sections.Outputs = sec
	}

	return model
}

func mapTools(tools []BIMTool) []PdfTool {
	out := make([]PdfTool, 0, len(tools))
	for _, t := range tools {
		if hasContent(t.Name) {
			out = append(out, PdfTool{
				Tool:       safe(t.Name),
				Version:    safe(t.Version),
				Discipline: safe(t.Discipline),
				Usage:      safe(t.Usage),
			})
		}
	}
	return out
}
