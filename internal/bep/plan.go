// Package bep holds the BIM Execution Plan data pipeline: the plan data
// model, the declarative field schema, validation, progress, the PDF
// presentation model and the Markdown rendering.
package bep

import "time"

// Plan is the full project_data record. Every section is optional; a nil
// section means the wizard step has never been saved.
type Plan struct {
	ProjectOverview      *ProjectOverview      `json:"project_overview,omitempty" yaml:"project_overview"`
	TeamResponsibilities *TeamResponsibilities `json:"team_responsibilities,omitempty" yaml:"team_responsibilities"`
	SoftwareOverview     *SoftwareOverview     `json:"software_overview,omitempty" yaml:"software_overview"`
	ModelingScope        *ModelingScope        `json:"modeling_scope,omitempty" yaml:"modeling_scope"`
	FileNaming           *FileNaming           `json:"file_naming,omitempty" yaml:"file_naming"`
	CollaborationCDE     *CollaborationCDE     `json:"collaboration_cde,omitempty" yaml:"collaboration_cde"`
	Geolocation          *Geolocation          `json:"geolocation,omitempty" yaml:"geolocation"`
	ModelChecking        *ModelChecking        `json:"model_checking,omitempty" yaml:"model_checking"`
	OutputsDeliverables  *OutputsDeliverables  `json:"outputs_deliverables,omitempty" yaml:"outputs_deliverables"`
}

type ProjectOverview struct {
	ProjectName   string      `json:"project_name" yaml:"project_name"`
	Location      string      `json:"location" yaml:"location"`
	ClientName    string      `json:"client_name" yaml:"client_name"`
	ProjectType   string      `json:"project_type" yaml:"project_type"`
	Description   string      `json:"description,omitempty" yaml:"description"`
	KeyMilestones []Milestone `json:"key_milestones,omitempty" yaml:"key_milestones"`
}

type Milestone struct {
	Name        string `json:"name" yaml:"name"`
	Date        string `json:"date" yaml:"date"`
	Description string `json:"description" yaml:"description"`
}

type TeamResponsibilities struct {
	Firms []Firm `json:"firms" yaml:"firms"`
}

type Firm struct {
	Name        string `json:"name" yaml:"name"`
	Discipline  string `json:"discipline" yaml:"discipline"`
	BIMLead     string `json:"bim_lead" yaml:"bim_lead"`
	ContactInfo string `json:"contact_info" yaml:"contact_info"`
}

type SoftwareOverview struct {
	MainTools         []BIMTool `json:"main_tools" yaml:"main_tools"`
	TeamSpecificTools []BIMTool `json:"team_specific_tools" yaml:"team_specific_tools"`
}

type BIMTool struct {
	Name       string `json:"name" yaml:"name"`
	Version    string `json:"version" yaml:"version"`
	Discipline string `json:"discipline" yaml:"discipline"`
	Usage      string `json:"usage" yaml:"usage"`
}

type ModelingScope struct {
	GeneralLOD          string          `json:"general_lod" yaml:"general_lod"`
	DisciplineLODs      []DisciplineLOD `json:"discipline_lods" yaml:"discipline_lods"`
	Exceptions          []string        `json:"exceptions" yaml:"exceptions"`
	Units               string          `json:"units" yaml:"units"`
	LevelsGridsStrategy string          `json:"levels_grids_strategy" yaml:"levels_grids_strategy"`
}

type DisciplineLOD struct {
	Discipline  string `json:"discipline" yaml:"discipline"`
	LODLevel    string `json:"lod_level" yaml:"lod_level"`
	Description string `json:"description" yaml:"description"`
}

type FileNaming struct {
	UseConventions   bool     `json:"use_conventions" yaml:"use_conventions"`
	PrefixFormat     string   `json:"prefix_format" yaml:"prefix_format"`
	DisciplineCodes  string   `json:"discipline_codes" yaml:"discipline_codes"`
	VersioningFormat string   `json:"versioning_format" yaml:"versioning_format"`
	Examples         []string `json:"examples" yaml:"examples"`
}

type CollaborationCDE struct {
	Platform            string `json:"platform" yaml:"platform"`
	FileLinkingMethod   string `json:"file_linking_method" yaml:"file_linking_method"`
	SharingFrequency    string `json:"sharing_frequency" yaml:"sharing_frequency"`
	SetupResponsibility string `json:"setup_responsibility" yaml:"setup_responsibility"`
	AccessControls      string `json:"access_controls" yaml:"access_controls"`
}

// Geolocation.IsGeoreferenced is a tri-state: nil means the question has not
// been answered, which is distinct from an explicit "no".
type Geolocation struct {
	IsGeoreferenced  *bool  `json:"is_georeferenced,omitempty" yaml:"is_georeferenced"`
	CoordinateSetup  string `json:"coordinate_setup" yaml:"coordinate_setup"`
	OriginLocation   string `json:"origin_location" yaml:"origin_location"`
	CoordinateSystem string `json:"coordinate_system" yaml:"coordinate_system"`
}

type ModelChecking struct {
	ClashDetectionTools  []string `json:"clash_detection_tools" yaml:"clash_detection_tools"`
	CoordinationProcess  string   `json:"coordination_process" yaml:"coordination_process"`
	MeetingFrequency     string   `json:"meeting_frequency" yaml:"meeting_frequency"`
	ResponsibilityMatrix string   `json:"responsibility_matrix" yaml:"responsibility_matrix"`
}

type OutputsDeliverables struct {
	DeliverablesByPhase []DeliverablePhase  `json:"deliverables_by_phase" yaml:"deliverables_by_phase"`
	FormatsStandards    []string            `json:"formats_standards" yaml:"formats_standards"`
	MilestoneSchedule   []MilestoneDeadline `json:"milestone_schedule" yaml:"milestone_schedule"`
}

type DeliverablePhase struct {
	Phase          string   `json:"phase" yaml:"phase"`
	Deliverables   []string `json:"deliverables" yaml:"deliverables"`
	Formats        []string `json:"formats" yaml:"formats"`
	Responsibility string   `json:"responsibility" yaml:"responsibility"`
}

type MilestoneDeadline struct {
	Milestone    string   `json:"milestone" yaml:"milestone"`
	Deadline     string   `json:"deadline" yaml:"deadline"`
	Deliverables []string `json:"deliverables" yaml:"deliverables"`
}

// ExportData is the denormalized, read-ready projection of a project: header
// fields off the project row, all nine sections defaulted to empty values,
// the validation issues, and export metadata. It is produced only by the
// unified data collector.
type ExportData struct {
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	ClientName  string `json:"client_name"`
	Location    string `json:"location"`
	ProjectType string `json:"project_type"`
	Status      string `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	OwnerID     string    `json:"owner_id"`

	ProjectOverview      ProjectOverview      `json:"project_overview"`
	TeamResponsibilities TeamResponsibilities `json:"team_responsibilities"`
	SoftwareOverview     SoftwareOverview     `json:"software_overview"`
	ModelingScope        ModelingScope        `json:"modeling_scope"`
	FileNaming           FileNaming           `json:"file_naming"`
	CollaborationCDE     CollaborationCDE     `json:"collaboration_cde"`
	Geolocation          Geolocation          `json:"geolocation"`
	ModelChecking        ModelChecking        `json:"model_checking"`
	OutputsDeliverables  OutputsDeliverables  `json:"outputs_deliverables"`

	ValidationIssues []ValidationIssue `json:"validation_issues"`

	ExportedAt time.Time `json:"exported_at"`
	ExportedBy string    `json:"exported_by"`
}

// Sections rebuilds a Plan from the defaulted ExportData sections. Used by
// the wizard rehydrate path, which maps export sections back into the
// editable plan shape.
func (e *ExportData) Sections() Plan {
	overview := e.ProjectOverview
	team := e.TeamResponsibilities
	software := e.SoftwareOverview
	modeling := e.ModelingScope
	naming := e.FileNaming
	collab := e.CollaborationCDE
	geo := e.Geolocation
	checking := e.ModelChecking
	outputs := e.OutputsDeliverables
	return Plan{
		ProjectOverview:      &overview,
		TeamResponsibilities: &team,
		SoftwareOverview:     &software,
		ModelingScope:        &modeling,
		FileNaming:           &naming,
		CollaborationCDE:     &collab,
		Geolocation:          &geo,
		ModelChecking:        &checking,
		OutputsDeliverables:  &outputs,
	}
}
