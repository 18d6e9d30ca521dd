package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bimxplan/bimxplan-backend/internal/bep"
	"github.com/bimxplan/bimxplan-backend/internal/events"
	"github.com/bimxplan/bimxplan-backend/internal/logger"
	"github.com/bimxplan/bimxplan-backend/internal/repos"
	"github.com/bimxplan/bimxplan-backend/internal/types"
)

// Authorizer is the collaborator the collector consults before touching any
// project data. AuthService implements it.
type Authorizer interface {
	CanAccessProject(ctx context.Context, userID, projectID uuid.UUID) (bool, error)
}

// CollectorService is the single read/write path for project plan data.
// Every consumer (wizard, exports, the plain REST endpoints) goes through
// Fetch and Save, so authorization, section defaulting, validation and event
// emission happen in exactly one place.
type CollectorService interface {
	CreateProject(ctx context.Context, userID uuid.UUID, name string, plan *bep.Plan) (*types.Project, error)
	ListProjects(ctx context.Context, userID uuid.UUID) ([]*types.Project, error)
	ListVersions(ctx context.Context, userID, projectID uuid.UUID, limit int) ([]*types.ProjectVersion, error)
	Fetch(ctx context.Context, userID, projectID uuid.UUID) (*bep.ExportData, error)
	Save(ctx context.Context, userID, projectID uuid.UUID, plan *bep.Plan, changelog string) (int64, error)
}

type collectorService struct {
	db          *gorm.DB
	log         *logger.Logger
	bus         *events.Bus
	authz       Authorizer
	projectRepo repos.ProjectRepo
	versionRepo repos.ProjectVersionRepo
}

func NewCollectorService(
	db *gorm.DB,
	log *logger.Logger,
	bus *events.Bus,
	authz Authorizer,
	projectRepo repos.ProjectRepo,
	versionRepo repos.ProjectVersionRepo,
) CollectorService {
	return &collectorService{
		db:          db,
		log:         log.With("service", "CollectorService"),
		bus:         bus,
		authz:       authz,
		projectRepo: projectRepo,
		versionRepo: versionRepo,
	}
}

func (cs *collectorService) CreateProject(ctx context.Context, userID uuid.UUID, name string, plan *bep.Plan) (*types.Project, error) {
	if plan == nil {
		plan = &bep.Plan{}
	}
	blob, err := json.Marshal(plan)
	if err != nil {
		return nil, &CollectorError{Op: "create", Err: err}
	}
	project := &types.Project{
		ID:          uuid.New(),
		OwnerID:     userID,
		Name:        name,
		Status:      "draft",
		ProjectData: datatypes.JSON(blob),
	}
	applyHeaderFields(project, plan)
	if project.Name == "" {
		project.Name = "Untitled Project"
	}
	if _, err := cs.projectRepo.Create(ctx, nil, []*types.Project{project}); err != nil {
		return nil, &CollectorError{Op: "create", Err: err}
	}
	return project, nil
}

func (cs *collectorService) ListProjects(ctx context.Context, userID uuid.UUID) ([]*types.Project, error) {
	return cs.projectRepo.ListByOwner(ctx, nil, userID)
}

func (cs *collectorService) ListVersions(ctx context.Context, userID, projectID uuid.UUID, limit int) ([]*types.ProjectVersion, error) {
	if err := cs.authorize(ctx, userID, projectID, "versions"); err != nil {
		return nil, err
	}
	return cs.versionRepo.ListByProject(ctx, nil, projectID, limit)
}

// Fetch runs the full collection pipeline: authorize, load, default missing
// sections, validate, assemble the denormalized ExportData, then announce it
// on the bus. Nothing is emitted on any failure path.
func (cs *collectorService) Fetch(ctx context.Context, userID, projectID uuid.UUID) (*bep.ExportData, error) {
	if err := cs.authorize(ctx, userID, projectID, "fetch"); err != nil {
		return nil, err
	}

	project, err := cs.projectRepo.GetByID(ctx, nil, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &CollectorError{Op: "fetch", ProjectID: projectID.String(), Err: ErrNotFound}
		}
		return nil, &CollectorError{Op: "fetch", ProjectID: projectID.String(), Err: err}
	}

	var plan bep.Plan
	if len(project.ProjectData) > 0 {
		if err := json.Unmarshal(project.ProjectData, &plan); err != nil {
			return nil, &CollectorError{Op: "fetch", ProjectID: projectID.String(), Err: fmt.Errorf("corrupt plan data: %w", err)}
		}
	}

	report := bep.Validate(&plan)
	data := assembleExportData(project, &plan, report.Issues, userID)

	cs.bus.Emit(events.EventDataUpdated, projectID.String(), data)
	return data, nil
}

// Save writes the whole plan blob back, lifts the overview header fields onto
// the project row, and appends a version entry, all in one transaction. No
// validation recompute happens here; callers that need a fresh report Fetch
// afterwards.
func (cs *collectorService) Save(ctx context.Context, userID, projectID uuid.UUID, plan *bep.Plan, changelog string) (int64, error) {
	if err := cs.authorize(ctx, userID, projectID, "save"); err != nil {
		return 0, err
	}
	if plan == nil {
		plan = &bep.Plan{}
	}
	blob, err := json.Marshal(plan)
	if err != nil {
		return 0, &CollectorError{Op: "save", ProjectID: projectID.String(), Err: err}
	}

	var versionNumber int64
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"project_data": datatypes.JSON(blob),
			"updated_at":   time.Now(),
		}
		headerUpdates(updates, plan)
		if err := cs.projectRepo.Update(ctx, tx, projectID, updates); err != nil {
			return err
		}

		versionNumber = cs.nextVersionNumber(ctx, tx, projectID)
		if changelog == "" {
			changelog = fmt.Sprintf("Version %d - Auto-saved", versionNumber)
		}
		_, err := cs.versionRepo.Create(ctx, tx, []*types.ProjectVersion{{
			ProjectID:     projectID,
			VersionNumber: versionNumber,
			ProjectData:   datatypes.JSON(blob),
			Changelog:     changelog,
			CreatedBy:     userID,
		}})
		return err
	})
	if err != nil {
		return 0, &CollectorError{Op: "save", ProjectID: projectID.String(), Err: err}
	}

	cs.bus.Emit(events.EventDataUpdated, projectID.String(), plan)
	return versionNumber, nil
}

func (cs *collectorService) authorize(ctx context.Context, userID, projectID uuid.UUID, op string) error {
	ok, err := cs.authz.CanAccessProject(ctx, userID, projectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &CollectorError{Op: op, ProjectID: projectID.String(), Err: ErrNotFound}
		}
		return &CollectorError{Op: op, ProjectID: projectID.String(), Err: err}
	}
	if !ok {
		return &CollectorError{Op: op, ProjectID: projectID.String(), Err: ErrAccessDenied}
	}
	return nil
}

// nextVersionNumber is max+1 within the save transaction; when the max query
// itself fails the unix timestamp keeps numbers unique and still increasing.
func (cs *collectorService) nextVersionNumber(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) int64 {
	current, err := cs.versionRepo.MaxVersionNumber(ctx, tx, projectID)
	if err != nil {
		cs.log.Warn("version number query failed, falling back to timestamp",
			"project_id", projectID.String(), "error", err.Error())
		return time.Now().Unix()
	}
	return current + 1
}

func assembleExportData(project *types.Project, plan *bep.Plan, issues []bep.ValidationIssue, userID uuid.UUID) *bep.ExportData {
	name := project.Name
	if name == "" {
		name = "Untitled Project"
	}
	status := project.Status
	if status == "" {
		status = "draft"
	}
	data := &bep.ExportData{
		ProjectID:   project.ID.String(),
		ProjectName: name,
		ClientName:  project.ClientName,
		Location:    project.Location,
		ProjectType: project.ProjectType,
		Status:      status,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
		OwnerID:     project.OwnerID.String(),

		ValidationIssues: issues,
		ExportedAt:       time.Now(),
		ExportedBy:       userID.String(),
	}
	if plan.ProjectOverview != nil {
		data.ProjectOverview = *plan.ProjectOverview
	}
	if plan.TeamResponsibilities != nil {
		data.TeamResponsibilities = *plan.TeamResponsibilities
	}
	if plan.SoftwareOverview != nil {
		data.SoftwareOverview = *plan.SoftwareOverview
	}
	if plan.ModelingScope != nil {
		data.ModelingScope = *plan.ModelingScope
	}
	if plan.FileNaming != nil {
		data.FileNaming = *plan.FileNaming
	}
	if plan.CollaborationCDE != nil {
		data.CollaborationCDE = *plan.CollaborationCDE
	}
	if plan.Geolocation != nil {
		data.Geolocation = *plan.Geolocation
	}
	if plan.ModelChecking != nil {
		data.ModelChecking = *plan.ModelChecking
	}
	if plan.OutputsDeliverables != nil {
		data.OutputsDeliverables = *plan.OutputsDeliverables
	}
	return data
}

func applyHeaderFields(project *types.Project, plan *bep.Plan) {
	if plan.ProjectOverview == nil {
		return
	}
	ov := plan.ProjectOverview
	if ov.ProjectName != "" {
		project.Name = ov.ProjectName
	}
	project.ClientName = ov.ClientName
	project.Location = ov.Location
	project.ProjectType = ov.ProjectType
}

func headerUpdates(updates map[string]interface{}, plan *bep.Plan) {
	if plan.ProjectOverview == nil {
		return
	}
	ov := plan.ProjectOverview
	if ov.ProjectName != "" {
		updates["name"] = ov.ProjectName
	}
	updates["client_name"] = ov.ClientName
	updates["location"] = ov.Location
	updates["project_type"] = ov.ProjectType
}
