package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bimxplan/bimxplan-backend/internal/logger"
	"github.com/bimxplan/bimxplan-backend/internal/types"
)

type ProjectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, projects []*types.Project) ([]*types.Project, error)
	GetByID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*types.Project, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Project, error)
	Update(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, updates map[string]interface{}) error
	OwnerOf(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (uuid.UUID, error)
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (pr *projectRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return pr.db
}

func (pr *projectRepo) Create(ctx context.Context, tx *gorm.DB, projects []*types.Project) ([]*types.Project, error) {
	if len(projects) == 0 {
		return []*types.Project{}, nil
	}
	if err := pr.conn(tx).WithContext(ctx).Create(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (pr *projectRepo) GetByID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*types.Project, error) {
	var project types.Project
	err := pr.conn(tx).WithContext(ctx).
		Where("id = ?", projectID).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (pr *projectRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Project, error) {
	var results []*types.Project
	err := pr.conn(tx).WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *projectRepo) Update(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, updates map[string]interface{}) error {
	return pr.conn(tx).WithContext(ctx).
		Model(&types.Project{}).
		Where("id = ?", projectID).
		Updates(updates).Error
}

func (pr *projectRepo) OwnerOf(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (uuid.UUID, error) {
	var project types.Project
	err := pr.conn(tx).WithContext(ctx).
		Select("owner_id").
		Where("id = ?", projectID).
		First(&project).Error
	if err != nil {
		return uuid.Nil, err
	}
	return project.OwnerID, nil
}
