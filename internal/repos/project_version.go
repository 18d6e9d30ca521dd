package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bimxplan/bimxplan-backend/internal/logger"
	"github.com/bimxplan/bimxplan-backend/internal/types"
)

type ProjectVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, versions []*types.ProjectVersion) ([]*types.ProjectVersion, error)
	MaxVersionNumber(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (int64, error)
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, limit int) ([]*types.ProjectVersion, error)
}

type projectVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectVersionRepo(db *gorm.DB, baseLog *logger.Logger) ProjectVersionRepo {
	return &projectVersionRepo{db: db, log: baseLog.With("repo", "ProjectVersionRepo")}
}

func (vr *projectVersionRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return vr.db
}

func (vr *projectVersionRepo) Create(ctx context.Context, tx *gorm.DB, versions []*types.ProjectVersion) ([]*types.ProjectVersion, error) {
	if len(versions) == 0 {
		return []*types.ProjectVersion{}, nil
	}
	if err := vr.conn(tx).WithContext(ctx).Create(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

// MaxVersionNumber returns 0 when no version exists yet for the project.
func (vr *projectVersionRepo) MaxVersionNumber(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (int64, error) {
	var version types.ProjectVersion
	err := vr.conn(tx).WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("version_number DESC").
		Limit(1).
		First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version.VersionNumber, nil
}

func (vr *projectVersionRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, limit int) ([]*types.ProjectVersion, error) {
	var results []*types.ProjectVersion
	q := vr.conn(tx).WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("version_number DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
