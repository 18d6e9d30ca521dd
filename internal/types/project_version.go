package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProjectVersion is the append-only snapshot log. Every wizard save and
// every PDF export writes one entry; version numbers only grow per project.
type ProjectVersion struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Project       *Project       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	VersionNumber int64          `gorm:"column:version_number;not null" json:"version_number"`
	ProjectData   datatypes.JSON `gorm:"column:project_data;type:jsonb" json:"project_data"`
	Changelog     string         `gorm:"column:changelog" json:"changelog"`
	CreatedBy     uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (ProjectVersion) TableName() string { return "project_version" }
