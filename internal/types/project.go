package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project is the persistent BEP row. The plan itself lives whole in
// ProjectData (jsonb); name/client/location/type are denormalized off the
// overview section on every save so list views never parse the blob.
type Project struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner       *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:OwnerID;references:ID" json:"owner,omitempty"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	ClientName  string         `gorm:"column:client_name" json:"client_name"`
	Location    string         `gorm:"column:location" json:"location"`
	ProjectType string         `gorm:"column:project_type" json:"project_type"`
	Status      string         `gorm:"column:status;not null;default:draft" json:"status"`
	ProjectData datatypes.JSON `gorm:"column:project_data;type:jsonb" json:"project_data"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Project) TableName() string { return "project" }
