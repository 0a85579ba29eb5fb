package model

import (
	"time"

	"gorm.io/datatypes"
)

type IntakeRecord struct {
	SessionId     string         `gorm:"type:varchar(128);primaryKey"`
	CollectedInfo datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt     time.Time      `gorm:"not null"`
	CompletedAt   time.Time      `gorm:"not null"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
}

func (IntakeRecord) TableName() string {
	return "intake_records"
}
