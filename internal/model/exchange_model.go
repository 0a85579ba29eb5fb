package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Exchange is one indexed (user text, assistant reply) pair. Only UserText is embedded.
type Exchange struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId      string          `gorm:"type:varchar(128);not null;index"`
	UserText       string          `gorm:"type:text;not null"`
	AssistantText  string          `gorm:"type:text;not null"`
	Cached         bool            `gorm:"default:false"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector"` // dimension follows the configured embedding model
	CreatedAt      time.Time       `gorm:"index"`
}

func (Exchange) TableName() string {
	return "intake_exchanges"
}
