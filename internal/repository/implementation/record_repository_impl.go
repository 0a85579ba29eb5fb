package implementation

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ppm-intake-be/internal/mapper"
	"ppm-intake-be/internal/model"
	"ppm-intake-be/internal/repository/contract"
	"ppm-intake-be/pkg/intake/record"
)

type RecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RecordMapper
}

func NewRecordRepository(db *gorm.DB) contract.RecordRepository {
	return &RecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewRecordMapper(),
	}
}

// Save upserts on session_id so a re-save overwrites
func (r *RecordRepositoryImpl) Save(ctx context.Context, rec record.Record) error {
	m, err := r.mapper.ToModel(rec)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"collected_info", "created_at", "completed_at", "updated_at"}),
	}).Create(m).Error
}

func (r *RecordRepositoryImpl) Load(ctx context.Context, sessionID string) (record.Record, bool, error) {
	var m model.IntakeRecord
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return record.Record{}, false, nil
		}
		return record.Record{}, false, err
	}
	rec, err := r.mapper.ToDomain(&m)
	if err != nil {
		return record.Record{}, false, err
	}
	return rec, true, nil
}
