package mapper

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"ppm-intake-be/internal/model"
	"ppm-intake-be/pkg/intake/field"
	"ppm-intake-be/pkg/intake/record"
)

type RecordMapper struct{}

func NewRecordMapper() *RecordMapper {
	return &RecordMapper{}
}

func (m *RecordMapper) ToDomain(r *model.IntakeRecord) (record.Record, error) {
	var values field.Values
	if err := json.Unmarshal(r.CollectedInfo, &values); err != nil {
		return record.Record{}, fmt.Errorf("decode collected info of %s: %w", r.SessionId, err)
	}
	return record.Record{
		SessionID:   r.SessionId,
		CreatedAt:   r.CreatedAt.UTC(),
		CompletedAt: r.CompletedAt.UTC(),
		Fields:      values,
	}, nil
}

func (m *RecordMapper) ToModel(r record.Record) (*model.IntakeRecord, error) {
	raw, err := json.Marshal(r.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode collected info of %s: %w", r.SessionID, err)
	}
	return &model.IntakeRecord{
		SessionId:     r.SessionID,
		CollectedInfo: datatypes.JSON(raw),
		CreatedAt:     r.CreatedAt,
		CompletedAt:   r.CompletedAt,
	}, nil
}
