package contract

import "ppm-intake-be/pkg/intake/record"

// RecordRepository stores one completion record per session
type RecordRepository interface {
	record.Store
}
