package specification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type row struct {
	ID        int
	SessionID string
}

func dryRun(t *testing.T) *gorm.DB {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Skipf("postgres dialector unavailable: %v", err)
	}
	return db
}

func TestSpecificationsComposeSQL(t *testing.T) {
	db := dryRun(t)

	var rows []row
	q := db.Model(&row{})
	for _, spec := range []Specification{
		BySessionID{SessionID: "abc"},
		OrderBy{Field: "created_at"},
		Pagination{Limit: 5, Offset: 10},
	} {
		q = spec.Apply(q)
	}
	stmt := q.Find(&rows).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "session_id = $1")
	assert.Contains(t, sql, "ORDER BY created_at ASC")
	assert.Contains(t, sql, "LIMIT $2 OFFSET $3")
	assert.Equal(t, []interface{}{"abc", 5, 10}, stmt.Vars)
}

func TestOrderByDesc(t *testing.T) {
	db := dryRun(t)

	var rows []row
	stmt := OrderBy{Field: "created_at", Desc: true}.Apply(db.Model(&row{})).Find(&rows).Statement
	assert.Contains(t, stmt.SQL.String(), "ORDER BY created_at DESC")
}

func TestPaginationWithoutLimitKeepsOffset(t *testing.T) {
	db := dryRun(t)

	var rows []row
	stmt := Pagination{Offset: 3}.Apply(db.Model(&row{})).Find(&rows).Statement
	sql := stmt.SQL.String()
	assert.NotContains(t, sql, "LIMIT")
	assert.Contains(t, sql, "OFFSET $1")
	assert.Equal(t, []interface{}{3}, stmt.Vars)
}
