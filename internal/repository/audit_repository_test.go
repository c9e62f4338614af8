package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestAuditRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	unit := 2
	log := &models.AuditLog{
		UserID:     "admin-1",
		Action:     models.AuditActionCloseUnit,
		UnitNumber: &unit,
		Outcome:    models.AuditOutcomeSuccess,
		Affected:   7,
		Details:    json.RawMessage(`{"ready":7}`),
	}
	mock.ExpectExec("INSERT INTO unit_audit_logs").
		WithArgs(sqlmock.AnyArg(), "admin-1", models.AuditActionCloseUnit, &unit, nil, models.AuditOutcomeSuccess, 7, `{"ready":7}`, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), log))
	assert.NotEmpty(t, log.ID)
	assert.False(t, log.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "action", "unit_number", "resource_id", "outcome", "affected", "details", "request_id", "created_at"}).
		AddRow("a1", "admin-1", models.AuditActionNotifyTeachers, 3, nil, models.AuditOutcomeSuccess, 4, []byte(`{"deadline_days":3}`), "req-1", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, action, unit_number, resource_id, outcome, affected, details, request_id, created_at FROM unit_audit_logs WHERE action = $1 AND unit_number = $2 ORDER BY created_at DESC LIMIT 50")).
		WithArgs(models.AuditActionNotifyTeachers, 3).
		WillReturnRows(rows)

	unit := 3
	logs, err := repo.List(context.Background(), models.AuditFilter{Action: models.AuditActionNotifyTeachers, UnitNumber: &unit})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 4, logs[0].Affected)
	require.NotNil(t, logs[0].UnitNumber)
	assert.Equal(t, 3, *logs[0].UnitNumber)
	require.NotNil(t, logs[0].RequestID)
	assert.Equal(t, "req-1", *logs[0].RequestID)
	assert.JSONEq(t, `{"deadline_days":3}`, string(logs[0].Details))
	assert.NoError(t, mock.ExpectationsWereMet())
}
