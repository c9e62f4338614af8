package models

import (
	"encoding/json"
	"time"
)

// Audit actions recorded by the gateway.
const (
	AuditActionCloseUnit      = "UNIT_CLOSE_READY"
	AuditActionNotifyTeachers = "UNIT_NOTIFY_INCOMPLETE"
	AuditActionRecompute      = "UNIT_RECOMPUTE_STATUS"
	AuditActionUpdatePoints   = "UNIT_UPDATE_POINTS"
	AuditActionActivateUnit   = "UNIT_ACTIVATE"
	AuditActionSaveGrades     = "GRADES_SAVE_BATCH"
)

// IsAuditAction reports whether action is one the gateway records.
func IsAuditAction(action string) bool {
	switch action {
	case AuditActionCloseUnit, AuditActionNotifyTeachers, AuditActionRecompute,
		AuditActionUpdatePoints, AuditActionActivateUnit, AuditActionSaveGrades:
		return true
	}
	return false
}

// Audit outcomes.
const (
	AuditOutcomeSuccess  = "SUCCESS"
	AuditOutcomeRejected = "REJECTED"
	AuditOutcomeFailed   = "FAILED"
)

// AuditLog is one entry of the gateway's local trail.
type AuditLog struct {
	ID         string          `db:"id" json:"id"`
	UserID     string          `db:"user_id" json:"user_id"`
	Action     string          `db:"action" json:"action"`
	UnitNumber *int            `db:"unit_number" json:"unit_number,omitempty"`
	ResourceID *string         `db:"resource_id" json:"resource_id,omitempty"`
	Outcome    string          `db:"outcome" json:"outcome"`
	Affected   int             `db:"affected" json:"affected"`
	Details    json.RawMessage `db:"details" json:"details,omitempty"`
	RequestID  *string         `db:"request_id" json:"request_id,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// AuditFilter narrows audit queries.
type AuditFilter struct {
	Action     string
	UnitNumber *int
	Limit      int
}
