// Package action defines approval-gated action records — persisted side
// effects proposed by the assistant.
package action

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Type identifies what kind of side effect a record proposes.
type Type string

// Action record types.
const (
	TypeMessage           Type = "message"
	TypeDataUpdate        Type = "data_update"
	TypeSetFutureReminder Type = "set_future_reminder"
	TypeEscalation        Type = "escalation"
	TypeCRMWrite          Type = "crm_write"
	TypeCRMAppendNote     Type = "crm_append_note"
)

// Status is the lifecycle state of a record.
type Status string

// Record statuses.
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExecuted Status = "executed"
)

// CanTransition reports whether a record may move from s to next.
// Approval and rejection are external operator inputs; execution follows
// approval (or creation, for records that bypass the gate).
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusExecuted
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusExecuted
}

// Record is a persisted, possibly approval-gated proposed side effect.
// RecipientID and SenderID reference contacts; both may be empty when
// resolution failed, in which case the raw name survives in the payload.
type Record struct {
	ID               string          `json:"id"`
	CompanyID        string          `json:"company_id"`
	ProjectID        string          `json:"project_id"`
	RunID            string          `json:"run_id,omitempty"`
	Type             Type            `json:"type"`
	Payload          json.RawMessage `json:"payload"`
	RequiresApproval bool            `json:"requires_approval"`
	Status           Status          `json:"status"`
	RecipientID      string          `json:"recipient_id,omitempty"`
	SenderID         string          `json:"sender_id,omitempty"`
	RemindAt         time.Time       `json:"remind_at,omitzero"`
	DedupeKey        string          `json:"dedupe_key,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	ExecutedAt       time.Time       `json:"executed_at,omitzero"`
}

// DedupeKey computes a content hash over type and payload, used to skip
// creating a second identical record within one run.
func DedupeKey(t Type, payload json.RawMessage) string {
	h := sha256.New()
	h.Write([]byte(t))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
