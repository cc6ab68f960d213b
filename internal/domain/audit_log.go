package domain

import (
	"encoding/json"
	"time"
)

// AuditEvent identifies what a ledger entry records. The set is closed; the
// ledger never carries any other kind.
type AuditEvent string

const (
	EventUserCreated             AuditEvent = "USER_CREATED"
	EventBountyPosted            AuditEvent = "BOUNTY_POSTED"
	EventSubmissionReceived      AuditEvent = "SUBMISSION_RECEIVED"
	EventWinnerSelected          AuditEvent = "WINNER_SELECTED"
	EventBountyPaymentMarkedPaid AuditEvent = "BOUNTY_PAYMENT_MARKED_PAID"
)

// AuditDetails is the payload of a ledger entry: either free text or a
// structured object, never both. It marshals to a bare JSON string or object
// so stored entries stay readable without a wrapper.
type AuditDetails struct {
	Text string
	Data map[string]any
}

// TextDetails wraps a narrative payload.
func TextDetails(text string) AuditDetails {
	return AuditDetails{Text: text}
}

// StructuredDetails wraps a structured payload.
func StructuredDetails(data map[string]any) AuditDetails {
	return AuditDetails{Data: data}
}

// IsStructured reports which variant the payload holds.
func (d AuditDetails) IsStructured() bool {
	return d.Data != nil
}

func (d AuditDetails) MarshalJSON() ([]byte, error) {
	if d.Data != nil {
		return json.Marshal(d.Data)
	}
	return json.Marshal(d.Text)
}

func (d *AuditDetails) UnmarshalJSON(raw []byte) error {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		*d = AuditDetails{Text: text}
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return err
	}
	*d = AuditDetails{Data: data}
	return nil
}

// AuditLogEntry is an immutable record of one state-changing action. ID and
// Timestamp are assigned by the ledger on append; timestamps are monotonically
// non-decreasing so an effect is never stamped before its cause.
// TargetBountyTitle and ActorDisplayName are snapshots taken at event time.
type AuditLogEntry struct {
	ID                 string
	Timestamp          time.Time
	EventType          AuditEvent
	ActorUserID        string
	ActorDisplayName   string
	TargetBountyID     *string
	TargetBountyTitle  *string
	TargetSubmissionID *string
	TargetUserID       *string
	Details            AuditDetails
}
