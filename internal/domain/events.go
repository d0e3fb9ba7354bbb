package domain

import (
	"encoding/json"
	"fmt"
)

// ClaimReceivedEvent is the claim.received payload: everything the async
// worker needs to audit a claim without a follow-up lookup.
type ClaimReceivedEvent struct {
	ClaimID     string         `json:"claimId"`
	TenantID    string         `json:"tenantId"`
	TraceID     string         `json:"traceId,omitempty"`
	InsurerCode InsurerCode    `json:"insurerCode"`
	Record      map[string]any `json:"record"`

	// Policy and Conditions enable the cross-reference stage.
	Policy     *PatientPolicy     `json:"policy,omitempty"`
	Conditions *GeneralConditions `json:"conditions,omitempty"`
}

// Encode serializes the event for publishing.
func (e *ClaimReceivedEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeClaimReceived parses a claim.received payload. An event without a
// record is rejected here so a malformed publish surfaces at the consumer
// instead of deep inside the pipeline.
func DecodeClaimReceived(payload []byte) (*ClaimReceivedEvent, error) {
	var e ClaimReceivedEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("malformed claim event payload: %w", err)
	}
	if len(e.Record) == 0 {
		return nil, fmt.Errorf("claim event has no record")
	}
	return &e, nil
}

// AuditCompletedEvent is the audit.completed and audit.alert payload. The
// identifiers and final score are lifted to the top level so alert consumers
// can route without unpacking the full audit.
type AuditCompletedEvent struct {
	AuditID    string `json:"auditId"`
	ClaimID    string `json:"claimId"`
	TenantID   string `json:"tenantId"`
	FinalScore int    `json:"finalScore"`
	Alert      bool   `json:"alert"`

	Audit *Audit `json:"audit"`
}

// NewAuditCompletedEvent builds the bus payload for a finished audit.
func NewAuditCompletedEvent(a *Audit, alert bool) *AuditCompletedEvent {
	return &AuditCompletedEvent{
		AuditID:    a.ID,
		ClaimID:    a.ClaimID,
		TenantID:   a.TenantID,
		FinalScore: a.FinalScore(),
		Alert:      alert,
		Audit:      a,
	}
}

// Encode serializes the event for publishing.
func (e *AuditCompletedEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeAuditCompleted parses an audit.completed or audit.alert payload.
func DecodeAuditCompleted(payload []byte) (*AuditCompletedEvent, error) {
	var e AuditCompletedEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("malformed audit event payload: %w", err)
	}
	return &e, nil
}
