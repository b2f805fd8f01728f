// Package events defines the JSON contracts for notification events published
// to Kafka. The module is dependency-free on purpose: downstream consumers can
// depend on it without pulling in the lifeline service tree.
package events

import (
	"encoding/json"
	"time"
)

// Topic is the Kafka topic all notification events are published to.
const Topic = "lifeline.notifications"

// Event kinds. The envelope's Kind field selects the payload type.
const (
	KindMatchFound            = "match_found"
	KindRequestBroadcast      = "request_broadcast"
	KindMilestone             = "milestone"
	KindDonationStatusChanged = "donation_status_changed"
	KindRequestCancelled      = "request_cancelled"
)

// Envelope wraps every published event. ID doubles as the Kafka message key so
// redeliveries stay idempotent on the consumer side.
type Envelope struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// MatchFound is emitted when a donor commits to a request. The owning
// hospital's user is the recipient.
type MatchFound struct {
	HospitalUserID string `json:"hospital_user_id"`
	DonorID        string `json:"donor_id"`
	DonorName      string `json:"donor_name,omitempty"`
	DonationID     string `json:"donation_id"`
	RequestID      string `json:"request_id"`
	BloodType      string `json:"blood_type,omitempty"`
	Quantity       int    `json:"quantity"`
}

// RequestBroadcast is emitted when a hospital opens a request; the listed
// donors are the top-ranked candidates at creation time.
type RequestBroadcast struct {
	DonorIDs     []string  `json:"donor_ids"`
	RequestID    string    `json:"request_id"`
	HospitalName string    `json:"hospital_name,omitempty"`
	RequestKind  string    `json:"request_kind"`
	BloodType    string    `json:"blood_type,omitempty"`
	OrganType    string    `json:"organ_type,omitempty"`
	Urgency      string    `json:"urgency"`
	RequiredBy   time.Time `json:"required_by"`
}

// Milestone is emitted when a user crosses an achievement threshold.
type Milestone struct {
	UserID        string `json:"user_id"`
	Achievement   string `json:"achievement"`
	DonationCount int    `json:"donation_count,omitempty"`
}

// DonationStatusChanged is emitted on every donation lifecycle transition.
// Both the donor and the hospital user receive it.
type DonationStatusChanged struct {
	DonationID     string `json:"donation_id"`
	RequestID      string `json:"request_id"`
	DonorID        string `json:"donor_id"`
	HospitalUserID string `json:"hospital_user_id"`
	OldStatus      string `json:"old_status"`
	NewStatus      string `json:"new_status"`
}

// RequestCancelled is emitted after a request cancellation cascades; DonorIDs
// are the donors whose donations were cancelled with it.
type RequestCancelled struct {
	RequestID      string   `json:"request_id"`
	HospitalUserID string   `json:"hospital_user_id"`
	DonorIDs       []string `json:"donor_ids,omitempty"`
}
