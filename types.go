package yatri

import (
	"time"
)

// RegistrationInput is the fully assembled onboarding payload submitted by
// the client. How the caller accumulated it (multi-step form storage etc.)
// is not this service's concern; it is consumed once and never persisted
// as-is.
type RegistrationInput struct {
	FullName       string `json:"fullName"`
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
	PhoneNumber    string `json:"phoneNumber"`
	EmailAddress   string `json:"emailAddress"`

	EmergencyContact1Name   string `json:"emergencyContact1Name"`
	EmergencyContact1Number string `json:"emergencyContact1Number"`
	EmergencyContact2Name   string `json:"emergencyContact2Name,omitempty"`
	EmergencyContact2Number string `json:"emergencyContact2Number,omitempty"`

	VisitPurpose         string   `json:"visitPurpose"`
	FromDate             string   `json:"fromDate"`
	ToDate               string   `json:"toDate"`
	SelectedDestinations []string `json:"selectedDestinations"`
	TravelMode           string   `json:"travelMode"`

	// Optional reference to a captured document image.
	DocumentImageRef string `json:"documentImageRef,omitempty"`
}

// IssuanceReceipt is the proof-of-issuance returned by the issuance log.
type IssuanceReceipt struct {
	TouristID      string    `json:"touristId"`
	TransactionRef string    `json:"transactionRef"`
	SequenceNumber int64     `json:"sequenceNumber"`
	IssuedAt       time.Time `json:"issuedAt"`
}

// CredentialPayload is the JSON embedded in the QR code. It is a derived
// view of an issued identity and never a source of truth.
type CredentialPayload struct {
	TouristID      string    `json:"touristId"`
	TransactionRef string    `json:"transactionRef"`
	SequenceNumber int64     `json:"sequenceNumber"`
	IssuedAt       time.Time `json:"issuedAt"`
	VerifyURL      string    `json:"verifyUrl"`
}

// Credential bundles the deterministic payload with its rendered QR image.
type Credential struct {
	Payload []byte `json:"payload"`
	QRCode  string `json:"qrCode"` // PNG data URL
}

type DigitalID struct {
	ID        string    `json:"id"`
	Network   string    `json:"blockchain"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisterResponse is the client-facing shape of POST /api/v1/register.
type RegisterResponse struct {
	Success         bool       `json:"success"`
	TouristID       string     `json:"touristId,omitempty"`
	TransactionHash string     `json:"transactionHash,omitempty"`
	QRCode          string     `json:"qrCode,omitempty"`
	DigitalID       *DigitalID `json:"digitalId,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// Verification reasons for negative results.
const (
	ReasonNotFound = "not_found"
	ReasonInactive = "inactive"
)

// VerificationResult is both the verification service output and the wire
// shape of GET /api/v1/verify/:touristId.
type VerificationResult struct {
	Valid            bool       `json:"valid"`
	TouristID        string     `json:"touristId,omitempty"`
	RegistrationTime *time.Time `json:"registrationTime,omitempty"`
	Destinations     []string   `json:"destinations,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	Error            string     `json:"error,omitempty"`
}

// IssueEvent is published on every successful issuance and fanned out to
// realtime subscribers.
type IssueEvent struct {
	TouristID      string    `json:"touristId"`
	SequenceNumber int64     `json:"sequenceNumber"`
	IssuedAt       time.Time `json:"issuedAt"`
}

type WellKnownYatri struct {
	Version   string            `json:"version"`
	Network   string            `json:"network"`
	Endpoints map[string]string `json:"endpoints"`
}
