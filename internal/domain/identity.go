package domain

import "time"

// TouristIdentity is the durable record held by the issuance log. Raw
// personal data never appears here; the destinations list is the only
// plaintext field verification needs.
type TouristIdentity struct {
	TouristID        string
	PersonalDataHash string
	DocumentHash     string
	Destinations     []string
	IssuedAt         time.Time
	TransactionRef   string
	SequenceNumber   int64
	Active           bool
}
