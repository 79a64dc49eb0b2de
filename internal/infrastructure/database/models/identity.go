package models

import "time"

// Identity is the persisted issuance-log entry. Destinations are stored as
// a JSON array string; everything personal is digest-only.
type Identity struct {
	TouristID        string    `gorm:"primaryKey;type:text"`
	PersonalDataHash string    `gorm:"type:text;not null"`
	DocumentHash     string    `gorm:"type:text;not null"`
	Destinations     string    `gorm:"type:json;not null"`
	IssuedAt         time.Time `gorm:"not null"`
	TransactionRef   string    `gorm:"type:text;not null"`
	SequenceNumber   int64     `gorm:"uniqueIndex;not null"`
	Active           bool      `gorm:"not null;default:true"`
}

// IssuanceCounter is the single-row sequence source, locked FOR UPDATE
// inside each append transaction.
type IssuanceCounter struct {
	ID    int   `gorm:"primaryKey"`
	Value int64 `gorm:"not null"`
}
