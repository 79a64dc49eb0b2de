package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nesafe/yatri"
	"github.com/nesafe/yatri/internal/domain"
	"github.com/nesafe/yatri/internal/infrastructure/database/models"
)

// PostgresIssuanceLog is the durable issuance log. The append runs in one
// transaction with the counter row locked FOR UPDATE, which serializes
// sequence assignment across writers; hashing and the confirmation delay
// stay outside the transaction.
type PostgresIssuanceLog struct {
	db           *gorm.DB
	prefix       string
	confirmDelay time.Duration
}

func NewPostgresIssuanceLog(db *gorm.DB, prefix string, confirmDelay time.Duration) *PostgresIssuanceLog {
	return &PostgresIssuanceLog{db: db, prefix: prefix, confirmDelay: confirmDelay}
}

func (l *PostgresIssuanceLog) Issue(ctx context.Context, input yatri.RegistrationInput) (yatri.IssuanceReceipt, error) {
	ctx, span := tracer.Start(ctx, "Issuance.Postgres.Issue")
	defer span.End()

	touristID, err := yatri.NewTouristID(l.prefix, time.Now())
	if err != nil {
		span.RecordError(err)
		return yatri.IssuanceReceipt{}, domain.IssuanceError{Reason: "could not mint identifier"}
	}

	personalHash, err := yatri.PersonalDigest(input)
	if err != nil {
		span.RecordError(err)
		return yatri.IssuanceReceipt{}, domain.IssuanceError{Reason: "could not hash personal data"}
	}
	documentHash, err := yatri.DocumentDigest(input)
	if err != nil {
		span.RecordError(err)
		return yatri.IssuanceReceipt{}, domain.IssuanceError{Reason: "could not hash document data"}
	}

	transactionRef, err := yatri.NewTransactionRef()
	if err != nil {
		span.RecordError(err)
		return yatri.IssuanceReceipt{}, domain.IssuanceError{Reason: "could not derive transaction reference"}
	}

	destinations, err := json.Marshal(input.SelectedDestinations)
	if err != nil {
		span.RecordError(err)
		return yatri.IssuanceReceipt{}, domain.IssuanceError{Reason: "could not serialize destinations"}
	}

	if l.confirmDelay > 0 {
		timer := time.NewTimer(l.confirmDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return yatri.IssuanceReceipt{}, domain.IssuanceError{Reason: "confirmation timed out"}
		case <-timer.C:
		}
	}

	record := models.Identity{
		TouristID:        touristID,
		PersonalDataHash: personalHash,
		DocumentHash:     documentHash,
		Destinations:     string(destinations),
		TransactionRef:   transactionRef,
		Active:           true,
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var counter models.IssuanceCounter
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", 1).
			Take(&counter).Error
		if err == gorm.ErrRecordNotFound {
			counter = models.IssuanceCounter{ID: 1, Value: 0}
			if err := tx.Create(&counter).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		counter.Value++
		if err := tx.Save(&counter).Error; err != nil {
			return err
		}

		record.SequenceNumber = counter.Value
		record.IssuedAt = time.Now().UTC()

		return tx.Create(&record).Error
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "issuance append failed"))
		return yatri.IssuanceReceipt{}, domain.IssuanceError{Reason: "could not persist identity"}
	}

	return yatri.IssuanceReceipt{
		TouristID:      record.TouristID,
		TransactionRef: record.TransactionRef,
		SequenceNumber: record.SequenceNumber,
		IssuedAt:       record.IssuedAt,
	}, nil
}

func (l *PostgresIssuanceLog) Get(ctx context.Context, touristID string) (domain.TouristIdentity, error) {
	var record models.Identity
	err := l.db.WithContext(ctx).First(&record, "tourist_id = ?", touristID).Error
	if err == gorm.ErrRecordNotFound {
		return domain.TouristIdentity{}, domain.NotFoundError{Resource: "tourist identity"}
	}
	if err != nil {
		return domain.TouristIdentity{}, errors.Wrap(err, "identity lookup failed")
	}

	var destinations []string
	if err := json.Unmarshal([]byte(record.Destinations), &destinations); err != nil {
		return domain.TouristIdentity{}, errors.Wrap(err, "corrupt destinations column")
	}

	return domain.TouristIdentity{
		TouristID:        record.TouristID,
		PersonalDataHash: record.PersonalDataHash,
		DocumentHash:     record.DocumentHash,
		Destinations:     destinations,
		IssuedAt:         record.IssuedAt,
		TransactionRef:   record.TransactionRef,
		SequenceNumber:   record.SequenceNumber,
		Active:           record.Active,
	}, nil
}

func (l *PostgresIssuanceLog) SetActive(ctx context.Context, touristID string, active bool) error {
	result := l.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("tourist_id = ?", touristID).
		Update("active", active)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update active flag")
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "tourist identity"}
	}
	return nil
}
