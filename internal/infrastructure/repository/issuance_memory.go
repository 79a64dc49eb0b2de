package repository

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/nesafe/yatri"
	"github.com/nesafe/yatri/internal/domain"
)

var tracer = otel.Tracer("repository")

// MemoryIssuanceLog is the in-process issuance log: a mutex-guarded map
// plus a monotonic counter. Identifier minting, hashing, and the simulated
// confirmation delay all happen outside the lock; only the counter bump
// and the append hold it, so concurrent issuances are not serialized for
// the full confirmation time.
type MemoryIssuanceLog struct {
	mu      sync.RWMutex
	records map[string]domain.TouristIdentity
	seq     int64

	prefix       string
	confirmDelay time.Duration

	// test fault injection, runs inside the append critical section
	appendHook func() error
}

func NewMemoryIssuanceLog(prefix string, confirmDelay time.Duration) *MemoryIssuanceLog {
	return &MemoryIssuanceLog{
		records:      make(map[string]domain.TouristIdentity),
		prefix:       prefix,
		confirmDelay: confirmDelay,
	}
}

func (l *MemoryIssuanceLog) Issue(ctx context.Context, input yatri.RegistrationInput) (yatri.IssuanceReceipt, error) {
	ctx, span := tracer.Start(ctx, "Issuance.Memory.Issue")
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

	// Confirmation delay before anything becomes visible: a timeout here
	// commits nothing.
	if err := l.awaitConfirmation(ctx); err != nil {
		span.RecordError(err)
		return yatri.IssuanceReceipt{}, err
	}

	identity := domain.TouristIdentity{
		TouristID:        touristID,
		PersonalDataHash: personalHash,
		DocumentHash:     documentHash,
		Destinations:     append([]string(nil), input.SelectedDestinations...),
		TransactionRef:   transactionRef,
		Active:           true,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.appendHook != nil {
		if err := l.appendHook(); err != nil {
			span.RecordError(err)
			return yatri.IssuanceReceipt{}, domain.IssuanceError{Reason: "append failed"}
		}
	}

	// same-millisecond suffix collision: mint again rather than overwrite
	for {
		if _, taken := l.records[identity.TouristID]; !taken {
			break
		}
		remint, err := yatri.NewTouristID(l.prefix, time.Now())
		if err != nil {
			return yatri.IssuanceReceipt{}, domain.IssuanceError{Reason: "could not mint identifier"}
		}
		identity.TouristID = remint
	}

	l.seq++
	identity.SequenceNumber = l.seq
	identity.IssuedAt = time.Now().UTC()
	l.records[identity.TouristID] = identity

	return yatri.IssuanceReceipt{
		TouristID:      identity.TouristID,
		TransactionRef: identity.TransactionRef,
		SequenceNumber: identity.SequenceNumber,
		IssuedAt:       identity.IssuedAt,
	}, nil
}

func (l *MemoryIssuanceLog) Get(ctx context.Context, touristID string) (domain.TouristIdentity, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	identity, ok := l.records[touristID]
	if !ok {
		return domain.TouristIdentity{}, domain.NotFoundError{Resource: "tourist identity"}
	}
	identity.Destinations = append([]string(nil), identity.Destinations...)
	return identity, nil
}

func (l *MemoryIssuanceLog) SetActive(ctx context.Context, touristID string, active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	identity, ok := l.records[touristID]
	if !ok {
		return domain.NotFoundError{Resource: "tourist identity"}
	}
	identity.Active = active
	l.records[touristID] = identity
	return nil
}

func (l *MemoryIssuanceLog) awaitConfirmation(ctx context.Context) error {
	if l.confirmDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(l.confirmDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return domain.IssuanceError{Reason: "confirmation timed out"}
	case <-timer.C:
		return nil
	}
}
