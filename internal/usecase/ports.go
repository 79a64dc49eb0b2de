package usecase

import (
	"context"

	"github.com/nesafe/yatri"
	"github.com/nesafe/yatri/internal/domain"
)

// IssuanceLog is the append-only store of tourist identities. It is the
// single writer for identifiers and sequence numbers; implementations must
// serialize appends so sequence numbers stay strictly increasing and
// gapless.
type IssuanceLog interface {
	Issue(ctx context.Context, input yatri.RegistrationInput) (yatri.IssuanceReceipt, error)
	Get(ctx context.Context, touristID string) (domain.TouristIdentity, error)
	// SetActive is the administrative deactivation extension point. No
	// public route exposes it.
	SetActive(ctx context.Context, touristID string, active bool) error
}

// CredentialEncoder renders an issuance receipt into a scannable
// credential.
type CredentialEncoder interface {
	Encode(ctx context.Context, receipt yatri.IssuanceReceipt) (yatri.Credential, error)
}

// EventPublisher fans successful issuances out to subscribers.
type EventPublisher interface {
	PublishIssue(ctx context.Context, event yatri.IssueEvent) error
}
