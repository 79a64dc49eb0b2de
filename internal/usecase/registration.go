package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/nesafe/yatri"
)

var tracer = otel.Tracer("usecase")

// RegisterResult is everything a successful registration produces.
type RegisterResult struct {
	Receipt    yatri.IssuanceReceipt
	Credential yatri.Credential
}

type RegistrationUsecase struct {
	log     IssuanceLog
	encoder CredentialEncoder
	signal  EventPublisher // optional
	timeout time.Duration
}

func NewRegistrationUsecase(
	log IssuanceLog,
	encoder CredentialEncoder,
	signal EventPublisher,
	timeout time.Duration,
) *RegistrationUsecase {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RegistrationUsecase{
		log:     log,
		encoder: encoder,
		signal:  signal,
		timeout: timeout,
	}
}

// Register validates the input, appends exactly one identity to the
// issuance log, and encodes the credential. A validation or issuance
// failure commits nothing; an encoding failure leaves the issued record in
// place so callers re-encode rather than re-issue.
func (uc *RegistrationUsecase) Register(ctx context.Context, input yatri.RegistrationInput) (RegisterResult, error) {
	ctx, span := tracer.Start(ctx, "Registration.Usecase.Register")
	defer span.End()

	if err := ValidateRegistrationInput(input); err != nil {
		span.RecordError(err)
		return RegisterResult{}, err
	}

	issueCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	receipt, err := uc.log.Issue(issueCtx, input)
	if err != nil {
		span.RecordError(err)
		return RegisterResult{}, err
	}

	credential, err := uc.encoder.Encode(ctx, receipt)
	if err != nil {
		span.RecordError(errors.Wrap(err, "credential encoding failed after issuance"))
		return RegisterResult{}, err
	}

	if uc.signal != nil {
		event := yatri.IssueEvent{
			TouristID:      receipt.TouristID,
			SequenceNumber: receipt.SequenceNumber,
			IssuedAt:       receipt.IssuedAt,
		}
		if err := uc.signal.PublishIssue(ctx, event); err != nil {
			// fan-out is best effort, the record is already durable
			slog.WarnContext(ctx, "failed to publish issue event",
				slog.String("error", err.Error()),
				slog.String("module", "registration"),
			)
		}
	}

	return RegisterResult{Receipt: receipt, Credential: credential}, nil
}

// Credential re-encodes the credential for an already issued identity.
func (uc *RegistrationUsecase) Credential(ctx context.Context, touristID string) (yatri.Credential, error) {
	ctx, span := tracer.Start(ctx, "Registration.Usecase.Credential")
	defer span.End()

	identity, err := uc.log.Get(ctx, touristID)
	if err != nil {
		span.RecordError(err)
		return yatri.Credential{}, err
	}

	receipt := yatri.IssuanceReceipt{
		TouristID:      identity.TouristID,
		TransactionRef: identity.TransactionRef,
		SequenceNumber: identity.SequenceNumber,
		IssuedAt:       identity.IssuedAt,
	}

	return uc.encoder.Encode(ctx, receipt)
}

// Deactivate flips the active flag. Administrative use only; nothing in
// the public API calls this.
func (uc *RegistrationUsecase) Deactivate(ctx context.Context, touristID string) error {
	if err := uc.log.SetActive(ctx, touristID, false); err != nil {
		return errors.Wrap(err, "failed to deactivate identity")
	}
	return nil
}
