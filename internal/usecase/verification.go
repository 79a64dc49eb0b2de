package usecase

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nesafe/yatri"
	"github.com/nesafe/yatri/internal/domain"
)

type VerificationUsecase struct {
	log IssuanceLog
}

func NewVerificationUsecase(log IssuanceLog) *VerificationUsecase {
	return &VerificationUsecase{log: log}
}

// Verify reports whether touristID names an active issued identity. A
// missing or deactivated record is a normal negative result, not an error;
// the error return is reserved for storage faults.
func (uc *VerificationUsecase) Verify(ctx context.Context, touristID string) (yatri.VerificationResult, error) {
	ctx, span := tracer.Start(ctx, "Verification.Usecase.Verify")
	defer span.End()

	identity, err := uc.log.Get(ctx, touristID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return yatri.VerificationResult{
				Valid:  false,
				Reason: yatri.ReasonNotFound,
			}, nil
		}
		span.RecordError(err)
		return yatri.VerificationResult{}, errors.Wrap(err, "identity lookup failed")
	}

	if !identity.Active {
		return yatri.VerificationResult{
			Valid:  false,
			Reason: yatri.ReasonInactive,
		}, nil
	}

	issuedAt := identity.IssuedAt
	return yatri.VerificationResult{
		Valid:            true,
		TouristID:        identity.TouristID,
		RegistrationTime: &issuedAt,
		Destinations:     identity.Destinations,
	}, nil
}
