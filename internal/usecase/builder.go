package usecase

import (
	"github.com/nesafe/yatri"
	"github.com/nesafe/yatri/internal/domain"
)

// KYCData is the personal half of an onboarding submission.
type KYCData struct {
	FullName                string
	DocumentType            string
	DocumentNumber          string
	PhoneNumber             string
	EmailAddress            string
	EmergencyContact1Name   string
	EmergencyContact1Number string
	EmergencyContact2Name   string
	EmergencyContact2Number string
}

// TripData is the itinerary half of an onboarding submission.
type TripData struct {
	VisitPurpose         string
	FromDate             string
	ToDate               string
	SelectedDestinations []string
	TravelMode           string
}

// BuildRegistrationInput merges collected onboarding data into one
// registration payload. It copies fields verbatim; hashing belongs to the
// issuance log. The optional artifact is a captured document image
// reference.
func BuildRegistrationInput(kyc KYCData, trip TripData, artifact string) (yatri.RegistrationInput, error) {
	input := yatri.RegistrationInput{
		FullName:                kyc.FullName,
		DocumentType:            kyc.DocumentType,
		DocumentNumber:          kyc.DocumentNumber,
		PhoneNumber:             kyc.PhoneNumber,
		EmailAddress:            kyc.EmailAddress,
		EmergencyContact1Name:   kyc.EmergencyContact1Name,
		EmergencyContact1Number: kyc.EmergencyContact1Number,
		EmergencyContact2Name:   kyc.EmergencyContact2Name,
		EmergencyContact2Number: kyc.EmergencyContact2Number,
		VisitPurpose:            trip.VisitPurpose,
		FromDate:                trip.FromDate,
		ToDate:                  trip.ToDate,
		SelectedDestinations:    append([]string(nil), trip.SelectedDestinations...),
		TravelMode:              trip.TravelMode,
		DocumentImageRef:        artifact,
	}

	if err := ValidateRegistrationInput(input); err != nil {
		return yatri.RegistrationInput{}, err
	}
	return input, nil
}

// ValidateRegistrationInput checks the required KYC and trip fields.
func ValidateRegistrationInput(input yatri.RegistrationInput) error {
	required := []struct {
		field string
		value string
	}{
		{"fullName", input.FullName},
		{"documentNumber", input.DocumentNumber},
		{"phoneNumber", input.PhoneNumber},
		{"emailAddress", input.EmailAddress},
		{"emergencyContact1Name", input.EmergencyContact1Name},
		{"emergencyContact1Number", input.EmergencyContact1Number},
		{"fromDate", input.FromDate},
		{"toDate", input.ToDate},
		{"travelMode", input.TravelMode},
	}
	for _, r := range required {
		if r.value == "" {
			return domain.ValidationError{Field: r.field}
		}
	}
	if len(input.SelectedDestinations) == 0 {
		return domain.ValidationError{Field: "selectedDestinations"}
	}
	return nil
}
