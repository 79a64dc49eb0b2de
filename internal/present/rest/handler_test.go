package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nesafe/yatri"
	"github.com/nesafe/yatri/internal/config"
	"github.com/nesafe/yatri/internal/domain"
	"github.com/nesafe/yatri/internal/infrastructure/repository"
	"github.com/nesafe/yatri/internal/service"
	"github.com/nesafe/yatri/internal/usecase"
)

func newTestServer(t *testing.T) (*echo.Echo, *usecase.RegistrationUsecase) {
	t.Helper()

	log := repository.NewMemoryIssuanceLog("NE", 0)
	encoder := service.NewCredentialService("https://registry.example", nil)
	registration := usecase.NewRegistrationUsecase(log, encoder, nil, time.Second)
	verification := usecase.NewVerificationUsecase(log)

	h := NewHandler(config.Issuer{Network: "Polygon"}, registration, verification, nil)

	e := echo.New()
	h.RegisterRoutes(e)
	return e, registration
}

func registerBody() []byte {
	body, _ := json.Marshal(yatri.RegistrationInput{
		FullName:                "Asha Rao",
		DocumentType:            "Passport",
		DocumentNumber:          "P1234567",
		PhoneNumber:             "9999999999",
		EmailAddress:            "a@x.com",
		EmergencyContact1Name:   "Bo",
		EmergencyContact1Number: "8888888888",
		VisitPurpose:            "tourism",
		FromDate:                "2025-01-01",
		ToDate:                  "2025-01-10",
		SelectedDestinations:    []string{"guwahati", "shillong"},
		TravelMode:              "solo",
	})
	return body
}

func doRegister(e *echo.Echo, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/register", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	return res
}

func TestRegisterVerifyRoundtrip(t *testing.T) {
	e, _ := newTestServer(t)

	res := doRegister(e, registerBody(), nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}

	var reg yatri.RegisterResponse
	if err := json.Unmarshal(res.Body.Bytes(), &reg); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if !reg.Success {
		t.Fatalf("expected success: %s", res.Body.String())
	}
	if !regexp.MustCompile(`^NE-[0-9A-Z]+-[0-9A-F]{8}$`).MatchString(reg.TouristID) {
		t.Fatalf("unexpected tourist id: %s", reg.TouristID)
	}
	if !regexp.MustCompile(`^0x[0-9a-f]{64}$`).MatchString(reg.TransactionHash) {
		t.Fatalf("unexpected transaction hash: %s", reg.TransactionHash)
	}
	if !strings.HasPrefix(reg.QRCode, "data:image/png;base64,") {
		t.Fatalf("expected QR data URL")
	}
	if reg.DigitalID == nil || reg.DigitalID.ID != reg.TouristID || !reg.DigitalID.Verified || reg.DigitalID.Network != "Polygon" {
		t.Fatalf("unexpected digital id: %+v", reg.DigitalID)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verify/"+reg.TouristID, nil)
	vres := httptest.NewRecorder()
	e.ServeHTTP(vres, req)

	if vres.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", vres.Code)
	}
	var verify yatri.VerificationResult
	if err := json.Unmarshal(vres.Body.Bytes(), &verify); err != nil {
		t.Fatalf("bad verify response: %v", err)
	}
	if !verify.Valid || verify.TouristID != reg.TouristID {
		t.Fatalf("expected valid verification: %+v", verify)
	}
	if len(verify.Destinations) != 2 || verify.Destinations[0] != "guwahati" || verify.Destinations[1] != "shillong" {
		t.Fatalf("destinations not preserved: %v", verify.Destinations)
	}
	if verify.RegistrationTime == nil {
		t.Fatalf("expected registration time")
	}
}

func TestRegisterMissingFieldRejected(t *testing.T) {
	e, _ := newTestServer(t)

	var input yatri.RegistrationInput
	_ = json.Unmarshal(registerBody(), &input)
	input.FullName = ""
	body, _ := json.Marshal(input)

	res := doRegister(e, body, nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}

	var reg yatri.RegisterResponse
	_ = json.Unmarshal(res.Body.Bytes(), &reg)
	if reg.Success || !strings.Contains(reg.Error, "fullName") {
		t.Fatalf("expected field-level error: %s", res.Body.String())
	}
	if reg.TouristID != "" || reg.QRCode != "" || reg.DigitalID != nil {
		t.Fatalf("failure response must not carry partial fields: %s", res.Body.String())
	}
}

func TestVerifyUnknownID(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verify/NONEXISTENT-ID", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.Code)
	}
	var verify yatri.VerificationResult
	_ = json.Unmarshal(res.Body.Bytes(), &verify)
	if verify.Valid || verify.Reason != yatri.ReasonNotFound {
		t.Fatalf("expected not_found: %s", res.Body.String())
	}
}

func TestVerifyInactiveID(t *testing.T) {
	e, registration := newTestServer(t)

	res := doRegister(e, registerBody(), nil)
	var reg yatri.RegisterResponse
	_ = json.Unmarshal(res.Body.Bytes(), &reg)

	if err := registration.Deactivate(context.Background(), reg.TouristID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verify/"+reg.TouristID, nil)
	vres := httptest.NewRecorder()
	e.ServeHTTP(vres, req)

	if vres.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", vres.Code)
	}
	var verify yatri.VerificationResult
	_ = json.Unmarshal(vres.Body.Bytes(), &verify)
	if verify.Valid || verify.Reason != yatri.ReasonInactive {
		t.Fatalf("expected inactive: %s", vres.Body.String())
	}
}

func TestRegisterIdempotencyReplay(t *testing.T) {
	e, _ := newTestServer(t)

	header := map[string]string{"Idempotency-Key": "booking-42"}
	first := doRegister(e, registerBody(), header)
	second := doRegister(e, registerBody(), header)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected 200s, got %d and %d", first.Code, second.Code)
	}

	var a, b yatri.RegisterResponse
	_ = json.Unmarshal(first.Body.Bytes(), &a)
	_ = json.Unmarshal(second.Body.Bytes(), &b)
	if a.TouristID != b.TouristID {
		t.Fatalf("replay minted a second identity: %s vs %s", a.TouristID, b.TouristID)
	}

	// without the header every retry mints a fresh id
	third := doRegister(e, registerBody(), nil)
	var c yatri.RegisterResponse
	_ = json.Unmarshal(third.Body.Bytes(), &c)
	if c.TouristID == a.TouristID {
		t.Fatalf("expected a fresh id without an idempotency key")
	}
}

type failingLog struct{}

func (f *failingLog) Issue(ctx context.Context, input yatri.RegistrationInput) (yatri.IssuanceReceipt, error) {
	return yatri.IssuanceReceipt{}, domain.IssuanceError{Reason: "append failed"}
}
func (f *failingLog) Get(ctx context.Context, touristID string) (domain.TouristIdentity, error) {
	return domain.TouristIdentity{}, domain.NotFoundError{Resource: "tourist identity"}
}
func (f *failingLog) SetActive(ctx context.Context, touristID string, active bool) error {
	return domain.NotFoundError{Resource: "tourist identity"}
}

func TestRegisterIssuanceFaultCommitsNothing(t *testing.T) {
	log := &failingLog{}
	encoder := service.NewCredentialService("https://registry.example", nil)
	registration := usecase.NewRegistrationUsecase(log, encoder, nil, time.Second)
	verification := usecase.NewVerificationUsecase(log)
	h := NewHandler(config.Issuer{Network: "Polygon"}, registration, verification, nil)

	e := echo.New()
	h.RegisterRoutes(e)

	res := doRegister(e, registerBody(), nil)
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", res.Code)
	}
	var reg yatri.RegisterResponse
	_ = json.Unmarshal(res.Body.Bytes(), &reg)
	if reg.Success || reg.TouristID != "" {
		t.Fatalf("failed issuance must not return an id: %s", res.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verify/NE-MFJ0ABCD-12AB34CD", nil)
	vres := httptest.NewRecorder()
	e.ServeHTTP(vres, req)
	if vres.Code != http.StatusNotFound {
		t.Fatalf("nothing should be committed after a failed issuance, got %d", vres.Code)
	}
}

func TestCredentialReEncodeEndpoint(t *testing.T) {
	e, _ := newTestServer(t)

	res := doRegister(e, registerBody(), nil)
	var reg yatri.RegisterResponse
	_ = json.Unmarshal(res.Body.Bytes(), &reg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credential/"+reg.TouristID, nil)
	cres := httptest.NewRecorder()
	e.ServeHTTP(cres, req)

	if cres.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", cres.Code, cres.Body.String())
	}
	var body struct {
		TouristID string `json:"touristId"`
		QRCode    string `json:"qrCode"`
	}
	if err := json.Unmarshal(cres.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if body.TouristID != reg.TouristID || !strings.HasPrefix(body.QRCode, "data:image/png;base64,") {
		t.Fatalf("unexpected credential response: %s", cres.Body.String())
	}
}

func TestCredentialUnknownAndMalformedID(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credential/NE-MFJ0ABCD-12AB34CD", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/credential/not-an-id", nil)
	res = httptest.NewRecorder()
	e.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", res.Code)
	}
}

func TestWellKnown(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/yatri", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
	var wk yatri.WellKnownYatri
	if err := json.Unmarshal(res.Body.Bytes(), &wk); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if wk.Network != "Polygon" || wk.Endpoints["in.yatri.register"] != "/api/v1/register" {
		t.Fatalf("unexpected descriptor: %+v", wk)
	}
}
