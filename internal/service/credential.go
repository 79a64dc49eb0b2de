package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
	"go.opentelemetry.io/otel"

	"github.com/nesafe/yatri"
	"github.com/nesafe/yatri/internal/domain"
)

var tracer = otel.Tracer("service")

// qr byte capacity at medium recovery, version 40
const maxPayloadBytes = 2331

const (
	qrImageSize   = 256
	cacheTTL      = 600 // seconds
	cacheKeySpace = "credential:"
)

// CredentialService renders issuance receipts into QR credentials. The
// payload JSON is deterministic for identical receipts; the rendered PNG is
// cached in memcached when a client is configured.
type CredentialService struct {
	verifyBaseURL string
	mc            *memcache.Client // optional
}

func NewCredentialService(verifyBaseURL string, mc *memcache.Client) *CredentialService {
	return &CredentialService{verifyBaseURL: verifyBaseURL, mc: mc}
}

func (s *CredentialService) Encode(ctx context.Context, receipt yatri.IssuanceReceipt) (yatri.Credential, error) {
	_, span := tracer.Start(ctx, "Credential.Service.Encode")
	defer span.End()

	payload, err := json.Marshal(yatri.CredentialPayload{
		TouristID:      receipt.TouristID,
		TransactionRef: receipt.TransactionRef,
		SequenceNumber: receipt.SequenceNumber,
		IssuedAt:       receipt.IssuedAt,
		VerifyURL:      yatri.ComposeVerifyURL(s.verifyBaseURL, receipt.TouristID),
	})
	if err != nil {
		span.RecordError(err)
		return yatri.Credential{}, errors.Wrap(err, "failed to marshal credential payload")
	}

	if len(payload) > maxPayloadBytes {
		err := domain.EncodingError{Reason: "payload exceeds code capacity"}
		span.RecordError(err)
		return yatri.Credential{}, err
	}

	if cached, ok := s.cacheGet(receipt.TouristID); ok {
		return yatri.Credential{Payload: payload, QRCode: cached}, nil
	}

	code, err := qrcode.New(string(payload), qrcode.Medium)
	if err != nil {
		span.RecordError(err)
		return yatri.Credential{}, domain.EncodingError{Reason: "payload exceeds code capacity"}
	}

	png, err := code.PNG(qrImageSize)
	if err != nil {
		span.RecordError(err)
		return yatri.Credential{}, domain.EncodingError{Reason: "could not render code image"}
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	s.cacheSet(receipt.TouristID, dataURL)

	return yatri.Credential{Payload: payload, QRCode: dataURL}, nil
}

func (s *CredentialService) cacheGet(touristID string) (string, bool) {
	if s.mc == nil {
		return "", false
	}
	item, err := s.mc.Get(cacheKeySpace + touristID)
	if err != nil {
		if err != memcache.ErrCacheMiss {
			slog.Debug("credential cache lookup failed",
				slog.String("error", err.Error()),
				slog.String("module", "credential"),
			)
		}
		return "", false
	}
	return string(item.Value), true
}

func (s *CredentialService) cacheSet(touristID, dataURL string) {
	if s.mc == nil {
		return
	}
	err := s.mc.Set(&memcache.Item{
		Key:        cacheKeySpace + touristID,
		Value:      []byte(dataURL),
		Expiration: cacheTTL,
	})
	if err != nil {
		slog.Debug("credential cache store failed",
			slog.String("error", err.Error()),
			slog.String("module", "credential"),
		)
	}
}
