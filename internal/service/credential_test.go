package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nesafe/yatri"
	"github.com/nesafe/yatri/internal/domain"
)

func sampleReceipt() yatri.IssuanceReceipt {
	return yatri.IssuanceReceipt{
		TouristID:      "NE-MFJ0ABCD-12AB34CD",
		TransactionRef: "0x" + strings.Repeat("ab", 32),
		SequenceNumber: 42,
		IssuedAt:       time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEncodePayloadDeterministic(t *testing.T) {
	svc := NewCredentialService("https://registry.example", nil)

	first, err := svc.Encode(context.Background(), sampleReceipt())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	second, err := svc.Encode(context.Background(), sampleReceipt())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if !bytes.Equal(first.Payload, second.Payload) {
		t.Fatalf("payload not deterministic:\n%s\n%s", first.Payload, second.Payload)
	}
}

func TestEncodePayloadContents(t *testing.T) {
	svc := NewCredentialService("https://registry.example", nil)

	credential, err := svc.Encode(context.Background(), sampleReceipt())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var payload yatri.CredentialPayload
	if err := json.Unmarshal(credential.Payload, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload.TouristID != "NE-MFJ0ABCD-12AB34CD" || payload.SequenceNumber != 42 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.VerifyURL != "https://registry.example/api/v1/verify/NE-MFJ0ABCD-12AB34CD" {
		t.Fatalf("unexpected verify url: %s", payload.VerifyURL)
	}

	if !strings.HasPrefix(credential.QRCode, "data:image/png;base64,") {
		t.Fatalf("expected PNG data URL, got %.40s", credential.QRCode)
	}
}

func TestEncodeCapacityBoundary(t *testing.T) {
	// a base URL long enough to push the payload past QR capacity
	svc := NewCredentialService("https://"+strings.Repeat("x", 4000)+".example", nil)

	_, err := svc.Encode(context.Background(), sampleReceipt())
	if !errors.Is(err, domain.ErrEncoding) {
		t.Fatalf("expected encoding error, got %v", err)
	}
}
