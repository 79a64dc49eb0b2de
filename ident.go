package yatri

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultIDPrefix marks identities issued for the northeast region.
const DefaultIDPrefix = "NE"

const idSuffixBytes = 4

// NewTouristID mints an identifier of the form <PREFIX>-<base36 ms
// timestamp>-<hex suffix>, uppercased. The timestamp keeps ids sortable by
// issuance time; the random suffix keeps same-millisecond issuances apart.
func NewTouristID(prefix string, now time.Time) (string, error) {
	if prefix == "" {
		prefix = DefaultIDPrefix
	}
	suffix := make([]byte, idSuffixBytes)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to read entropy: %v", err)
	}
	ts := strconv.FormatInt(now.UnixMilli(), 36)
	id := fmt.Sprintf("%s-%s-%s", prefix, ts, hex.EncodeToString(suffix))
	return strings.ToUpper(id), nil
}

// IsTouristID reports whether s has the shape of an issued identifier.
// It does not consult the log; use verification for that.
func IsTouristID(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return false
	}
	if parts[0] == "" || len(parts[1]) == 0 || len(parts[2]) != idSuffixBytes*2 {
		return false
	}
	if _, err := strconv.ParseInt(strings.ToLower(parts[1]), 36, 64); err != nil {
		return false
	}
	if _, err := hex.DecodeString(strings.ToLower(parts[2])); err != nil {
		return false
	}
	return s == strings.ToUpper(s)
}

// NewTransactionRef returns a 32-byte pseudo-random reference, 0x-prefixed.
// It stands in for a ledger transaction hash.
func NewTransactionRef() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read entropy: %v", err)
	}
	return "0x" + hex.EncodeToString(buf), nil
}

// ComposeVerifyURL builds the public verification URL embedded in
// credentials.
func ComposeVerifyURL(base, touristID string) string {
	return strings.TrimSuffix(base, "/") + "/api/v1/verify/" + touristID
}
