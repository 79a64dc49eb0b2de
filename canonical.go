package yatri

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// CanonicalJSON serializes a flat field map with lexicographically sorted
// keys, so the same fields always produce the same bytes regardless of how
// the map was built.
func CanonicalJSON(fields map[string]string) ([]byte, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(fields[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Digest returns the 0x-prefixed hex SHA-256 of the canonical serialization.
func Digest(fields map[string]string) (string, error) {
	canonical, err := CanonicalJSON(fields)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return "0x" + hex.EncodeToString(sum[:]), nil
}

// PersonalDigest hashes the personal-field subset of a registration. Only
// this digest reaches the durable log, never the raw fields.
func PersonalDigest(input RegistrationInput) (string, error) {
	return Digest(map[string]string{
		"name":  input.FullName,
		"email": input.EmailAddress,
		"phone": input.PhoneNumber,
	})
}

// DocumentDigest hashes the identity-document subset of a registration.
func DocumentDigest(input RegistrationInput) (string, error) {
	return Digest(map[string]string{
		"type":   input.DocumentType,
		"number": input.DocumentNumber,
	})
}
