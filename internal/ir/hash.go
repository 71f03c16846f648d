package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration.
const (
	DomainDocument = "casewright/document/v1"
	DomainPatch    = "casewright/patch/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentHash computes the content-addressed hash of a document. Two
// documents hash equal exactly when they are deep-equal, which makes the
// hash usable as a cheap structural-equality check and as the revision-log
// identity.
func DocumentHash(doc *CaseIR) (string, error) {
	v, err := ToValue(doc)
	if err != nil {
		return "", fmt.Errorf("DocumentHash: %w", err)
	}
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("DocumentHash: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// PatchHash computes the content-addressed hash of a serialized operation
// batch, recorded alongside revisions for audit purposes. Operation values
// may contain null, so the key-sorted plain encoding is hashed rather than
// the strict canonical form.
func PatchHash(opsJSON []byte) (string, error) {
	v, err := DecodeValue(opsJSON)
	if err != nil {
		return "", fmt.Errorf("PatchHash: %w", err)
	}
	sorted, err := EncodeValue(v)
	if err != nil {
		return "", fmt.Errorf("PatchHash: %w", err)
	}
	return hashWithDomain(DomainPatch, sorted), nil
}

// MustDocumentHash is like DocumentHash but panics on error.
// Use only in tests or when the document is known to be valid.
func MustDocumentHash(doc *CaseIR) string {
	h, err := DocumentHash(doc)
	if err != nil {
		panic(err)
	}
	return h
}
