package attr

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainAttribute prefixes attribute content hashes.
// The version suffix allows a future algorithm migration.
const DomainAttribute = "lowering/attr/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content-addressed identity of an attribute.
// Structurally equal attributes always hash the same.
func Hash(a Attribute) (string, error) {
	canonical, err := MarshalCanonical(a)
	if err != nil {
		return "", fmt.Errorf("Hash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainAttribute, canonical), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when the attribute is known to be serializable.
func MustHash(a Attribute) string {
	h, err := Hash(a)
	if err != nil {
		panic(err)
	}
	return h
}

// Equal reports whether a and b are structurally equal. Two absent (nil)
// attributes are equal; an absent and a present one are not.
func Equal(a, b Attribute) bool {
	if isAbsent(a) || isAbsent(b) {
		return isAbsent(a) && isAbsent(b)
	}
	ca, errA := MarshalCanonical(a)
	cb, errB := MarshalCanonical(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

func isAbsent(a Attribute) bool {
	if a == nil {
		return true
	}
	arr, ok := a.(ArrayAttr)
	return ok && arr == nil
}
