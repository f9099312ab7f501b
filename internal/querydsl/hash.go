package querydsl

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows a future
// change of the canonical form without colliding with stored hashes.
const (
	DomainQuery = "qbdsl/query/v1"
	DomainTree  = "qbdsl/tree/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of a compiled query. The absent query
// (nil) hashes as JSON null, so every compilation result has a hash.
func Hash(c Clause) (string, error) {
	data, err := MarshalCanonical(c)
	if err != nil {
		return "", fmt.Errorf("canonical query: %w", err)
	}
	return hashWithDomain(DomainQuery, data), nil
}

// HashDocument returns the content hash of an arbitrary JSON document
// under the tree domain. Stores use it to key saved source trees.
func HashDocument(v any) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("canonical document: %w", err)
	}
	return hashWithDomain(DomainTree, data), nil
}

// MustHash is Hash for queries known to be serializable. It panics on error.
func MustHash(c Clause) string {
	h, err := Hash(c)
	if err != nil {
		panic(err)
	}
	return h
}
