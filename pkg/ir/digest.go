package ir

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

var canonicalCBOR cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	canonicalCBOR = em
}

// Digest returns a content digest of p: the BLAKE2b-256 hash of the
// canonical CBOR encoding of its document tree, hex encoded. Two policies
// with the same plans, functions and static pool have the same digest
// regardless of JSON whitespace or key order.
func Digest(p *Policy) (string, error) {
	doc, err := MarshalJSON(p)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	var tree any
	if err := jsonAPI.Unmarshal(doc, &tree); err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	enc, err := canonicalCBOR.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	sum := blake2b.Sum256(enc)
	return hex.EncodeToString(sum[:]), nil
}

// DigestBytes hashes a raw document. It is used to key decode caches before
// a document has been parsed.
func DigestBytes(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
