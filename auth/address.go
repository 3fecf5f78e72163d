/*
Package auth binds vault addresses to ed25519 keys and checks that an
invocation carries a proof from the account it acts for.

ADDRESSES:
  An address is "vault1" followed by the base58 encoding of the blake2b-256
  digest of the account's ed25519 public key. Anyone holding the public key
  can recompute it; only the private key holder can sign for it.

REQUEST SIGNATURES:
  HTTP clients sign every mutating request:

    METHOD \n PATH \n TIMESTAMP \n BODY

  and send the public key, unix timestamp and signature (both keys and
  signatures base58) in X-Vault-Public-Key, X-Vault-Timestamp and
  X-Vault-Signature. VerifyRequest checks the signature and the timestamp
  window and returns the signer's address, which the api middleware stores
  in the request context.

AUTHENTICATORS:
  Context    signer recorded in the context must equal the account
  Static     fixed set of accounts that always authenticate (tests, tools)

SEE ALSO:
  - generic/auth.go: Authenticator contract
  - api/middleware.go: Header parsing
*/
package auth

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/warp/asset-vault/generic"
)

// AddressPrefix starts every address derived from a public key.
const AddressPrefix = "vault1"

// AddressFromPublicKey derives the vault address of pub.
func AddressFromPublicKey(pub ed25519.PublicKey) (generic.Address, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("invalid public key size: %d", len(pub))
	}
	h := blake2b.Sum256(pub)
	return generic.Address(AddressPrefix + base58.Encode(h[:])), nil
}

// VerifyAddress reports whether addr was derived from pub.
func VerifyAddress(addr generic.Address, pub ed25519.PublicKey) bool {
	expected, err := AddressFromPublicKey(pub)
	return err == nil && expected == addr
}

// IsDerived reports whether addr has the shape of a key-derived address.
// Addresses that are not derived cannot sign HTTP requests.
func IsDerived(addr generic.Address) bool {
	rest, ok := strings.CutPrefix(string(addr), AddressPrefix)
	if !ok {
		return false
	}
	raw, err := base58.Decode(rest)
	return err == nil && len(raw) == blake2b.Size256
}

// EncodePublicKey renders pub as base58.
func EncodePublicKey(pub ed25519.PublicKey) string {
	return base58.Encode(pub)
}

// ParsePublicKey decodes a base58 ed25519 public key.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	raw, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key size: %d", len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
