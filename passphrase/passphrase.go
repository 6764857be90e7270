// Package passphrase supplies the encryption passphrase for derive requests:
// either a generated BIP-39 mnemonic or user-entered text. The supplier is a
// pure value source: nothing here persists a passphrase; each result is used
// once to build a derive request and may then be discarded by the caller.
package passphrase

import (
	"errors"
	"strings"

	bip39 "github.com/tyler-smith/go-bip39"
)

const (
	// DefaultEntropyBits is the entropy behind a generated mnemonic.
	// 128 bits (12 words) is the floor at which brute-force guessing is
	// infeasible.
	DefaultEntropyBits = 128

	minEntropyBits = 128
	maxEntropyBits = 256
)

var (
	// ErrEmpty is an exported constant or variable used by the passphrase supplier.
	ErrEmpty = errors.New("passphrase empty")
	// ErrEntropyBits is an exported constant or variable used by the passphrase supplier.
	ErrEntropyBits = errors.New("entropy bits must be a multiple of 32 in [128, 256]")
)

// Generate describes the generate operation and its observable behavior.
//
// Generate may return an error when input validation, dependency calls, or security checks fail.
// Generate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Generate() (string, error) {
	return GenerateWithEntropy(DefaultEntropyBits)
}

// GenerateWithEntropy describes the generatewithentropy operation and its observable behavior.
//
// GenerateWithEntropy may return an error when input validation, dependency calls, or security checks fail.
// GenerateWithEntropy does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func GenerateWithEntropy(bits int) (string, error) {
	if bits < minEntropyBits || bits > maxEntropyBits || bits%32 != 0 {
		return "", ErrEntropyBits
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// Accept describes the accept operation and its observable behavior.
//
// Accept may return an error when input validation, dependency calls, or security checks fail.
// Accept does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Accept passes user-entered text through unchanged apart from trimming
// surrounding whitespace. The interior of the passphrase is preserved
// byte-for-byte: derivation is deterministic over the exact passphrase, so no
// normalization beyond the trim is allowed.
func Accept(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", ErrEmpty
	}
	return trimmed, nil
}
