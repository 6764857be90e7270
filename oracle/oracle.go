package oracle

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/argon2"

	"github.com/MrEthical07/goGrant/permission"
)

const (
	grantFormatVersion byte = 1

	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minKeyLength   uint32 = 16

	saltContext = "goGrant/grant-salt/v1:"
)

// Config defines a public type used by goGrant APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// The argon2id cost parameters feed the passphrase KDF. They are part of the
// derivation inputs: change them and every grant derives differently.
type Config struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	KeyLength   uint32
}

// Oracle defines a public type used by goGrant APIs.
//
// Oracle instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Oracle struct {
	config Config
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(cfg Config) (*Oracle, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Oracle{config: cfg}, nil
}

func validateConfig(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("oracle memory cost below minimum")
	}
	if cfg.Time < minTimeCost {
		return errors.New("oracle time cost below minimum")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("oracle parallelism below minimum")
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("oracle key length below minimum")
	}
	return nil
}

// Narrow describes the narrow operation and its observable behavior.
//
// Narrow may return an error when input validation, dependency calls, or security checks fail.
// Narrow does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Narrow appends the permission caveat to the key's chain and returns the
// re-signed, serialized restricted key. It fails when the key is structurally
// invalid or when the requested permissions exceed what the key's existing
// caveats still allow.
func (o *Oracle) Narrow(ctx context.Context, apiKey string, perm permission.Set) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := perm.Validate(); err != nil {
		return "", err
	}

	key, err := ParseKey(apiKey)
	if err != nil {
		return "", err
	}

	restricted, err := key.Restrict(Caveat{
		Flags:        perm.Flags,
		Buckets:      perm.Buckets,
		NotBefore:    perm.NotBefore,
		NotAfter:     perm.NotAfter,
		MaxObjectTTL: perm.MaxObjectTTL,
	})
	if err != nil {
		return "", err
	}

	return restricted.Serialize()
}

// Derive describes the derive operation and its observable behavior.
//
// Derive may return an error when input validation, dependency calls, or security checks fail.
// Derive does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Derive is deterministic: identical (key, passphrase, projectID, serviceURL)
// inputs always produce the identical grant, so a user who remembers the
// passphrase can regenerate the grant at any time.
func (o *Oracle) Derive(ctx context.Context, apiKey, passphrase, projectID, serviceURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if passphrase == "" {
		return "", errors.New("passphrase empty")
	}
	if projectID == "" {
		return "", errors.New("project id empty")
	}
	if serviceURL == "" {
		return "", errors.New("service url empty")
	}

	key, err := ParseKey(apiKey)
	if err != nil {
		return "", err
	}
	keyRaw, err := key.Serialize()
	if err != nil {
		return "", err
	}

	// The salt is derived from the project ID alone so grants stay
	// reproducible; uniqueness per project is what prevents cross-project
	// rainbow reuse, not salt secrecy.
	salt := sha256.Sum256([]byte(saltContext + projectID))

	encKey := argon2.IDKey(
		[]byte(passphrase),
		salt[:],
		o.config.Time,
		o.config.Memory,
		o.config.Parallelism,
		o.config.KeyLength,
	)

	var buf bytes.Buffer
	buf.WriteByte(grantFormatVersion)
	if err := writeString(&buf, serviceURL); err != nil {
		return "", err
	}
	if err := writeString(&buf, keyRaw); err != nil {
		return "", err
	}
	if err := writeString(&buf, string(encKey)); err != nil {
		return "", err
	}

	return base58.Encode(buf.Bytes()), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > 0xFFFF {
		return errors.New("grant field too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}
