package oracle

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"time"

	"github.com/mr-tron/base58"

	"github.com/MrEthical07/goGrant/permission"
)

const (
	keyFormatVersion byte = 1

	headSize = 16
	sigSize  = sha256.Size

	maxCaveats    = 64
	maxCaveatSize = 4096
)

const (
	boundBitNotBefore byte = 1 << iota
	boundBitNotAfter
	boundBitMaxObjectTTL
)

// Caveat is one restriction link in a key's HMAC chain. Appending a caveat
// can only remove authority, never add it.
type Caveat struct {
	Flags        permission.Flags
	Buckets      []string
	NotBefore    *time.Time
	NotAfter     *time.Time
	MaxObjectTTL *time.Duration
}

// Key defines a public type used by goGrant APIs.
//
// Key instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// A Key is a head nonce, an ordered caveat list, and the chain signature
// sig = HMAC(...HMAC(HMAC(root, head), caveat1)..., caveatN). Narrowing does
// not require the root secret; verification does.
type Key struct {
	head    []byte
	caveats []Caveat
	sig     [sigSize]byte
}

// MintUnrestricted describes the mintunrestricted operation and its observable behavior.
//
// MintUnrestricted may return an error when input validation, dependency calls, or security checks fail.
// MintUnrestricted does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func MintUnrestricted(rootSecret []byte) (*Key, error) {
	if len(rootSecret) < 16 {
		return nil, errors.New("root secret must be at least 16 bytes")
	}

	head := make([]byte, headSize)
	if _, err := rand.Read(head); err != nil {
		return nil, err
	}

	k := &Key{head: head}
	k.sig = chainSig(rootSecret, head)
	return k, nil
}

func chainSig(secret, data []byte) [sigSize]byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(data)

	var sig [sigSize]byte
	copy(sig[:], mac.Sum(nil))
	return sig
}

// Restrict appends a caveat to the chain and re-signs. The requested
// permission must be satisfiable against the key's existing caveats.
func (k *Key) Restrict(c Caveat) (*Key, error) {
	effective := k.effective()

	if !c.Flags.Subset(effective.Flags) {
		return nil, errors.New("requested operations exceed key authority")
	}
	if effective.Buckets != nil {
		for _, bucket := range c.Buckets {
			if !containsBucket(effective.Buckets, bucket) {
				return nil, errors.New("requested bucket outside key allowlist")
			}
		}
	}

	encoded, err := encodeCaveat(c)
	if err != nil {
		return nil, err
	}

	restricted := &Key{
		head:    k.head,
		caveats: append(append([]Caveat(nil), k.caveats...), c),
	}
	restricted.sig = chainSig(k.sig[:], encoded)
	return restricted, nil
}

// effective folds the caveat chain into the narrowest permission the key
// still carries. A key with no caveats is unrestricted.
func (k *Key) effective() Caveat {
	eff := Caveat{
		Flags: permission.Flags{
			AllowDownload: true,
			AllowUpload:   true,
			AllowList:     true,
			AllowDelete:   true,
		},
	}

	for _, c := range k.caveats {
		eff.Flags = intersectFlags(eff.Flags, c.Flags)
		if len(c.Buckets) > 0 {
			if eff.Buckets == nil {
				eff.Buckets = append([]string(nil), c.Buckets...)
			} else {
				eff.Buckets = intersectBuckets(eff.Buckets, c.Buckets)
			}
		}
	}

	return eff
}

func intersectFlags(a, b permission.Flags) permission.Flags {
	return permission.Flags{
		AllowDownload: a.AllowDownload && b.AllowDownload,
		AllowUpload:   a.AllowUpload && b.AllowUpload,
		AllowList:     a.AllowList && b.AllowList,
		AllowDelete:   a.AllowDelete && b.AllowDelete,
	}
}

func intersectBuckets(a, b []string) []string {
	out := make([]string, 0, len(a))
	for _, bucket := range a {
		if containsBucket(b, bucket) {
			out = append(out, bucket)
		}
	}
	return out
}

func containsBucket(buckets []string, name string) bool {
	for _, b := range buckets {
		if b == name {
			return true
		}
	}
	return false
}

// Verify recomputes the chain signature from the root secret and compares it
// in constant time.
func (k *Key) Verify(rootSecret []byte) bool {
	sig := chainSig(rootSecret, k.head)
	for _, c := range k.caveats {
		encoded, err := encodeCaveat(c)
		if err != nil {
			return false
		}
		sig = chainSig(sig[:], encoded)
	}
	return hmac.Equal(sig[:], k.sig[:])
}

// Serialize describes the serialize operation and its observable behavior.
//
// Serialize may return an error when input validation, dependency calls, or security checks fail.
// Serialize does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (k *Key) Serialize() (string, error) {
	var buf bytes.Buffer

	buf.WriteByte(keyFormatVersion)
	buf.Write(k.head)

	if len(k.caveats) > maxCaveats {
		return "", errors.New("too many caveats")
	}
	buf.WriteByte(byte(len(k.caveats)))

	for _, c := range k.caveats {
		encoded, err := encodeCaveat(c)
		if err != nil {
			return "", err
		}
		if len(encoded) > maxCaveatSize {
			return "", errors.New("caveat too large")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(encoded))); err != nil {
			return "", err
		}
		buf.Write(encoded)
	}

	buf.Write(k.sig[:])

	return base58.Encode(buf.Bytes()), nil
}

// ParseKey describes the parsekey operation and its observable behavior.
//
// ParseKey may return an error when input validation, dependency calls, or security checks fail.
// ParseKey does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func ParseKey(serialized string) (*Key, error) {
	raw, err := base58.Decode(serialized)
	if err != nil {
		return nil, errors.New("api key is not valid base58")
	}

	r := bytes.NewReader(raw)

	version, err := r.ReadByte()
	if err != nil {
		return nil, errors.New("api key truncated")
	}
	if version != keyFormatVersion {
		return nil, errors.New("unsupported api key version")
	}

	k := &Key{head: make([]byte, headSize)}
	if _, err := readFull(r, k.head); err != nil {
		return nil, errors.New("api key truncated")
	}

	count, err := r.ReadByte()
	if err != nil {
		return nil, errors.New("api key truncated")
	}
	if int(count) > maxCaveats {
		return nil, errors.New("too many caveats")
	}

	for i := 0; i < int(count); i++ {
		var size uint16
		if err := binary.Read(r, binary.BigEndian, &size); err != nil {
			return nil, errors.New("api key truncated")
		}
		if int(size) > maxCaveatSize {
			return nil, errors.New("caveat too large")
		}
		encoded := make([]byte, size)
		if _, err := readFull(r, encoded); err != nil {
			return nil, errors.New("api key truncated")
		}
		c, err := decodeCaveat(encoded)
		if err != nil {
			return nil, err
		}
		k.caveats = append(k.caveats, c)
	}

	if _, err := readFull(r, k.sig[:]); err != nil {
		return nil, errors.New("api key truncated")
	}
	if r.Len() != 0 {
		return nil, errors.New("trailing bytes after api key")
	}

	return k, nil
}

func readFull(r *bytes.Reader, dst []byte) (int, error) {
	n, err := r.Read(dst)
	if err == nil && n != len(dst) {
		return n, errors.New("short read")
	}
	return n, err
}

func encodeCaveat(c Caveat) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(permission.EncodeFlags(c.Flags))

	if len(c.Buckets) > 255 {
		return nil, errors.New("too many buckets in caveat")
	}
	buf.WriteByte(byte(len(c.Buckets)))
	for _, bucket := range c.Buckets {
		if len(bucket) > 255 {
			return nil, errors.New("bucket name too long")
		}
		buf.WriteByte(byte(len(bucket)))
		buf.WriteString(bucket)
	}

	var bounds byte
	if c.NotBefore != nil {
		bounds |= boundBitNotBefore
	}
	if c.NotAfter != nil {
		bounds |= boundBitNotAfter
	}
	if c.MaxObjectTTL != nil {
		bounds |= boundBitMaxObjectTTL
	}
	buf.WriteByte(bounds)

	if c.NotBefore != nil {
		if err := binary.Write(&buf, binary.BigEndian, c.NotBefore.UnixNano()); err != nil {
			return nil, err
		}
	}
	if c.NotAfter != nil {
		if err := binary.Write(&buf, binary.BigEndian, c.NotAfter.UnixNano()); err != nil {
			return nil, err
		}
	}
	if c.MaxObjectTTL != nil {
		if err := binary.Write(&buf, binary.BigEndian, int64(*c.MaxObjectTTL)); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func decodeCaveat(data []byte) (Caveat, error) {
	r := bytes.NewReader(data)

	flagMask, err := r.ReadByte()
	if err != nil {
		return Caveat{}, errors.New("caveat truncated")
	}
	flags, err := permission.DecodeFlags(flagMask)
	if err != nil {
		return Caveat{}, err
	}

	c := Caveat{Flags: flags}

	bucketCount, err := r.ReadByte()
	if err != nil {
		return Caveat{}, errors.New("caveat truncated")
	}
	for i := 0; i < int(bucketCount); i++ {
		nameLen, err := r.ReadByte()
		if err != nil {
			return Caveat{}, errors.New("caveat truncated")
		}
		name := make([]byte, nameLen)
		if _, err := readFull(r, name); err != nil {
			return Caveat{}, errors.New("caveat truncated")
		}
		c.Buckets = append(c.Buckets, string(name))
	}

	bounds, err := r.ReadByte()
	if err != nil {
		return Caveat{}, errors.New("caveat truncated")
	}
	if bounds&^(boundBitNotBefore|boundBitNotAfter|boundBitMaxObjectTTL) != 0 {
		return Caveat{}, errors.New("unknown caveat bound bits")
	}

	if bounds&boundBitNotBefore != 0 {
		var nanos int64
		if err := binary.Read(r, binary.BigEndian, &nanos); err != nil {
			return Caveat{}, errors.New("caveat truncated")
		}
		t := time.Unix(0, nanos).UTC()
		c.NotBefore = &t
	}
	if bounds&boundBitNotAfter != 0 {
		var nanos int64
		if err := binary.Read(r, binary.BigEndian, &nanos); err != nil {
			return Caveat{}, errors.New("caveat truncated")
		}
		t := time.Unix(0, nanos).UTC()
		c.NotAfter = &t
	}
	if bounds&boundBitMaxObjectTTL != 0 {
		var nanos int64
		if err := binary.Read(r, binary.BigEndian, &nanos); err != nil {
			return Caveat{}, errors.New("caveat truncated")
		}
		d := time.Duration(nanos)
		c.MaxObjectTTL = &d
	}

	if r.Len() != 0 {
		return Caveat{}, errors.New("trailing bytes after caveat")
	}

	return c, nil
}
