package permission

import (
	"encoding/json"
	"errors"
	"time"
)

// wireSet is the structural encoding that crosses the oracle channel.
// Timestamps are RFC 3339 and omitted entirely when absent; the TTL cap is a
// Go duration string.
type wireSet struct {
	AllowDownload bool     `json:"allowDownload"`
	AllowUpload   bool     `json:"allowUpload"`
	AllowList     bool     `json:"allowList"`
	AllowDelete   bool     `json:"allowDelete"`
	Buckets       []string `json:"buckets"`
	NotBefore     *string  `json:"notBefore,omitempty"`
	NotAfter      *string  `json:"notAfter,omitempty"`
	MaxObjectTTL  *string  `json:"maxObjectTTL,omitempty"`
}

// MarshalJSON describes the marshaljson operation and its observable behavior.
//
// MarshalJSON may return an error when input validation, dependency calls, or security checks fail.
// MarshalJSON does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s Set) MarshalJSON() ([]byte, error) {
	wire := wireSet{
		AllowDownload: s.AllowDownload,
		AllowUpload:   s.AllowUpload,
		AllowList:     s.AllowList,
		AllowDelete:   s.AllowDelete,
		Buckets:       s.Buckets,
	}
	if wire.Buckets == nil {
		wire.Buckets = []string{}
	}
	if s.NotBefore != nil {
		encoded := s.NotBefore.UTC().Format(time.RFC3339Nano)
		wire.NotBefore = &encoded
	}
	if s.NotAfter != nil {
		encoded := s.NotAfter.UTC().Format(time.RFC3339Nano)
		wire.NotAfter = &encoded
	}
	if s.MaxObjectTTL != nil {
		encoded := s.MaxObjectTTL.String()
		wire.MaxObjectTTL = &encoded
	}
	return json.Marshal(wire)
}

// UnmarshalJSON describes the unmarshaljson operation and its observable behavior.
//
// UnmarshalJSON may return an error when input validation, dependency calls, or security checks fail.
// UnmarshalJSON does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Set) UnmarshalJSON(data []byte) error {
	var wire wireSet
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	decoded := Set{
		Flags: Flags{
			AllowDownload: wire.AllowDownload,
			AllowUpload:   wire.AllowUpload,
			AllowList:     wire.AllowList,
			AllowDelete:   wire.AllowDelete,
		},
	}
	if len(wire.Buckets) > 0 {
		decoded.Buckets = wire.Buckets
	}
	if wire.NotBefore != nil {
		parsed, err := time.Parse(time.RFC3339Nano, *wire.NotBefore)
		if err != nil {
			return err
		}
		decoded.NotBefore = &parsed
	}
	if wire.NotAfter != nil {
		parsed, err := time.Parse(time.RFC3339Nano, *wire.NotAfter)
		if err != nil {
			return err
		}
		decoded.NotAfter = &parsed
	}
	if wire.MaxObjectTTL != nil {
		parsed, err := time.ParseDuration(*wire.MaxObjectTTL)
		if err != nil {
			return err
		}
		decoded.MaxObjectTTL = &parsed
	}

	*s = decoded
	return nil
}

// EncodeWire describes the encodewire operation and its observable behavior.
//
// EncodeWire may return an error when input validation, dependency calls, or security checks fail.
// EncodeWire does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func EncodeWire(s Set) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeWire describes the decodewire operation and its observable behavior.
//
// DecodeWire may return an error when input validation, dependency calls, or security checks fail.
// DecodeWire does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DecodeWire(data []byte) (Set, error) {
	var s Set
	if err := json.Unmarshal(data, &s); err != nil {
		return Set{}, err
	}
	return s, nil
}

const (
	flagBitDownload byte = 1 << iota
	flagBitUpload
	flagBitList
	flagBitDelete

	flagBitsKnown = flagBitDownload | flagBitUpload | flagBitList | flagBitDelete
)

// EncodeFlags describes the encodeflags operation and its observable behavior.
//
// EncodeFlags does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func EncodeFlags(f Flags) byte {
	var mask byte
	if f.AllowDownload {
		mask |= flagBitDownload
	}
	if f.AllowUpload {
		mask |= flagBitUpload
	}
	if f.AllowList {
		mask |= flagBitList
	}
	if f.AllowDelete {
		mask |= flagBitDelete
	}
	return mask
}

// DecodeFlags describes the decodeflags operation and its observable behavior.
//
// DecodeFlags may return an error when input validation, dependency calls, or security checks fail.
// DecodeFlags does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DecodeFlags(mask byte) (Flags, error) {
	if mask&^flagBitsKnown != 0 {
		return Flags{}, errors.New("unknown flag bits set")
	}
	return Flags{
		AllowDownload: mask&flagBitDownload != 0,
		AllowUpload:   mask&flagBitUpload != 0,
		AllowList:     mask&flagBitList != 0,
		AllowDelete:   mask&flagBitDelete != 0,
	}, nil
}
