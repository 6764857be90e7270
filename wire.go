package goGrant

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goGrant/permission"
)

// wireRequest is the flattened JSON envelope for requests crossing a process
// boundary to an out-of-process oracle. The in-process channel passes typed
// values and never serializes.
type wireRequest struct {
	Kind string    `json:"kind"`
	ID   uuid.UUID `json:"id"`

	APIKey string `json:"apiKey"`

	// Narrow fields.
	AllowDownload bool     `json:"allowDownload,omitempty"`
	AllowUpload   bool     `json:"allowUpload,omitempty"`
	AllowList     bool     `json:"allowList,omitempty"`
	AllowDelete   bool     `json:"allowDelete,omitempty"`
	Buckets       []string `json:"buckets,omitempty"`
	NotBefore     *string  `json:"notBefore,omitempty"`
	NotAfter      *string  `json:"notAfter,omitempty"`
	MaxObjectTTL  *string  `json:"maxObjectTTL,omitempty"`

	// Derive fields.
	Passphrase string `json:"passphrase,omitempty"`
	ProjectID  string `json:"projectId,omitempty"`
	ServiceURL string `json:"serviceUrl,omitempty"`
}

type wireResponse struct {
	ID    uuid.UUID `json:"id"`
	Value string    `json:"value,omitempty"`
	Error string    `json:"error,omitempty"`
}

// EncodeRequest describes the encoderequest operation and its observable behavior.
//
// EncodeRequest may return an error when input validation, dependency calls, or security checks fail.
// EncodeRequest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func EncodeRequest(req Request) ([]byte, error) {
	switch r := req.(type) {
	case NarrowRequest:
		wire := wireRequest{
			Kind:          r.Kind().String(),
			ID:            r.ID,
			APIKey:        r.APIKey,
			AllowDownload: r.Permission.AllowDownload,
			AllowUpload:   r.Permission.AllowUpload,
			AllowList:     r.Permission.AllowList,
			AllowDelete:   r.Permission.AllowDelete,
			Buckets:       r.Permission.Buckets,
		}
		if r.Permission.NotBefore != nil {
			encoded := r.Permission.NotBefore.UTC().Format(time.RFC3339Nano)
			wire.NotBefore = &encoded
		}
		if r.Permission.NotAfter != nil {
			encoded := r.Permission.NotAfter.UTC().Format(time.RFC3339Nano)
			wire.NotAfter = &encoded
		}
		if r.Permission.MaxObjectTTL != nil {
			encoded := r.Permission.MaxObjectTTL.String()
			wire.MaxObjectTTL = &encoded
		}
		return json.Marshal(wire)
	case DeriveRequest:
		return json.Marshal(wireRequest{
			Kind:       r.Kind().String(),
			ID:         r.ID,
			APIKey:     r.APIKey,
			Passphrase: r.Passphrase,
			ProjectID:  r.ProjectID,
			ServiceURL: r.ServiceURL,
		})
	default:
		return nil, fmt.Errorf("unknown request kind %T", req)
	}
}

// DecodeRequest describes the decoderequest operation and its observable behavior.
//
// DecodeRequest may return an error when input validation, dependency calls, or security checks fail.
// DecodeRequest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DecodeRequest(data []byte) (Request, error) {
	var wire wireRequest
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	switch wire.Kind {
	case KindNarrow.String():
		perm := permission.Set{
			Flags: permission.Flags{
				AllowDownload: wire.AllowDownload,
				AllowUpload:   wire.AllowUpload,
				AllowList:     wire.AllowList,
				AllowDelete:   wire.AllowDelete,
			},
		}
		if len(wire.Buckets) > 0 {
			perm.Buckets = wire.Buckets
		}
		if wire.NotBefore != nil {
			parsed, err := time.Parse(time.RFC3339Nano, *wire.NotBefore)
			if err != nil {
				return nil, err
			}
			perm.NotBefore = &parsed
		}
		if wire.NotAfter != nil {
			parsed, err := time.Parse(time.RFC3339Nano, *wire.NotAfter)
			if err != nil {
				return nil, err
			}
			perm.NotAfter = &parsed
		}
		if wire.MaxObjectTTL != nil {
			parsed, err := time.ParseDuration(*wire.MaxObjectTTL)
			if err != nil {
				return nil, err
			}
			perm.MaxObjectTTL = &parsed
		}
		return NarrowRequest{ID: wire.ID, APIKey: wire.APIKey, Permission: perm}, nil
	case KindDerive.String():
		return DeriveRequest{
			ID:         wire.ID,
			APIKey:     wire.APIKey,
			Passphrase: wire.Passphrase,
			ProjectID:  wire.ProjectID,
			ServiceURL: wire.ServiceURL,
		}, nil
	default:
		return nil, fmt.Errorf("unknown request kind %q", wire.Kind)
	}
}

// EncodeResponse describes the encoderesponse operation and its observable behavior.
//
// EncodeResponse may return an error when input validation, dependency calls, or security checks fail.
// EncodeResponse does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func EncodeResponse(resp Response) ([]byte, error) {
	if resp.Value != "" && resp.Err != "" {
		return nil, errors.New("response value and error are mutually exclusive")
	}
	return json.Marshal(wireResponse{ID: resp.ID, Value: resp.Value, Error: resp.Err})
}

// DecodeResponse describes the decoderesponse operation and its observable behavior.
//
// DecodeResponse may return an error when input validation, dependency calls, or security checks fail.
// DecodeResponse does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DecodeResponse(data []byte) (Response, error) {
	var wire wireResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return Response{}, err
	}
	if wire.Value != "" && wire.Error != "" {
		return Response{}, errors.New("response value and error are mutually exclusive")
	}
	return Response{ID: wire.ID, Value: wire.Value, Err: wire.Error}, nil
}
