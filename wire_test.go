package goGrant

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goGrant/permission"
)

func TestWireNarrowRoundTrip(t *testing.T) {
	notAfter := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	ttl := 3 * time.Hour

	perm, err := permission.Build(
		permission.Flags{AllowDownload: true, AllowList: true},
		[]string{"cakes", "pies"},
		nil, &notAfter,
		permission.WithMaxObjectTTL(ttl),
	)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	original := NarrowRequest{ID: uuid.New(), APIKey: "key", Permission: perm}

	data, err := EncodeRequest(original)
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	decoded, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}

	got, ok := decoded.(NarrowRequest)
	if !ok {
		t.Fatalf("decoded to %T, want NarrowRequest", decoded)
	}
	if got.ID != original.ID {
		t.Fatalf("correlation id changed: %v != %v", got.ID, original.ID)
	}
	if got.APIKey != "key" {
		t.Fatalf("api key changed: %q", got.APIKey)
	}
	if !got.Permission.Equal(perm) {
		t.Fatalf("permission changed: %+v != %+v", got.Permission, perm)
	}
}

func TestWireDeriveRoundTrip(t *testing.T) {
	original := DeriveRequest{
		ID:         uuid.New(),
		APIKey:     "restricted",
		Passphrase: "correct horse battery staple",
		ProjectID:  "project-1",
		ServiceURL: "https://svc.example:7777",
	}

	data, err := EncodeRequest(original)
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	decoded, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}
	if got, ok := decoded.(DeriveRequest); !ok || got != original {
		t.Fatalf("round trip changed request: %+v", decoded)
	}
}

func TestWireKindTags(t *testing.T) {
	narrow, err := EncodeRequest(NarrowRequest{ID: uuid.New(), APIKey: "key", Permission: permission.Set{Flags: permission.Flags{AllowList: true}}})
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}
	if !strings.Contains(string(narrow), `"kind":"Narrow"`) {
		t.Fatalf("narrow envelope missing kind tag: %s", narrow)
	}

	derive, err := EncodeRequest(DeriveRequest{ID: uuid.New(), APIKey: "key", Passphrase: "p", ProjectID: "pr", ServiceURL: "u"})
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}
	if !strings.Contains(string(derive), `"kind":"Derive"`) {
		t.Fatalf("derive envelope missing kind tag: %s", derive)
	}
}

func TestWireRejectsUnknownKind(t *testing.T) {
	envelope, err := json.Marshal(map[string]any{
		"kind":   "Mint",
		"id":     uuid.New().String(),
		"apiKey": "key",
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, err := DecodeRequest(envelope); err == nil {
		t.Fatal("unknown kind must be rejected")
	}
}

func TestWireResponseRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		resp Response
	}{
		{"value", Response{ID: uuid.New(), Value: "restricted-key"}},
		{"error", Response{ID: uuid.New(), Err: "quota exceeded"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := EncodeResponse(tc.resp)
			if err != nil {
				t.Fatalf("EncodeResponse failed: %v", err)
			}
			got, err := DecodeResponse(data)
			if err != nil {
				t.Fatalf("DecodeResponse failed: %v", err)
			}
			if got != tc.resp {
				t.Fatalf("round trip changed response: %+v != %+v", got, tc.resp)
			}
		})
	}
}

func TestWireResponseValueErrorExclusive(t *testing.T) {
	both := Response{ID: uuid.New(), Value: "key", Err: "boom"}
	if _, err := EncodeResponse(both); err == nil {
		t.Fatal("encode must reject value+error responses")
	}

	raw, err := json.Marshal(map[string]any{
		"id":    uuid.New().String(),
		"value": "key",
		"error": "boom",
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, err := DecodeResponse(raw); err == nil {
		t.Fatal("decode must reject value+error responses")
	}
}
