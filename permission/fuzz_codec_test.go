package permission

import (
	"testing"
)

// FuzzWireCodecRoundTrip exercises the wire decode/encode path with arbitrary
// bytes. Goal: no panics; anything that decodes must re-encode and decode to
// an equal Set.
func FuzzWireCodecRoundTrip(f *testing.F) {
	f.Add([]byte(`{}`))
	f.Add([]byte(`{"allowDownload":true,"allowUpload":false,"allowList":true,"allowDelete":false,"buckets":["cakes"]}`))
	f.Add([]byte(`{"buckets":[],"notBefore":"2026-03-01T12:00:00Z","notAfter":"2026-03-02T12:00:00Z"}`))
	f.Add([]byte(`{"maxObjectTTL":"1h0m0s"}`))

	// Malformed inputs.
	f.Add([]byte(``))
	f.Add([]byte(`{`))
	f.Add([]byte(`{"notBefore":"not a timestamp"}`))
	f.Add([]byte(`{"maxObjectTTL":"forever"}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		set, err := DecodeWire(data)
		if err != nil {
			return
		}

		encoded, err := EncodeWire(set)
		if err != nil {
			t.Fatalf("EncodeWire failed after successful DecodeWire: %v", err)
		}

		decoded, err := DecodeWire(encoded)
		if err != nil {
			t.Fatalf("DecodeWire roundtrip failed: %v", err)
		}

		if !decoded.Equal(set) {
			t.Fatalf("roundtrip mismatch:\n in: %+v\nout: %+v", set, decoded)
		}
	})
}
