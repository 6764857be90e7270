// Package permission models the caveat set attached to a key-narrowing
// request: four independent operation flags, a bucket allowlist, optional
// validity bounds, and an optional per-object TTL cap.
//
// A [Set] is validated once at construction through [Build] and again by the
// engine before a request crosses the channel. The JSON wire codec
// ([Set.MarshalJSON], [DecodeWire]) is the exact representation that crosses
// the oracle boundary and must round-trip losslessly. The one-byte flag mask
// codec ([EncodeFlags], [DecodeFlags]) is the compact form embedded in oracle
// caveats.
package permission
