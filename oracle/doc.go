// Package oracle is the reference capability oracle: it narrows macaroon-style
// API keys by appending caveats to an HMAC-SHA256 chain, and deterministically
// derives serialized access grants from a restricted key and a passphrase via
// argon2id.
//
// The package holds no shared mutable state with its callers. Key and
// passphrase material is seen transiently per call and never stored. Grants
// and keys are opaque base58 strings to everything outside this package; the
// format is versioned but not a compatibility surface.
package oracle
