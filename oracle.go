package goGrant

import (
	"context"

	"github.com/MrEthical07/goGrant/permission"
)

// Oracle is the capability-narrowing contract the channel worker calls into.
// The oracle is an isolated unit: it shares no mutable state with the caller
// and only sees key and passphrase material transiently, per request.
//
// Contractual guarantees the engine depends on:
//
//   - Exactly one of value or error per call; never partial success.
//   - Narrow fails when the supplied key is invalid or when the requested
//     permission set is unsatisfiable against the key's existing caveats
//     (e.g. requesting delete on a key that cannot delete).
//   - Derive is deterministic for identical (key, passphrase, projectID,
//     serviceURL) inputs, so users can regenerate a grant from a remembered
//     passphrase.
//
// A reference implementation lives in the oracle subpackage; tests substitute
// fakes through [Builder.WithOracle].
type Oracle interface {
	Narrow(ctx context.Context, apiKey string, perm permission.Set) (string, error)
	Derive(ctx context.Context, apiKey, passphrase, projectID, serviceURL string) (string, error)
}
