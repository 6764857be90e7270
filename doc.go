// Package goGrant provides a scoped-access-credential derivation engine:
// full-privilege API keys are narrowed to caveat-restricted keys, and
// restricted keys plus a user passphrase are turned into serialized access
// grants, without the unrestricted key or the passphrase ever being retained
// outside the isolated oracle that computes them.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. Every call runs as its own single-flight [Session] against
// the shared request [Channel]; correlation IDs make concurrent sessions on
// one channel safe.
//
// # Architecture boundaries
//
// goGrant is the public surface. It exposes [Engine], [Builder], [Config],
// the [Oracle] contract, and value types (Request, Response, MetricsSnapshot).
// The capability oracle is always injected through [Builder.WithOracle];
// there is no ambient or process-global worker handle, so tests substitute a
// fake oracle freely. A reference oracle lives in the oracle subpackage; the
// permission caveat model lives in permission; passphrase generation and
// acceptance live in passphrase.
//
// # What this package must NOT do
//
//   - Persist, log, or re-deliver API keys or passphrases. They are used
//     exactly once per request and handed to the oracle transiently.
//   - Retry a failed narrow or derive on its own. Oracle failures surface
//     verbatim to the caller, which decides whether to re-supply inputs.
//   - Expose Redis clients, the pending-session registry, or wire encoding
//     details in its public API.
//
// # Failure contract
//
// Exactly one response corresponds to exactly one request. A session whose
// channel worker terminates while the request is in flight fails with
// [ErrChannelLost] rather than waiting forever.
package goGrant
