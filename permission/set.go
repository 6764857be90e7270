package permission

import (
	"fmt"
	"time"
	"unicode"
)

// Flags defines a public type used by goGrant APIs.
//
// Flags instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Flags struct {
	AllowDownload bool
	AllowUpload   bool
	AllowList     bool
	AllowDelete   bool
}

// Any describes the any operation and its observable behavior.
//
// Any does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f Flags) Any() bool {
	return f.AllowDownload || f.AllowUpload || f.AllowList || f.AllowDelete
}

// Subset describes the subset operation and its observable behavior.
//
// Subset reports whether every operation f allows is also allowed by parent.
func (f Flags) Subset(parent Flags) bool {
	if f.AllowDownload && !parent.AllowDownload {
		return false
	}
	if f.AllowUpload && !parent.AllowUpload {
		return false
	}
	if f.AllowList && !parent.AllowList {
		return false
	}
	if f.AllowDelete && !parent.AllowDelete {
		return false
	}
	return true
}

// Set defines a public type used by goGrant APIs.
//
// Set instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// All flags false is a legal, maximally restrictive caveat. An empty bucket
// list means "all buckets, current and future". Bucket names are not fully
// validated here (that belongs to the bucket-naming layer); only emptiness
// and embedded control characters are rejected.
type Set struct {
	Flags

	Buckets []string

	NotBefore *time.Time
	NotAfter  *time.Time

	// MaxObjectTTL caps the lifetime of objects uploaded under the
	// narrowed key. Nil means no cap.
	MaxObjectTTL *time.Duration
}

// ValidationError defines a public type used by goGrant APIs.
//
// ValidationError reports malformed caveat input. It is always surfaced
// before any message is sent to the oracle and is fully recoverable by
// correcting the input.
type ValidationError struct {
	Field  string
	Reason string
}

// Error describes the error operation and its observable behavior.
//
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid permission %s: %s", e.Field, e.Reason)
}

// Option defines a public type used by goGrant APIs.
//
// Option instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Option func(*Set)

// WithMaxObjectTTL describes the withmaxobjectttl operation and its observable behavior.
//
// WithMaxObjectTTL does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func WithMaxObjectTTL(ttl time.Duration) Option {
	return func(s *Set) {
		s.MaxObjectTTL = &ttl
	}
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Build(flags Flags, buckets []string, notBefore, notAfter *time.Time, opts ...Option) (Set, error) {
	set := Set{
		Flags:     flags,
		Buckets:   cloneBuckets(buckets),
		NotBefore: cloneTime(notBefore),
		NotAfter:  cloneTime(notAfter),
	}

	for _, opt := range opts {
		opt(&set)
	}

	if err := set.Validate(); err != nil {
		return Set{}, err
	}
	return set, nil
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s Set) Validate() error {
	if s.NotBefore != nil && s.NotAfter != nil && !s.NotBefore.Before(*s.NotAfter) {
		return &ValidationError{
			Field:  "time bounds",
			Reason: "notBefore must be strictly before notAfter",
		}
	}

	for _, bucket := range s.Buckets {
		if bucket == "" {
			return &ValidationError{
				Field:  "buckets",
				Reason: "bucket name empty",
			}
		}
		for _, r := range bucket {
			if unicode.IsControl(r) {
				return &ValidationError{
					Field:  "buckets",
					Reason: "bucket name contains control character",
				}
			}
		}
	}

	if s.MaxObjectTTL != nil && *s.MaxObjectTTL <= 0 {
		return &ValidationError{
			Field:  "maxObjectTTL",
			Reason: "must be positive",
		}
	}

	return nil
}

// Equal describes the equal operation and its observable behavior.
//
// Equal does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s Set) Equal(other Set) bool {
	if s.Flags != other.Flags {
		return false
	}
	if len(s.Buckets) != len(other.Buckets) {
		return false
	}
	for i := range s.Buckets {
		if s.Buckets[i] != other.Buckets[i] {
			return false
		}
	}
	if !timePtrEqual(s.NotBefore, other.NotBefore) {
		return false
	}
	if !timePtrEqual(s.NotAfter, other.NotAfter) {
		return false
	}
	if (s.MaxObjectTTL == nil) != (other.MaxObjectTTL == nil) {
		return false
	}
	if s.MaxObjectTTL != nil && *s.MaxObjectTTL != *other.MaxObjectTTL {
		return false
	}
	return true
}

func timePtrEqual(a, b *time.Time) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

func cloneBuckets(buckets []string) []string {
	if len(buckets) == 0 {
		return nil
	}
	out := make([]string, len(buckets))
	copy(out, buckets)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
