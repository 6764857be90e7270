package oracle

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goGrant/permission"
)

func testConfig() Config {
	// Smallest valid cost so tests stay fast.
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		KeyLength:   16,
	}
}

func testOracle(t *testing.T) *Oracle {
	t.Helper()

	o, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return o
}

func mintTestKey(t *testing.T) string {
	t.Helper()

	key, err := MintUnrestricted([]byte("test-root-secret-0123456789abcdef"))
	if err != nil {
		t.Fatalf("MintUnrestricted failed: %v", err)
	}
	serialized, err := key.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	return serialized
}

func TestNewRejectsWeakConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"memory", Config{Memory: 1024, Time: 1, Parallelism: 1, KeyLength: 16}},
		{"time", Config{Memory: 8 * 1024, Time: 0, Parallelism: 1, KeyLength: 16}},
		{"parallelism", Config{Memory: 8 * 1024, Time: 1, Parallelism: 0, KeyLength: 16}},
		{"key length", Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLength: 8}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); err == nil {
				t.Fatal("expected config validation error")
			}
		})
	}
}

func TestKeySerializeParseRoundTrip(t *testing.T) {
	root := []byte("test-root-secret-0123456789abcdef")
	key, err := MintUnrestricted(root)
	if err != nil {
		t.Fatalf("MintUnrestricted failed: %v", err)
	}

	notAfter := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	ttl := time.Hour
	restricted, err := key.Restrict(Caveat{
		Flags:        permission.Flags{AllowDownload: true, AllowList: true},
		Buckets:      []string{"cakes"},
		NotAfter:     &notAfter,
		MaxObjectTTL: &ttl,
	})
	if err != nil {
		t.Fatalf("Restrict failed: %v", err)
	}

	serialized, err := restricted.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	parsed, err := ParseKey(serialized)
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if !parsed.Verify(root) {
		t.Fatal("parsed key must verify against the root secret")
	}

	reserialized, err := parsed.Serialize()
	if err != nil {
		t.Fatalf("re-Serialize failed: %v", err)
	}
	if reserialized != serialized {
		t.Fatal("serialize/parse/serialize must be stable")
	}
}

func TestVerifyDetectsTamperedChain(t *testing.T) {
	root := []byte("test-root-secret-0123456789abcdef")
	key, err := MintUnrestricted(root)
	if err != nil {
		t.Fatalf("MintUnrestricted failed: %v", err)
	}
	restricted, err := key.Restrict(Caveat{Flags: permission.Flags{AllowDownload: true}})
	if err != nil {
		t.Fatalf("Restrict failed: %v", err)
	}

	// Widening the caveat without re-signing must break verification.
	restricted.caveats[0].Flags.AllowDelete = true
	if restricted.Verify(root) {
		t.Fatal("tampered caveat chain must not verify")
	}
}

func TestNarrowProducesDifferentKey(t *testing.T) {
	o := testOracle(t)
	apiKey := mintTestKey(t)

	perm, err := permission.Build(permission.Flags{AllowDownload: true, AllowList: true}, []string{"cakes"}, nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	restricted, err := o.Narrow(context.Background(), apiKey, perm)
	if err != nil {
		t.Fatalf("Narrow failed: %v", err)
	}
	if restricted == apiKey {
		t.Fatal("restricted key must differ from the unrestricted key")
	}
	if _, err := ParseKey(restricted); err != nil {
		t.Fatalf("restricted key must parse: %v", err)
	}
}

func TestNarrowRejectsUnsatisfiableFlags(t *testing.T) {
	o := testOracle(t)
	ctx := context.Background()
	apiKey := mintTestKey(t)

	readOnly, err := permission.Build(permission.Flags{AllowDownload: true, AllowList: true}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	restricted, err := o.Narrow(ctx, apiKey, readOnly)
	if err != nil {
		t.Fatalf("Narrow failed: %v", err)
	}

	// A read-only key cannot be widened to delete.
	wantsDelete, err := permission.Build(permission.Flags{AllowDelete: true}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := o.Narrow(ctx, restricted, wantsDelete); err == nil {
		t.Fatal("expected unsatisfiable permission error")
	}
}

func TestNarrowRejectsBucketOutsideAllowlist(t *testing.T) {
	o := testOracle(t)
	ctx := context.Background()
	apiKey := mintTestKey(t)

	cakesOnly, err := permission.Build(permission.Flags{AllowDownload: true}, []string{"cakes"}, nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	restricted, err := o.Narrow(ctx, apiKey, cakesOnly)
	if err != nil {
		t.Fatalf("Narrow failed: %v", err)
	}

	pies, err := permission.Build(permission.Flags{AllowDownload: true}, []string{"pies"}, nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := o.Narrow(ctx, restricted, pies); err == nil {
		t.Fatal("expected bucket allowlist error")
	}

	// Narrowing within the allowlist still works.
	cakes, err := permission.Build(permission.Flags{AllowDownload: true}, []string{"cakes"}, nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := o.Narrow(ctx, restricted, cakes); err != nil {
		t.Fatalf("narrowing within the allowlist must work: %v", err)
	}
}

func TestNarrowRejectsGarbageKey(t *testing.T) {
	o := testOracle(t)

	perm, err := permission.Build(permission.Flags{AllowDownload: true}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, bad := range []string{"not base58 !!!", "abc", strings.Repeat("1", 400)} {
		if _, err := o.Narrow(context.Background(), bad, perm); err == nil {
			t.Fatalf("Narrow(%q) must fail", bad)
		}
	}
}

func TestDeriveDeterministic(t *testing.T) {
	o := testOracle(t)
	ctx := context.Background()
	apiKey := mintTestKey(t)

	first, err := o.Derive(ctx, apiKey, "correct horse battery staple", "project-1", "https://svc.example:7777")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	second, err := o.Derive(ctx, apiKey, "correct horse battery staple", "project-1", "https://svc.example:7777")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	if first != second {
		t.Fatal("identical inputs must derive identical grants")
	}
}

func TestDeriveSensitiveToEveryInput(t *testing.T) {
	o := testOracle(t)
	ctx := context.Background()
	apiKey := mintTestKey(t)

	base, err := o.Derive(ctx, apiKey, "passphrase one", "project-1", "https://svc.example:7777")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	variants := []struct {
		name                            string
		key, phrase, project, serviceURL string
	}{
		{"passphrase", apiKey, "passphrase two", "project-1", "https://svc.example:7777"},
		{"project", apiKey, "passphrase one", "project-2", "https://svc.example:7777"},
		{"service url", apiKey, "passphrase one", "project-1", "https://other.example:7777"},
		{"key", mintTestKey(t), "passphrase one", "project-1", "https://svc.example:7777"},
	}

	for _, tc := range variants {
		t.Run(tc.name, func(t *testing.T) {
			got, err := o.Derive(ctx, tc.key, tc.phrase, tc.project, tc.serviceURL)
			if err != nil {
				t.Fatalf("Derive failed: %v", err)
			}
			if got == base {
				t.Fatal("changing any input must change the grant")
			}
		})
	}
}

func TestDeriveRejectsMissingInputs(t *testing.T) {
	o := testOracle(t)
	ctx := context.Background()
	apiKey := mintTestKey(t)

	cases := []struct {
		name                       string
		phrase, project, serviceURL string
	}{
		{"empty passphrase", "", "project-1", "https://svc.example"},
		{"empty project", "phrase", "", "https://svc.example"},
		{"empty service url", "phrase", "project-1", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := o.Derive(ctx, apiKey, tc.phrase, tc.project, tc.serviceURL); err == nil {
				t.Fatal("expected derive input error")
			}
		})
	}
}
