package password

import (
	"errors"
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestHasher(t *testing.T, cfg Config) *Argon2 {
	t.Helper()
	hasher, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	return hasher
}

func TestHashAndVerify(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	hash, err := hasher.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify("P@ssw0rd-Ascii", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	a, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	b, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct hashes for the same password")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	hash, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := hasher.Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestVerifyUsesStoredParameters(t *testing.T) {
	old := newTestHasher(t, testConfig())
	hash, err := old.Hash("stored-with-old-params")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cfg := testConfig()
	cfg.Time = 2
	cfg.KeyLength = 64
	current := newTestHasher(t, cfg)

	ok, err := current.Verify("stored-with-old-params", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification with stored params, ok=%v err=%v", ok, err)
	}
}

func TestVerifyAcceptsPaddedEncoding(t *testing.T) {
	hasher := newTestHasher(t, testConfig())
	hash, err := hasher.Hash("padded-encoding")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	// 16-byte salt and 32-byte key need padding in std encoding
	parts := strings.Split(hash, "$")
	parts[4] += "=="
	parts[5] += "="
	padded := strings.Join(parts, "$")

	ok, err := hasher.Verify("padded-encoding", padded)
	if err != nil || !ok {
		t.Fatalf("expected padded credential to verify, ok=%v err=%v", ok, err)
	}
}

func TestDummyHashNeverMatchesEmptyOrCommonPasswords(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	dummy, err := hasher.DummyHash()
	if err != nil {
		t.Fatalf("DummyHash error: %v", err)
	}
	for _, pw := range []string{"", "password123", "correct-password"} {
		ok, err := hasher.Verify(pw, dummy)
		if err != nil {
			t.Fatalf("Verify(%q) error: %v", pw, err)
		}
		if ok {
			t.Fatalf("dummy hash matched %q", pw)
		}
	}
}

func TestNeedsUpgrade(t *testing.T) {
	old := newTestHasher(t, testConfig())
	hash, err := old.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cfg := testConfig()
	cfg.Time = 2
	current := newTestHasher(t, cfg)

	needsUpgrade, err := current.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if !needsUpgrade {
		t.Fatal("expected NeedsUpgrade to return true for weaker hash parameters")
	}

	needsUpgrade, err = old.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if needsUpgrade {
		t.Fatal("expected NeedsUpgrade to return false for current parameters")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	valid, err := hasher.Hash("malformed-test")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cases := map[string]string{
		"not phc":       "not-a-phc-hash",
		"wrong alg":     strings.Replace(valid, "$argon2id$", "$argon2i$", 1),
		"wrong version": strings.Replace(valid, "$v=19$", "$v=18$", 1),
		"low memory":    strings.Replace(valid, "m=8192", "m=1024", 1),
		"huge time":     strings.Replace(valid, "t=1,", "t=100000,", 1),
		"extra param":   strings.Replace(valid, "p=1$", "p=1,x=2$", 1),
		"bad salt":      strings.Replace(valid, "$m=8192,t=1,p=1$", "$m=8192,t=1,p=1$!!", 1),
	}
	for name, hash := range cases {
		t.Run(name, func(t *testing.T) {
			ok, err := hasher.Verify("malformed-test", hash)
			if !errors.Is(err, ErrInvalidHash) {
				t.Fatalf("expected ErrInvalidHash, got ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestHashRejectsShortPasswords(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	for _, pw := range []string{"", "short", "123456789"} {
		if _, err := hasher.Hash(pw); !errors.Is(err, ErrPasswordTooShort) {
			t.Fatalf("Hash(%q) expected ErrPasswordTooShort, got %v", pw, err)
		}
	}
}

func TestMaxPasswordBytes(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPasswordBytes = 64
	hasher := newTestHasher(t, cfg)

	if _, err := hasher.Hash(strings.Repeat("a", 65)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	exact := strings.Repeat("b", 64)
	hash, err := hasher.Hash(exact)
	if err != nil {
		t.Fatalf("expected exactly-max password to be accepted: %v", err)
	}
	if ok, err := hasher.Verify(exact, hash); err != nil || !ok {
		t.Fatalf("Verify failed for max-length password: ok=%v err=%v", ok, err)
	}

	if _, err := hasher.Verify(strings.Repeat("c", 65), hash); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected Verify to reject long password, got %v", err)
	}
}

func TestDefaultMaxPasswordBytesApplied(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	if _, err := hasher.Hash(strings.Repeat("d", DefaultMaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected password > %d bytes to be rejected, got %v", DefaultMaxPasswordBytes, err)
	}
	if _, err := hasher.Hash(strings.Repeat("e", DefaultMaxPasswordBytes)); err != nil {
		t.Fatalf("expected password of exactly %d bytes to be accepted: %v", DefaultMaxPasswordBytes, err)
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	mutations := map[string]func(*Config){
		"memory":      func(c *Config) { c.Memory = 1024 },
		"time":        func(c *Config) { c.Time = 0 },
		"parallelism": func(c *Config) { c.Parallelism = 0 },
		"salt":        func(c *Config) { c.SaltLength = 8 },
		"key":         func(c *Config) { c.KeyLength = 8 },
		"max bytes":   func(c *Config) { c.MaxPasswordBytes = 4 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			if _, err := NewArgon2(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
