package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	maxMemoryKB    uint32 = 4 * 1024 * 1024
	minTimeCost    uint32 = 1
	maxTimeCost    uint32 = 64
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	maxKeyLength   uint32 = 1024
	minPassBytes          = 10
	algorithmID           = "argon2id"

	// DefaultMaxPasswordBytes bounds password length when Config.MaxPasswordBytes is zero.
	DefaultMaxPasswordBytes = 1024
)

var (
	// ErrPasswordTooShort is returned by Hash for passwords under 10 bytes.
	ErrPasswordTooShort = errors.New("password must be at least 10 bytes")
	// ErrPasswordTooLong is returned by Hash and Verify for passwords over the configured maximum.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrInvalidHash is returned for credentials that are not a supported argon2id PHC string.
	ErrInvalidHash = errors.New("invalid password hash")
	// ErrInvalidConfig is returned by NewArgon2 for parameters below the accepted minimums.
	ErrInvalidConfig = errors.New("invalid password config")
)

// Config holds Argon2id cost parameters. Memory is in KiB.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// MaxPasswordBytes caps the input length. Zero means DefaultMaxPasswordBytes.
	MaxPasswordBytes int
}

// Argon2 hashes and verifies passwords. It is immutable and safe for concurrent use.
type Argon2 struct {
	config Config
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// NewArgon2 validates cfg and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.MaxPasswordBytes == 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}
	return &Argon2{config: cfg}, nil
}

// Hash derives a new credential for password with a fresh random salt.
func (a *Argon2) Hash(password string) (string, error) {
	// raw bytes, no Unicode normalization
	if len(password) < minPassBytes {
		return "", ErrPasswordTooShort
	}
	if len(password) > a.config.MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	return a.hash([]byte(password))
}

// DummyHash returns a credential for a random password. Verifying against it costs
// the same as verifying a real credential.
func (a *Argon2) DummyHash() (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return a.hash(buf)
}

func (a *Argon2) hash(password []byte) (string, error) {
	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(password, salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encodedHash. The stored parameters are used,
// not the hasher's own, so credentials created with older settings keep working.
func (a *Argon2) Verify(password string, encodedHash string) (bool, error) {
	if len(password) > a.config.MaxPasswordBytes {
		return false, ErrPasswordTooLong
	}
	parsed, err := parse(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), parsed.salt, parsed.time, parsed.memory, parsed.parallelism, uint32(len(parsed.key)))

	return subtle.ConstantTimeCompare(computed, parsed.key) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker parameters than
// the hasher's current ones.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	parsed, err := parse(encodedHash)
	if err != nil {
		return false, err
	}

	return a.config.Memory > parsed.memory ||
		a.config.Time > parsed.time ||
		a.config.Parallelism > parsed.parallelism ||
		a.config.KeyLength != uint32(len(parsed.key)), nil
}

func parse(encodedHash string) (*phc, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("%w: format", ErrInvalidHash)
	}
	if parts[1] != algorithmID {
		return nil, fmt.Errorf("%w: algorithm %q", ErrInvalidHash, parts[1])
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidHash)
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return nil, fmt.Errorf("%w: version", ErrInvalidHash)
	}

	out := &phc{}
	if err := parseParams(parts[3], out); err != nil {
		return nil, err
	}

	salt, err := decodeSegment(parts[4])
	if err != nil || len(salt) < int(minSaltLength) {
		return nil, fmt.Errorf("%w: salt", ErrInvalidHash)
	}
	key, err := decodeSegment(parts[5])
	if err != nil || len(key) < int(minKeyLength) || len(key) > int(maxKeyLength) {
		return nil, fmt.Errorf("%w: key", ErrInvalidHash)
	}
	out.salt = salt
	out.key = key

	return out, nil
}

// decodeSegment accepts the unpadded PHC encoding and the padded one.
func decodeSegment(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func parseParams(part string, out *phc) error {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return fmt.Errorf("%w: parameters", ErrInvalidHash)
	}

	var seen [3]bool
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("%w: parameter %q", ErrInvalidHash, pair)
		}

		switch name {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || v < uint64(minMemoryKB) || v > uint64(maxMemoryKB) {
				return fmt.Errorf("%w: memory", ErrInvalidHash)
			}
			out.memory = uint32(v)
			seen[0] = true
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || v < uint64(minTimeCost) || v > uint64(maxTimeCost) {
				return fmt.Errorf("%w: time", ErrInvalidHash)
			}
			out.time = uint32(v)
			seen[1] = true
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil || v < uint64(minParallelism) {
				return fmt.Errorf("%w: parallelism", ErrInvalidHash)
			}
			out.parallelism = uint8(v)
			seen[2] = true
		default:
			return fmt.Errorf("%w: parameter %q", ErrInvalidHash, name)
		}
	}

	if !seen[0] || !seen[1] || !seen[2] {
		return fmt.Errorf("%w: missing parameters", ErrInvalidHash)
	}
	return nil
}

func validateConfig(cfg Config) error {
	switch {
	case cfg.Memory < minMemoryKB || cfg.Memory > maxMemoryKB:
		return fmt.Errorf("%w: memory must be between %d and %d KiB", ErrInvalidConfig, minMemoryKB, maxMemoryKB)
	case cfg.Time < minTimeCost || cfg.Time > maxTimeCost:
		return fmt.Errorf("%w: time must be between %d and %d", ErrInvalidConfig, minTimeCost, maxTimeCost)
	case cfg.Parallelism < minParallelism:
		return fmt.Errorf("%w: parallelism must be >= %d", ErrInvalidConfig, minParallelism)
	case cfg.SaltLength < minSaltLength:
		return fmt.Errorf("%w: salt length must be >= %d", ErrInvalidConfig, minSaltLength)
	case cfg.MaxPasswordBytes < 0 || (cfg.MaxPasswordBytes > 0 && cfg.MaxPasswordBytes < minPassBytes):
		return fmt.Errorf("%w: max password bytes must be 0 or >= %d", ErrInvalidConfig, minPassBytes)
	case cfg.KeyLength < minKeyLength || cfg.KeyLength > maxKeyLength:
		return fmt.Errorf("%w: key length must be between %d and %d", ErrInvalidConfig, minKeyLength, maxKeyLength)
	}
	return nil
}
