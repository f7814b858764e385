package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost bounds mirror the underlying bcrypt implementation; DefaultCost is
// the project default, chosen above bcrypt's own.
const (
	MinCost     = bcrypt.MinCost
	MaxCost     = bcrypt.MaxCost
	DefaultCost = 12
)

// Config holds the bcrypt work factor.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	Cost int
}

// Hasher hashes and verifies passwords with a fixed bcrypt cost. The cost is
// deliberately expensive to make offline brute force impractical.
type Hasher struct {
	config Config
}

// NewHasher creates a Hasher. A zero cost selects the default (12).
func NewHasher(cfg Config) (*Hasher, error) {
	if cfg.Cost == 0 {
		cfg.Cost = DefaultCost
	}
	if cfg.Cost < MinCost || cfg.Cost > MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Hasher{config: cfg}, nil
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int {
	return h.config.Cost
}

// Hash derives a bcrypt digest from password. Password bytes are used exactly
// as provided (no Unicode normalization).
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.config.Cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether password matches digest. A malformed or empty digest
// verifies as false rather than returning an error, so accounts without a
// local password simply never match.
func (h *Hasher) Verify(password, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// NeedsRehash reports whether digest was produced with a lower cost than the
// configured one. Malformed digests report false; they fail Verify anyway.
func (h *Hasher) NeedsRehash(digest string) bool {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return false
	}
	return cost < h.config.Cost
}
