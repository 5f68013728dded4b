package service

import (
    "context"
    "crypto/rand"
    "fmt"
    "math/big"
    "time"

    "github.com/iliyamo/spin-wheel-redemption/internal/utils"
)

// TTL bounds for issued codes, in seconds.
const (
    MinTTLSeconds     = 60
    MaxTTLSeconds     = 86400
    DefaultTTLSeconds = 600
)

// ClampTTL normalizes a caller-supplied TTL to the accepted range.  A nil
// value means the caller left it out and gets the default.
func ClampTTL(ttlSeconds *int) int {
    if ttlSeconds == nil {
        return DefaultTTLSeconds
    }
    ttl := *ttlSeconds
    if ttl < MinTTLSeconds {
        return MinTTLSeconds
    }
    if ttl > MaxTTLSeconds {
        return MaxTTLSeconds
    }
    return ttl
}

// CodeStore persists issued codes.  Implemented by repository.CodeRepo.
type CodeStore interface {
    Upsert(ctx context.Context, codeHash string, expiresAt time.Time) error
}

// IssuedCode is what the operator gets back: the plaintext code to hand
// out and its expiry.  The plaintext exists only in this response; the
// store keeps the hash.
type IssuedCode struct {
    Code      string    `json:"code"`
    ExpiresAt time.Time `json:"expiresAt"`
}

// Issuer creates single-use redemption codes.
type Issuer struct {
    Codes CodeStore
}

// Issue generates a random five-digit code (leading zeros preserved) and
// stores its hash as a fresh single-use record expiring ttlSeconds from
// now.  If the generated plaintext collides with a live code, the existing
// record is silently reset; over a 100000-value keyspace that is the
// accepted trade-off, documented where the repository does the upsert.
func (i *Issuer) Issue(ctx context.Context, ttlSeconds int) (IssuedCode, error) {
    n, err := rand.Int(rand.Reader, big.NewInt(100000))
    if err != nil {
        return IssuedCode{}, fmt.Errorf("generate code: %w", err)
    }
    code := fmt.Sprintf("%05d", n.Int64())

    // DATETIME columns hold whole seconds, so drop the sub-second part here
    // too; the expiry we return is exactly the one the database enforces.
    expiresAt := time.Now().UTC().Add(time.Duration(ttlSeconds) * time.Second).Truncate(time.Second)
    if err := i.Codes.Upsert(ctx, utils.HashCode(code), expiresAt); err != nil {
        return IssuedCode{}, fmt.Errorf("store code: %w", err)
    }
    return IssuedCode{Code: code, ExpiresAt: expiresAt}, nil
}
