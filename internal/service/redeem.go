// Package service holds the business logic between the HTTP handlers and
// the repositories: code issuance and the redemption flow.
package service

import (
    "context"
    "errors"
    "fmt"
    "regexp"
    "time"

    "github.com/iliyamo/spin-wheel-redemption/internal/queue"
    "github.com/iliyamo/spin-wheel-redemption/internal/utils"
)

// Sentinel errors returned by Redeem.  The messages are surfaced to the
// caller verbatim, so they are phrased for end users.  A spent, expired and
// unknown code all map to ErrCodeUnredeemable on purpose: the caller must
// not learn which it was.
var (
    ErrInvalidFormat    = errors.New("Invalid code format")
    ErrTooManyAttempts  = errors.New("Too many attempts. Try later.")
    ErrCodeUnredeemable = errors.New("Code invalid, used, or expired")
)

// codePattern is the only accepted code shape: exactly five decimal digits,
// leading zeros significant.
var codePattern = regexp.MustCompile(`^\d{5}$`)

// CodeConsumer atomically spends one use of a code.  Implemented by
// repository.CodeRepo.
type CodeConsumer interface {
    Consume(ctx context.Context, codeHash string) (bool, error)
}

// AttemptStore records and counts redemption attempts per hashed client.
// Implemented by repository.AttemptRepo.
type AttemptStore interface {
    CountRecent(ctx context.Context, ipHash string, window time.Duration) (int, error)
    Record(ctx context.Context, ipHash string) (string, error)
}

// AwardStore persists awarded prizes.  Implemented by repository.SpinRepo.
type AwardStore interface {
    Insert(ctx context.Context, codeHash string, prizeCents int, ipHash string) (string, error)
}

// Drawer picks a prize amount.  Implemented by prize.Wheel.
type Drawer interface {
    Draw() int
}

// Redeemer coordinates a single redemption request: throttle check, attempt
// recording, atomic code consumption, prize draw and award persistence, in
// that order.  Each step is individually safe to have happened even if a
// later one fails, so there is no rollback logic.
type Redeemer struct {
    Codes    CodeConsumer
    Attempts AttemptStore
    Awards   AwardStore
    Wheel    Drawer

    Salt   string        // salt for hashing client addresses
    Window time.Duration // trailing window for the attempt budget
    Limit  int           // attempts allowed within the window

    // Publish, when set, emits a PrizeAwardedEvent after the award row is
    // committed.  Strictly fire and forget.
    Publish func(ctx context.Context, ev queue.PrizeAwardedEvent) error
}

// Redeem runs the redemption flow for a plaintext code submitted from the
// given client address and returns the awarded amount in cents.
//
// Ordering matters. The throttle check sees only prior attempts, so the
// last attempt inside the budget still reaches code validation.  The
// attempt row is then written unconditionally: invalid and expired codes
// burn a slot too, which is what stops brute-force guessing over the tiny
// keyspace.  The prize is drawn only after the code is confirmed consumed,
// so a failed redemption never moves the wheel.
func (r *Redeemer) Redeem(ctx context.Context, code, clientAddr string) (int, error) {
    if !codePattern.MatchString(code) {
        return 0, ErrInvalidFormat
    }

    ipHash := utils.HashClient(clientAddr, r.Salt)
    tries, err := r.Attempts.CountRecent(ctx, ipHash, r.Window)
    if err != nil {
        return 0, fmt.Errorf("count attempts: %w", err)
    }
    if tries >= r.Limit {
        return 0, ErrTooManyAttempts
    }

    if _, err := r.Attempts.Record(ctx, ipHash); err != nil {
        return 0, fmt.Errorf("record attempt: %w", err)
    }

    codeHash := utils.HashCode(code)
    consumed, err := r.Codes.Consume(ctx, codeHash)
    if err != nil {
        return 0, fmt.Errorf("consume code: %w", err)
    }
    if !consumed {
        // The attempt above stands; that is intentional.
        return 0, ErrCodeUnredeemable
    }

    prizeCents := r.Wheel.Draw()

    spinID, err := r.Awards.Insert(ctx, codeHash, prizeCents, ipHash)
    if err != nil {
        return 0, fmt.Errorf("record award: %w", err)
    }

    if r.Publish != nil {
        ev := queue.PrizeAwardedEvent{
            SpinID:     spinID,
            CodeHash:   codeHash,
            PrizeCents: prizeCents,
            ClientHash: ipHash,
            AwardedAt:  time.Now().UTC().Format(time.RFC3339),
        }
        // Detached from the request context: the response must not wait on
        // the broker, and a broker outage must not fail the redemption.
        go func() { _ = r.Publish(context.Background(), ev) }()
    }

    return prizeCents, nil
}
