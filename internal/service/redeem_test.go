package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/spin-wheel-redemption/internal/utils"
)

// ----- fakes -----

type fakeConsumer struct {
	mu       sync.Mutex
	uses     int
	maxUses  int
	known    string // hash the fake recognizes
	err      error
	consumed []string // hashes passed to Consume, in order
}

func (f *fakeConsumer) Consume(_ context.Context, codeHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	f.consumed = append(f.consumed, codeHash)
	if codeHash != f.known || f.uses >= f.maxUses {
		return false, nil
	}
	f.uses++
	return true, nil
}

type fakeAttempts struct {
	mu       sync.Mutex
	prior    int
	countErr error
	recErr   error
	recorded []string // client hashes passed to Record, in order
}

func (f *fakeAttempts) CountRecent(_ context.Context, _ string, _ time.Duration) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.prior, nil
}

func (f *fakeAttempts) Record(_ context.Context, ipHash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recErr != nil {
		return "", f.recErr
	}
	f.recorded = append(f.recorded, ipHash)
	return "attempt-id", nil
}

type fakeAwards struct {
	mu      sync.Mutex
	inserts []int // prize amounts persisted
	err     error
}

func (f *fakeAwards) Insert(_ context.Context, _ string, prizeCents int, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.inserts = append(f.inserts, prizeCents)
	return "spin-id", nil
}

type fakeWheel struct {
	mu    sync.Mutex
	draws int
	prize int
}

func (f *fakeWheel) Draw() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draws++
	return f.prize
}

func newRedeemer(codeHash string) (*Redeemer, *fakeConsumer, *fakeAttempts, *fakeAwards, *fakeWheel) {
	codes := &fakeConsumer{known: codeHash, maxUses: 1}
	attempts := &fakeAttempts{}
	awards := &fakeAwards{}
	wheel := &fakeWheel{prize: 500}
	r := &Redeemer{
		Codes:    codes,
		Attempts: attempts,
		Awards:   awards,
		Wheel:    wheel,
		Salt:     "pepper",
		Window:   time.Hour,
		Limit:    5,
	}
	return r, codes, attempts, awards, wheel
}

// ----- tests -----

func TestRedeemMalformedCode(t *testing.T) {
	r, codes, attempts, _, _ := newRedeemer(utils.HashCode("04821"))
	for _, code := range []string{"", "1234", "123456", "abcde", "1234x", "04 21"} {
		if _, err := r.Redeem(context.Background(), code, "1.2.3.4"); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("code %q: got %v, want ErrInvalidFormat", code, err)
		}
	}
	// Malformed input must not touch the store at all.
	if len(attempts.recorded) != 0 {
		t.Error("malformed code should not record an attempt")
	}
	if len(codes.consumed) != 0 {
		t.Error("malformed code should not reach the registry")
	}
}

func TestRedeemThrottled(t *testing.T) {
	r, _, attempts, _, wheel := newRedeemer(utils.HashCode("04821"))
	attempts.prior = 5

	if _, err := r.Redeem(context.Background(), "04821", "1.2.3.4"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("got %v, want ErrTooManyAttempts", err)
	}
	// The throttled attempt itself is not recorded: the check sees only
	// prior attempts.
	if len(attempts.recorded) != 0 {
		t.Error("throttled request should not record an attempt")
	}
	if wheel.draws != 0 {
		t.Error("throttled request should not draw a prize")
	}
}

func TestRedeemFifthAttemptStillAllowed(t *testing.T) {
	r, _, attempts, _, _ := newRedeemer(utils.HashCode("04821"))
	attempts.prior = 4

	prize, err := r.Redeem(context.Background(), "04821", "1.2.3.4")
	if err != nil {
		t.Fatalf("fifth attempt in window should pass the limiter, got %v", err)
	}
	if prize != 500 {
		t.Errorf("prize = %d, want 500", prize)
	}
}

func TestRedeemInvalidCodeStillBurnsAttempt(t *testing.T) {
	r, _, attempts, awards, wheel := newRedeemer(utils.HashCode("04821"))

	_, err := r.Redeem(context.Background(), "99999", "1.2.3.4")
	if !errors.Is(err, ErrCodeUnredeemable) {
		t.Fatalf("got %v, want ErrCodeUnredeemable", err)
	}
	if len(attempts.recorded) != 1 {
		t.Error("failed redemption must still record its attempt")
	}
	if wheel.draws != 0 {
		t.Error("failed redemption must not draw a prize")
	}
	if len(awards.inserts) != 0 {
		t.Error("failed redemption must not persist an award")
	}
}

func TestRedeemSuccess(t *testing.T) {
	codeHash := utils.HashCode("04821")
	r, codes, attempts, awards, wheel := newRedeemer(codeHash)

	prize, err := r.Redeem(context.Background(), "04821", "1.2.3.4")
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if prize != 500 {
		t.Errorf("prize = %d, want 500", prize)
	}
	if len(attempts.recorded) != 1 {
		t.Errorf("attempts recorded = %d, want 1", len(attempts.recorded))
	}
	if attempts.recorded[0] != utils.HashClient("1.2.3.4", "pepper") {
		t.Error("attempt recorded under wrong client hash")
	}
	if len(codes.consumed) != 1 || codes.consumed[0] != codeHash {
		t.Error("registry consulted with wrong code hash")
	}
	if wheel.draws != 1 {
		t.Errorf("wheel drawn %d times, want exactly 1", wheel.draws)
	}
	if len(awards.inserts) != 1 || awards.inserts[0] != 500 {
		t.Errorf("award inserts = %v, want [500]", awards.inserts)
	}
}

func TestRedeemSecondUseFails(t *testing.T) {
	r, _, _, awards, _ := newRedeemer(utils.HashCode("04821"))

	if _, err := r.Redeem(context.Background(), "04821", "1.2.3.4"); err != nil {
		t.Fatalf("first redemption: %v", err)
	}
	if _, err := r.Redeem(context.Background(), "04821", "1.2.3.4"); !errors.Is(err, ErrCodeUnredeemable) {
		t.Fatalf("second redemption: got %v, want ErrCodeUnredeemable", err)
	}
	if len(awards.inserts) != 1 {
		t.Errorf("awards persisted = %d, want 1", len(awards.inserts))
	}
}

// TestRedeemConcurrentSingleWinner hammers one single-use code from many
// goroutines.  The consumer fake increments under a lock the same way the
// database's conditional UPDATE serializes, so exactly one goroutine may
// win; everyone else must see ErrCodeUnredeemable.
func TestRedeemConcurrentSingleWinner(t *testing.T) {
	r, _, _, awards, wheel := newRedeemer(utils.HashCode("04821"))
	r.Limit = 1000 // keep the limiter out of this test

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Redeem(context.Background(), "04821", "1.2.3.4")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins, losses := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrCodeUnredeemable):
			losses++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}
	if losses != workers-1 {
		t.Errorf("losses = %d, want %d", losses, workers-1)
	}
	if len(awards.inserts) != 1 {
		t.Errorf("awards persisted = %d, want 1", len(awards.inserts))
	}
	if wheel.draws != 1 {
		t.Errorf("wheel drawn %d times, want 1", wheel.draws)
	}
}

func TestRedeemStorageErrors(t *testing.T) {
	boom := errors.New("db down")

	t.Run("count fails", func(t *testing.T) {
		r, _, attempts, _, _ := newRedeemer(utils.HashCode("04821"))
		attempts.countErr = boom
		_, err := r.Redeem(context.Background(), "04821", "1.2.3.4")
		if !errors.Is(err, boom) {
			t.Errorf("got %v, want wrapped %v", err, boom)
		}
	})

	t.Run("record fails", func(t *testing.T) {
		r, codes, attempts, _, _ := newRedeemer(utils.HashCode("04821"))
		attempts.recErr = boom
		_, err := r.Redeem(context.Background(), "04821", "1.2.3.4")
		if !errors.Is(err, boom) {
			t.Errorf("got %v, want wrapped %v", err, boom)
		}
		if len(codes.consumed) != 0 {
			t.Error("consume must not run when the attempt write failed")
		}
	})

	t.Run("consume fails", func(t *testing.T) {
		r, codes, _, _, wheel := newRedeemer(utils.HashCode("04821"))
		codes.err = boom
		_, err := r.Redeem(context.Background(), "04821", "1.2.3.4")
		if !errors.Is(err, boom) {
			t.Errorf("got %v, want wrapped %v", err, boom)
		}
		if wheel.draws != 0 {
			t.Error("draw must not run when consume errored")
		}
	})

	t.Run("award insert fails", func(t *testing.T) {
		r, _, _, awards, _ := newRedeemer(utils.HashCode("04821"))
		awards.err = boom
		_, err := r.Redeem(context.Background(), "04821", "1.2.3.4")
		if !errors.Is(err, boom) {
			t.Errorf("got %v, want wrapped %v", err, boom)
		}
	})
}
