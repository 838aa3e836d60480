package sources

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCallWithDeadlineReturnsValue(t *testing.T) {
	got, err := callWithDeadline(context.Background(), time.Second, func() (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("callWithDeadline() error = %v", err)
	}
	if got != 42 {
		t.Errorf("callWithDeadline() = %d, want 42", got)
	}
}

func TestCallWithDeadlinePropagatesError(t *testing.T) {
	wantErr := errors.New("upstream broke")
	_, err := callWithDeadline(context.Background(), time.Second, func() (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("callWithDeadline() error = %v, want %v", err, wantErr)
	}
}

func TestCallWithDeadlineTimesOut(t *testing.T) {
	start := time.Now()
	_, err := callWithDeadline(context.Background(), 20*time.Millisecond, func() (int, error) {
		time.Sleep(time.Second)
		return 0, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("callWithDeadline() error = %v, want DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("callWithDeadline() returned after %v, deadline not enforced", elapsed)
	}
}

func TestOptionalFundamentalFields(t *testing.T) {
	// providers report missing ratios as zero, and zero is never a
	// meaningful PE or EPS, so zero maps to absent
	if got := optFloat(0); got != nil {
		t.Errorf("optFloat(0) = %v, want nil", *got)
	}
	if got := optFloat(24.5); got == nil || *got != 24.5 {
		t.Errorf("optFloat(24.5) = %v, want 24.5", got)
	}
	if got := optFloat(-3.1); got == nil || *got != -3.1 {
		t.Errorf("optFloat(-3.1) = %v, want -3.1 (negative EPS is real data)", got)
	}
	if got := optInt(0); got != nil {
		t.Errorf("optInt(0) = %v, want nil", *got)
	}
	if got := optInt(1_500_000); got == nil || *got != 1_500_000 {
		t.Errorf("optInt(1500000) = %v", got)
	}
}

func TestCallWithDeadlineHonorsCallerDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// the caller's tighter deadline wins over the fallback timeout
	_, err := callWithDeadline(ctx, time.Minute, func() (int, error) {
		time.Sleep(time.Second)
		return 0, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("callWithDeadline() error = %v, want DeadlineExceeded", err)
	}
}
