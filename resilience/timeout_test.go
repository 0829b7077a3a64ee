package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewTimeout_Default(t *testing.T) {
	if got := NewTimeout(TimeoutConfig{}).Duration(); got != DefaultTimeout {
		t.Errorf("Duration() = %v, want %v", got, DefaultTimeout)
	}
}

func TestTimeout_Execute(t *testing.T) {
	opErr := errors.New("connection refused")

	tests := []struct {
		name    string
		timeout time.Duration
		op      func(context.Context) error
		want    error
	}{
		{
			name:    "completes",
			timeout: time.Second,
			op:      func(context.Context) error { return nil },
		},
		{
			name:    "op error passes through",
			timeout: time.Second,
			op:      func(context.Context) error { return opErr },
			want:    opErr,
		},
		{
			name:    "deadline",
			timeout: 10 * time.Millisecond,
			op: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
			want: ErrTimeout,
		},
		{
			name:    "op ignores context",
			timeout: 10 * time.Millisecond,
			op: func(context.Context) error {
				time.Sleep(200 * time.Millisecond)
				return nil
			},
			want: ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTimeout(TimeoutConfig{Timeout: tt.timeout}).Execute(context.Background(), tt.op)
			if !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTimeout_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	err := NewTimeout(TimeoutConfig{Timeout: time.Second}).Execute(ctx, func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestTimeout_ExecuteForOverrides(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Hour})

	start := time.Now()
	err := to.ExecuteFor(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("ExecuteFor() error = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("override deadline not applied")
	}
}
