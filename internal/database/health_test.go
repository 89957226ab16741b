package database

import (
	"context"
	"errors"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheckHealth(t *testing.T) {
	t.Run("applies a deadline", func(t *testing.T) {
		err := CheckHealth(context.Background(), pingFunc(func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected ping context to carry a deadline")
			}
			return nil
		}))
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})

	t.Run("wraps ping failures", func(t *testing.T) {
		pingErr := errors.New("connection refused")
		err := CheckHealth(context.Background(), pingFunc(func(context.Context) error { return pingErr }))

		if !errors.Is(err, pingErr) {
			t.Errorf("expected wrapped ping error, got %v", err)
		}
	})
}
