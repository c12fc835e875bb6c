package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestGenerateUnique_FirstAttempt(t *testing.T) {
	calls := 0
	v, err := GenerateUnique(context.Background(),
		func() (string, error) { calls++; return "a", nil },
		func(string) (bool, error) { return false, nil },
	)
	if err != nil {
		t.Fatalf("GenerateUnique: %v", err)
	}
	if v != "a" || calls != 1 {
		t.Errorf("got %q after %d calls, want %q after 1", v, calls, "a")
	}
}

func TestGenerateUnique_RetriesOnConflict(t *testing.T) {
	calls := 0
	v, err := GenerateUnique(context.Background(),
		func() (string, error) { calls++; return fmt.Sprintf("v%d", calls), nil },
		func(s string) (bool, error) { return s != "v3", nil },
	)
	if err != nil {
		t.Fatalf("GenerateUnique: %v", err)
	}
	if v != "v3" {
		t.Errorf("got %q, want fresh candidate %q", v, "v3")
	}
}

func TestGenerateUnique_Exhausted(t *testing.T) {
	calls := 0
	_, err := GenerateUnique(context.Background(),
		func() (string, error) { calls++; return "dup", nil },
		func(string) (bool, error) { return true, nil },
	)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("got %v, want ErrExhausted", err)
	}
	if calls != defaultAttempts {
		t.Errorf("attempts = %d, want %d", calls, defaultAttempts)
	}
}

func TestGenerateUnique_NonConflictErrorAborts(t *testing.T) {
	boom := errors.New("store down")
	calls := 0
	_, err := GenerateUnique(context.Background(),
		func() (string, error) { calls++; return "a", nil },
		func(string) (bool, error) { return false, boom },
	)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want store error", err)
	}
	if calls != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on hard error)", calls)
	}
}

func TestGenerateUnique_FactoryErrorAborts(t *testing.T) {
	boom := errors.New("entropy exhausted")
	_, err := GenerateUnique(context.Background(),
		func() (string, error) { return "", boom },
		func(string) (bool, error) { t.Fatal("insert should not run"); return false, nil },
	)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want factory error", err)
	}
}

func TestGenerateUnique_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GenerateUnique(ctx,
		func() (string, error) { return "a", nil },
		func(string) (bool, error) { return true, nil },
	)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
