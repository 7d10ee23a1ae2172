package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/okian/hangout/internal/adapters/repository"
	"github.com/okian/hangout/internal/adapters/repository/storetest"
)

const dsnEnv = "HANGOUT_TEST_POSTGRES_DSN"

func TestStore_Conformance(t *testing.T) {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}

	storetest.Run(t, func(t *testing.T) repository.Store {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := New(ctx, dsn, WithMaxConns(4))
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		if err := s.truncate(ctx); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return s
	})
}

func TestNew_BadDSN(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := New(ctx, "postgres://%zz"); err == nil {
		t.Fatal("expected parse error for malformed DSN")
	}
}
