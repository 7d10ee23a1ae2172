package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/okian/hangout/internal/adapters/ledger"
	. "github.com/smartystreets/goconvey/convey"
)

func exerciseLedger(l ledger.Ledger, user string) {
	ctx := context.Background()

	Convey("Then an unknown user should have zero points", func() {
		n, err := l.Get(ctx, user)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 0)
	})

	Convey("Then Add should return the new total", func() {
		n, err := l.Add(ctx, user, 1)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 1)
		n, err = l.Add(ctx, user, 4)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 5)

		got, err := l.Get(ctx, user)
		So(err, ShouldBeNil)
		So(got, ShouldEqual, 5)
	})

	Convey("Then concurrent adds should not be lost", func() {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = l.Add(ctx, user, 1)
			}()
		}
		wg.Wait()
		n, err := l.Get(ctx, user)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 20)
	})

	Convey("Then a blank user should be rejected", func() {
		_, err := l.Add(ctx, " ", 1)
		So(errors.Is(err, ledger.ErrEmptyUser), ShouldBeTrue)
		_, err = l.Get(ctx, "")
		So(errors.Is(err, ledger.ErrEmptyUser), ShouldBeTrue)
	})
}

func TestMemoryLedger(t *testing.T) {
	Convey("Given an in-memory ledger", t, func() {
		l := ledger.NewMemory()
		defer l.Close()
		exerciseLedger(l, "alice")
	})
}

func TestRedisLedger(t *testing.T) {
	addr := os.Getenv("HANGOUT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HANGOUT_TEST_REDIS_ADDR not set")
	}

	Convey("Given a Redis ledger", t, func() {
		prefix := fmt.Sprintf("hangout:test:%d:", time.Now().UnixNano())
		l, err := ledger.NewRedis(context.Background(), addr, ledger.WithKeyPrefix(prefix))
		So(err, ShouldBeNil)
		defer l.Close()
		So(l.Ping(context.Background()), ShouldBeNil)
		exerciseLedger(l, fmt.Sprintf("user-%d", time.Now().UnixNano()))
	})
}

func TestRedisLedger_Unreachable(t *testing.T) {
	Convey("Given an address nothing listens on", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := ledger.NewRedis(ctx, "127.0.0.1:1")

		Convey("Then construction should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
