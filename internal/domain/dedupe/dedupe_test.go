package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	dedupe "github.com/okian/hangout/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When a key is claimed for the first time", func() {
			id, dup := d.Claim(ctx, "sub-1", "req-1")

			Convey("Then it should be bound to the new request", func() {
				So(dup, ShouldBeFalse)
				So(id, ShouldEqual, "req-1")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same key is claimed again", func() {
			d.Claim(ctx, "sub-1", "req-1")
			id, dup := d.Claim(ctx, "sub-1", "req-2")

			Convey("Then the original request id should be returned", func() {
				So(dup, ShouldBeTrue)
				So(id, ShouldEqual, "req-1")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a claim is released", func() {
			d.Claim(ctx, "sub-1", "req-1")
			d.Release(ctx, "sub-1")

			Convey("Then the key should be claimable again", func() {
				So(d.Size(), ShouldEqual, 0)
				id, dup := d.Claim(ctx, "sub-1", "req-9")
				So(dup, ShouldBeFalse)
				So(id, ShouldEqual, "req-9")
			})
		})

		Convey("When releasing an unknown key", func() {
			d.Release(ctx, "nope")
			So(d.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 3; i++ {
			d.Claim(ctx, fmt.Sprintf("sub-%d", i), fmt.Sprintf("req-%d", i))
		}

		Convey("When one more key is claimed", func() {
			d.Claim(ctx, "sub-4", "req-4")

			Convey("Then the oldest key should be evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				_, dup := d.Claim(ctx, "sub-1", "req-1b")
				So(dup, ShouldBeFalse)
			})

			Convey("And newer keys should still be remembered", func() {
				id, dup := d.Claim(ctx, "sub-4", "other")
				So(dup, ShouldBeTrue)
				So(id, ShouldEqual, "req-4")
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		const n = 1000
		for i := 0; i < n; i++ {
			d.Claim(ctx, fmt.Sprintf("sub-%d", i), "r")
		}

		Convey("Then nothing should be evicted", func() {
			So(d.Size(), ShouldEqual, n)
			_, dup := d.Claim(ctx, "sub-0", "r")
			So(dup, ShouldBeTrue)
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given many goroutines claiming the same key", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var winners atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, dup := d.Claim(context.Background(), "shared", fmt.Sprintf("req-%d", i)); !dup {
					winners.Add(1)
				}
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one claim should win", func() {
			So(winners.Load(), ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
