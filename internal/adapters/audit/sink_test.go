package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/hangout/internal/adapters/audit"
	"github.com/okian/hangout/internal/domain/model"
	"github.com/okian/hangout/pkg/logger"
)

func sampleEntry() model.AuditEntry {
	return model.AuditEntry{
		ID:        "a-1",
		Action:    model.AuditAssigned,
		Actor:     "admin",
		Requester: "alice",
		RequestID: "r-1",
		EventID:   "e-1",
		At:        time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestLogSink(t *testing.T) {
	Convey("Given a log sink writing JSON to a buffer", t, func() {
		var buf bytes.Buffer
		sink := audit.NewLogSink(logger.New(logger.WithFormat(logger.FormatJSON), logger.WithWriter(&buf)))
		So(sink.Name(), ShouldEqual, "log")

		Convey("When an entry is delivered", func() {
			So(sink.Deliver(context.Background(), sampleEntry()), ShouldBeNil)

			Convey("Then the line should carry the entry fields", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, `"msg":"request.assigned"`)
				So(out, ShouldContainSubstring, `"audit_id":"a-1"`)
				So(out, ShouldContainSubstring, `"request_id":"r-1"`)
				So(out, ShouldContainSubstring, `"component":"audit"`)
			})
		})

		Convey("When an entry without an ID is delivered", func() {
			e := sampleEntry()
			e.ID = ""
			err := sink.Deliver(context.Background(), e)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, audit.ErrMissingID), ShouldBeTrue)
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestMemorySink(t *testing.T) {
	Convey("Given a memory sink", t, func() {
		sink := audit.NewMemorySink()

		Convey("Then delivered entries should be kept in order", func() {
			first := sampleEntry()
			second := sampleEntry()
			second.ID = "a-2"
			second.Action = model.AuditAccepted
			So(sink.Deliver(context.Background(), first), ShouldBeNil)
			So(sink.Deliver(context.Background(), second), ShouldBeNil)

			got := sink.Entries()
			So(got, ShouldHaveLength, 2)
			So(got[0].ID, ShouldEqual, "a-1")
			So(got[1].Action, ShouldEqual, model.AuditAccepted)
		})
	})
}

func TestNATSSink_Validation(t *testing.T) {
	Convey("Given invalid NATS settings", t, func() {
		_, err := audit.NewNATSSink("")
		So(errors.Is(err, audit.ErrNoServers), ShouldBeTrue)

		_, err = audit.NewNATSSink("nats://127.0.0.1:4222", audit.WithSubject(" "))
		So(errors.Is(err, audit.ErrNoSubject), ShouldBeTrue)
	})
}

func TestNATSSink_Publish(t *testing.T) {
	url := os.Getenv("HANGOUT_TEST_NATS_URL")
	if url == "" {
		t.Skip("HANGOUT_TEST_NATS_URL not set")
	}

	Convey("Given a NATS sink and a subscriber", t, func() {
		sink, err := audit.NewNATSSink(url, audit.WithSubject(fmt.Sprintf("hangout_test_%d", time.Now().UnixNano())))
		So(err, ShouldBeNil)
		defer sink.Close()

		nc, err := nats.Connect(url)
		So(err, ShouldBeNil)
		defer nc.Close()

		entry := sampleEntry()
		sub, err := nc.SubscribeSync(sink.SubjectFor(entry))
		So(err, ShouldBeNil)
		So(nc.Flush(), ShouldBeNil)

		Convey("When an entry is delivered", func() {
			So(sink.Deliver(context.Background(), entry), ShouldBeNil)

			Convey("Then the subscriber should receive it as JSON", func() {
				msg, err := sub.NextMsg(2 * time.Second)
				So(err, ShouldBeNil)
				So(msg.Header.Get(nats.MsgIdHdr), ShouldEqual, "a-1")

				var got model.AuditEntry
				So(json.Unmarshal(msg.Data, &got), ShouldBeNil)
				So(got.RequestID, ShouldEqual, "r-1")
				So(got.Action, ShouldEqual, model.AuditAssigned)
			})
		})
	})
}
