package server

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kuidando/kuidando/models"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHubBroadcastReachesEverySubscriber(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	a := hub.subscribe(nil)
	b := hub.subscribe(nil)

	report := models.NewReportResponse(models.Report{ID: uuid.New()}, 0, false)
	hub.ReportCreated(report)

	for name, client := range map[string]*hubClient{"a": a, "b": b} {
		select {
		case ev := <-client.send:
			if ev.Type != EventReportCreated || ev.ReportID != report.ID {
				t.Errorf("client %s got %+v", name, ev)
			}
		default:
			t.Errorf("client %s received nothing", name)
		}
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	slow := hub.subscribe(nil)
	for i := 0; i < clientQueueSize+1; i++ {
		hub.ReportDeleted(uuid.New())
	}

	if hub.ClientCount() != 0 {
		t.Errorf("slow client still subscribed, count = %d", hub.ClientCount())
	}
	// Its queue must be closed so the writer loop can exit.
	drained := 0
	for range slow.send {
		drained++
	}
	if drained != clientQueueSize {
		t.Errorf("drained %d queued events, want %d", drained, clientQueueSize)
	}
}

func TestHubUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	client := hub.subscribe(nil)
	hub.unsubscribe(client)
	hub.unsubscribe(client)

	if hub.ClientCount() != 0 {
		t.Errorf("count = %d after unsubscribe", hub.ClientCount())
	}
	// No events after unsubscribe.
	hub.ReportSupported(uuid.New(), 3)
	if _, ok := <-client.send; ok {
		t.Error("unsubscribed client received an event")
	}
}

func TestHubStop(t *testing.T) {
	hub := NewHub()
	client := hub.subscribe(nil)

	hub.Stop()
	if _, ok := <-client.send; ok {
		t.Error("client channel open after Stop")
	}

	// Broadcasts and new subscriptions after Stop are inert.
	hub.ReportDeleted(uuid.New())
	late := hub.subscribe(nil)
	if _, ok := <-late.send; ok {
		t.Error("late subscriber got an open channel on a stopped hub")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("count = %d after Stop", hub.ClientCount())
	}
}

func TestHubSupportEventCarriesCount(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	client := hub.subscribe(nil)
	id := uuid.New()
	hub.ReportSupported(id, 7)

	ev := <-client.send
	if ev.Type != EventReportSupported || ev.ReportID != id || ev.Supporters != 7 {
		t.Errorf("event = %+v", ev)
	}
}
