package timer

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type expiry struct {
	kind string
	room string
	conn string
}

type fakeExpirer struct {
	ch chan expiry
}

func newFakeExpirer() *fakeExpirer {
	return &fakeExpirer{ch: make(chan expiry, 16)}
}

func (f *fakeExpirer) AutoPick(ctx context.Context, roomCode, connectionID string) {
	f.ch <- expiry{kind: "auto-pick", room: roomCode, conn: connectionID}
}

func (f *fakeExpirer) CleanupRoom(ctx context.Context, roomCode string) {
	f.ch <- expiry{kind: "cleanup", room: roomCode}
}

func (f *fakeExpirer) wait(t *testing.T) expiry {
	t.Helper()
	select {
	case e := <-f.ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
		return expiry{}
	}
}

func (f *fakeExpirer) expectQuiet(t *testing.T) {
	t.Helper()
	select {
	case e := <-f.ch:
		t.Fatalf("unexpected expiry %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func newTestService() (*Service, *fakeExpirer, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	exp := newFakeExpirer()
	svc := New(clock)
	svc.Bind(exp)
	return svc, exp, clock
}

func TestArmFiresWithArmedConnection(t *testing.T) {
	svc, exp, clock := newTestService()

	svc.Arm("ROOM01", "conn-a", 10*time.Second)
	clock.Advance(10 * time.Second)

	got := exp.wait(t)
	if got.kind != "auto-pick" || got.room != "ROOM01" || got.conn != "conn-a" {
		t.Errorf("fired %+v, want auto-pick ROOM01/conn-a", got)
	}
	exp.expectQuiet(t)
}

func TestCancelStopsPendingTimer(t *testing.T) {
	svc, exp, clock := newTestService()

	svc.Arm("ROOM01", "conn-a", 10*time.Second)
	svc.Cancel("ROOM01")
	clock.Advance(time.Minute)

	exp.expectQuiet(t)
}

func TestRearmReplacesPriorTimer(t *testing.T) {
	svc, exp, clock := newTestService()

	svc.Arm("ROOM01", "conn-a", 10*time.Second)
	svc.Arm("ROOM01", "conn-b", 10*time.Second)
	clock.Advance(10 * time.Second)

	got := exp.wait(t)
	if got.conn != "conn-b" {
		t.Errorf("fired for %s, want the replacing arm conn-b", got.conn)
	}
	exp.expectQuiet(t)
}

func TestTimersArePerRoom(t *testing.T) {
	svc, exp, clock := newTestService()

	svc.Arm("ROOM01", "conn-a", 10*time.Second)
	svc.Arm("ROOM02", "conn-b", 20*time.Second)
	svc.Cancel("ROOM01")
	clock.Advance(20 * time.Second)

	got := exp.wait(t)
	if got.room != "ROOM02" || got.conn != "conn-b" {
		t.Errorf("fired %+v, want ROOM02/conn-b only", got)
	}
	exp.expectQuiet(t)
}

func TestCancelIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService()

	svc.Cancel("ROOM01")
	svc.Arm("ROOM01", "conn-a", 10*time.Second)
	svc.Cancel("ROOM01")
	svc.Cancel("ROOM01")
}

func TestCleanupFiresAfterGrace(t *testing.T) {
	svc, exp, clock := newTestService()

	svc.ScheduleCleanup("ROOM01", 10*time.Minute)
	clock.Advance(10 * time.Minute)

	got := exp.wait(t)
	if got.kind != "cleanup" || got.room != "ROOM01" {
		t.Errorf("fired %+v, want cleanup ROOM01", got)
	}
}

func TestCancelCleanupStopsPendingCleanup(t *testing.T) {
	svc, exp, clock := newTestService()

	svc.ScheduleCleanup("ROOM01", 10*time.Minute)
	svc.CancelCleanup("ROOM01")
	clock.Advance(time.Hour)

	exp.expectQuiet(t)
}

func TestTurnAndCleanupTimersAreIndependent(t *testing.T) {
	svc, exp, clock := newTestService()

	svc.Arm("ROOM01", "conn-a", 10*time.Second)
	svc.ScheduleCleanup("ROOM01", 10*time.Second)
	svc.Cancel("ROOM01")
	clock.Advance(10 * time.Second)

	got := exp.wait(t)
	if got.kind != "cleanup" {
		t.Errorf("fired %+v, want only the cleanup to survive the turn cancel", got)
	}
	exp.expectQuiet(t)
}
