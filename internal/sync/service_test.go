package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tungdibui2609/saritaqr/internal/location"
	"github.com/tungdibui2609/saritaqr/internal/models"
	"github.com/tungdibui2609/saritaqr/internal/services/central"
)

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Publish(event string, payload interface{}) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *recordingNotifier) saw(event string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e == event {
			return true
		}
	}
	return false
}

func TestQueueScanAssignNormalizesInput(t *testing.T) {
	svc, st, _ := newTestService(&fakeBackend{}, Config{})

	m, err := svc.QueueScanAssign("  lot-77a ", "a-k1d2t3.pl4", 12, "box", "", "anna")
	if err != nil {
		t.Fatalf("QueueScanAssign: %v", err)
	}
	if m.LotCode != "LOT-77A" {
		t.Errorf("LotCode = %q, want LOT-77A", m.LotCode)
	}
	if m.ToPos != "A-K1D2T3.PL4" {
		t.Errorf("ToPos = %q, want A-K1D2T3.PL4", m.ToPos)
	}
	if m.ID == "" {
		t.Error("mutation did not get an ID")
	}

	pending, _ := st.ListAll()
	if len(pending) != 1 {
		t.Fatalf("queue holds %d rows, want 1", len(pending))
	}

	if _, err := svc.QueueScanAssign("", "A-K1D2T3.PL4", 1, "box", "", ""); err == nil {
		t.Error("empty lot code must be rejected")
	}
	if _, err := svc.QueueScanAssign("LOT-1", "  ", 1, "box", "", ""); err == nil {
		t.Error("empty position must be rejected")
	}
}

func TestQueueHallMoveValidatesWarehouse(t *testing.T) {
	svc, _, _ := newTestService(&fakeBackend{}, Config{})

	if _, err := svc.QueueHallMove("LOT-1", "A-K1D1T1.PL1", 9, "", ""); err == nil {
		t.Error("warehouse 9 is outside the fleet and must be rejected")
	}
	if _, err := svc.QueueHallMove("LOT-1", "A-K1D1T1.PL1", 2, "", ""); err != nil {
		t.Errorf("fleet warehouse rejected: %v", err)
	}
	if _, err := svc.QueueHallMove("LOT-2", "A-K1D1T1.PL1", models.AutoWarehouse, "", ""); err != nil {
		t.Errorf("AUTO rejected: %v", err)
	}
	if _, err := svc.QueueHallMove("", "A-K1D1T1.PL1", models.AutoWarehouse, "", ""); err == nil {
		t.Error("empty lot code must be rejected")
	}
}

func TestQueueOrderMovesZipsLotsAndSources(t *testing.T) {
	svc, st, _ := newTestService(&fakeBackend{}, Config{})

	order := central.ExportOrder{
		ID:        "EXP-31",
		LotCodes:  []string{"LOT-1", "LOT-2", "LOT-3"},
		Locations: []string{"A-K1D1T1.PL1", "A-K1D1T1.PL2"},
	}
	queued, err := svc.QueueOrderMoves(order, 2)
	if err != nil {
		t.Fatalf("QueueOrderMoves: %v", err)
	}
	if len(queued) != 3 {
		t.Fatalf("queued %d mutations, want 3", len(queued))
	}

	for i, m := range queued {
		if m.Kind != models.MutationHallMove {
			t.Errorf("mutation %d kind = %s", i, m.Kind)
		}
		if m.TargetWarehouse != 2 {
			t.Errorf("mutation %d warehouse = %d, want 2", i, m.TargetWarehouse)
		}
		if m.WorkOrderID != "EXP-31" {
			t.Errorf("mutation %d order = %q", i, m.WorkOrderID)
		}
	}
	// the order lists one location fewer than it has lots; the odd one out
	// goes without a source
	if queued[0].FromPos != "A-K1D1T1.PL1" || queued[1].FromPos != "A-K1D1T1.PL2" {
		t.Errorf("sources = %q, %q", queued[0].FromPos, queued[1].FromPos)
	}
	if queued[2].FromPos != "" {
		t.Errorf("third source = %q, want empty", queued[2].FromPos)
	}

	pending, _ := st.ListAll()
	if len(pending) != 3 {
		t.Errorf("queue holds %d rows, want 3", len(pending))
	}
}

func TestCancelWithdrawsMutation(t *testing.T) {
	svc, _, _ := newTestService(&fakeBackend{}, Config{})

	m, err := svc.QueueHallMove("LOT-1", "A-K1D1T1.PL1", models.AutoWarehouse, "", "")
	if err != nil {
		t.Fatalf("QueueHallMove: %v", err)
	}
	if err := svc.Cancel(m.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	pending, err := svc.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("queue holds %d rows after cancel", len(pending))
	}

	// cancelling something already gone is a no-op
	if err := svc.Cancel("no-such-id"); err != nil {
		t.Errorf("Cancel(unknown) = %v", err)
	}
}

func TestAssignNextSlotSkipsClaimedSlots(t *testing.T) {
	svc, _, kv := newTestService(&fakeBackend{}, Config{})

	var list []string
	for pos := 1; pos <= 8; pos++ {
		list = append(list, location.Encode(location.Slot{Warehouse: 1, Zone: location.ZoneA, Row: 2, Level: 3, Pos: pos}))
	}
	if err := kv.Put(models.CacheKeyStaticLocations, list); err != nil {
		t.Fatal(err)
	}
	// the server snapshot holds PL2, a not-yet-synced scan holds PL1
	if err := kv.Put(models.CacheKeyOccupied, []central.OccupiedPosition{
		{PosCode: "A-K1D2T3.PL2", LotCode: "LOT-OLD"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.QueueScanAssign("LOT-PEND", "A-K1D2T3.PL1", 1, "box", "", ""); err != nil {
		t.Fatal(err)
	}

	m, err := svc.AssignNextSlot(AssignRequest{
		LotCode:   "LOT-NEW",
		Warehouse: 1,
		Zone:      location.ZoneA,
		Row:       2,
		Level:     3,
		Quantity:  5,
		Unit:      "box",
	})
	if err != nil {
		t.Fatalf("AssignNextSlot: %v", err)
	}
	if m.ToPos != "A-K1D2T3.PL3" {
		t.Errorf("assigned %q, want A-K1D2T3.PL3", m.ToPos)
	}

	// the assignment itself is now queued, so the next request moves on
	m2, err := svc.AssignNextSlot(AssignRequest{
		LotCode:   "LOT-NEXT",
		Warehouse: 1,
		Zone:      location.ZoneA,
		Row:       2,
		Level:     3,
	})
	if err != nil {
		t.Fatalf("second AssignNextSlot: %v", err)
	}
	if m2.ToPos != "A-K1D2T3.PL4" {
		t.Errorf("second assignment %q, want A-K1D2T3.PL4", m2.ToPos)
	}
}

func TestAssignNextSlotReportsFull(t *testing.T) {
	svc, _, kv := newTestService(&fakeBackend{}, Config{})

	// the rack is one pallet deep and that pallet is taken
	if err := kv.Put(models.CacheKeyStaticLocations, []string{"A-K1D2T3.PL1"}); err != nil {
		t.Fatal(err)
	}
	if err := kv.Put(models.CacheKeyOccupied, []central.OccupiedPosition{
		{PosCode: "A-K1D2T3.PL1", LotCode: "LOT-OLD"},
	}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.AssignNextSlot(AssignRequest{LotCode: "LOT-NEW", Warehouse: 1, Zone: location.ZoneA, Row: 2, Level: 3})
	if !errors.Is(err, ErrLocationFull) {
		t.Errorf("AssignNextSlot = %v, want ErrLocationFull", err)
	}
}

func TestAssignNextSlotUnknownCoordinateIsFull(t *testing.T) {
	// no static list downloaded yet: nothing is assignable
	svc, _, _ := newTestService(&fakeBackend{}, Config{})

	_, err := svc.AssignNextSlot(AssignRequest{LotCode: "LOT-NEW", Warehouse: 1, Zone: location.ZoneA, Row: 2, Level: 3})
	if !errors.Is(err, ErrLocationFull) {
		t.Errorf("AssignNextSlot = %v, want ErrLocationFull", err)
	}
}

func TestFindHallSlots(t *testing.T) {
	svc, _, kv := newTestService(&fakeBackend{}, Config{})

	if err := kv.Put(models.CacheKeyOccupied, []central.OccupiedPosition{
		{PosCode: "S-K1.PL1", LotCode: "LOT-A"},
		{PosCode: "S-K1.PL2", LotCode: "LOT-B"},
	}); err != nil {
		t.Fatal(err)
	}

	slots, err := svc.FindHallSlots(1, 3)
	if err != nil {
		t.Fatalf("FindHallSlots: %v", err)
	}
	want := []string{"S-K1.PL3", "S-K1.PL4", "S-K1.PL5"}
	if len(slots) != len(want) {
		t.Fatalf("slots = %v, want %v", slots, want)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("slots[%d] = %s, want %s", i, slots[i], want[i])
		}
	}

	if _, err := svc.FindHallSlots(9, 1); err == nil {
		t.Error("warehouse 9 is outside the fleet and must be rejected")
	}
}

func TestStatusReflectsQueue(t *testing.T) {
	svc, _, _ := newTestService(&fakeBackend{}, Config{})

	svc.QueueScanAssign("LOT-1", "A-K1D1T1.PL1", 1, "box", "", "")
	svc.QueueHallMove("LOT-2", "A-K1D1T1.PL2", models.AutoWarehouse, "", "")

	status := svc.Status()
	if status["pending"].(int) != 2 {
		t.Errorf("pending = %v, want 2", status["pending"])
	}
	if status["is_running"].(bool) {
		t.Error("service reported running before Start")
	}
	if status["phase"].(Phase) != PhaseIdle {
		t.Errorf("phase = %v, want idle", status["phase"])
	}
	if ts := status["last_sync_at"].(*time.Time); ts != nil {
		t.Errorf("last_sync_at = %v on a service that never synced", ts)
	}
}

func TestServiceStartStop(t *testing.T) {
	svc, _, _ := newTestService(&fakeBackend{}, Config{})

	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.Start(); err == nil {
		t.Error("second Start must fail while running")
	}
	svc.Stop()
	svc.Stop() // idempotent

	if err := svc.Start(); err != nil {
		t.Errorf("restart after Stop: %v", err)
	}
	svc.Stop()
}

func TestNotifierSeesQueueAndSyncEvents(t *testing.T) {
	backend := &fakeBackend{}
	svc, _, _ := newTestService(backend, Config{})
	notify := &recordingNotifier{}
	svc.notify = notify

	svc.QueueScanAssign("LOT-1", "A-K1D1T1.PL1", 1, "box", "", "")
	if !notify.saw("queue_changed") {
		t.Error("queueing did not publish queue_changed")
	}

	if _, err := svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if !notify.saw("sync_started") || !notify.saw("sync_done") {
		t.Errorf("events = %v, want sync_started and sync_done", notify.events)
	}
	if !notify.saw("sync_progress") {
		t.Errorf("events = %v, want sync_progress for the dispatched batch", notify.events)
	}
}

func TestNotifierSeesSyncFailure(t *testing.T) {
	backend := &fakeBackend{deletedErr: errors.New("no route to host")}
	svc, _, _ := newTestService(backend, Config{})
	notify := &recordingNotifier{}
	svc.notify = notify

	if _, err := svc.SyncNow(context.Background()); err == nil {
		t.Fatal("SyncNow must surface the fetch failure")
	}
	if !notify.saw("sync_failed") {
		t.Errorf("events = %v, want sync_failed", notify.events)
	}
}
