package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/tungdibui2609/saritaqr/internal/allocation"
	"github.com/tungdibui2609/saritaqr/internal/location"
	"github.com/tungdibui2609/saritaqr/internal/models"
	"github.com/tungdibui2609/saritaqr/internal/offline"
	"github.com/tungdibui2609/saritaqr/internal/services/central"
	"github.com/tungdibui2609/saritaqr/internal/store"
)

var (
	// ErrSyncInProgress rejects a second pass while one is running. Passes
	// never queue up: the caller retries when the current one finishes.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrLocationFull is the "no free pallet slot here" answer. It is an
	// expected condition the operator resolves by picking another shelf.
	ErrLocationFull = errors.New("no free slot at this location")
)

// Backend is the slice of the central API the sync service drives.
// *central.Client implements it; tests run against a scripted fake.
type Backend interface {
	DeletedLots(ctx context.Context) ([]central.DeletedLot, error)
	OccupiedPositions(ctx context.Context) ([]central.OccupiedPosition, error)
	MoveLot(ctx context.Context, req central.MoveRequest) error
	SyncScans(ctx context.Context, items []central.ScanItem) error
	SyncWork(ctx context.Context, moves []central.WorkMove) error
	WarehouseStatus(ctx context.Context, warehouseID int) (*central.WarehouseStatus, error)
	StaticLocations(ctx context.Context) ([]string, error)
	ExportOrders(ctx context.Context, status string) ([]central.ExportOrder, error)
}

// Notifier publishes agent events to connected UI clients. A nil Notifier is
// valid and silent.
type Notifier interface {
	Publish(event string, payload interface{})
}

// Config tunes one sync service instance.
type Config struct {
	// Warehouses is the fleet in AUTO allocation order.
	Warehouses []int
	// BatchSize mutations go out per burst, BatchDelay apart. The central
	// server rate-limits, so bursts are kept small and spaced.
	BatchSize  int
	BatchDelay time.Duration
	// LegacyMoveSync routes moves through the old work/sync batch endpoint
	// for servers that predate positions/move.
	LegacyMoveSync   bool
	AutoSyncEnabled  bool
	AutoSyncInterval time.Duration
	SyncOnStartup    bool
	// PruneAfter is how long confirmed mutations stay around for support
	// before they are deleted.
	PruneAfter time.Duration
	// Operator stamps movedBy when a mutation carries no actor of its own.
	Operator string
}

func (c Config) withDefaults() Config {
	if len(c.Warehouses) == 0 {
		c.Warehouses = location.DefaultWarehouses
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = 500 * time.Millisecond
	}
	if c.AutoSyncInterval <= 0 {
		c.AutoSyncInterval = 5 * time.Minute
	}
	if c.PruneAfter <= 0 {
		c.PruneAfter = 30 * 24 * time.Hour
	}
	return c
}

// Service owns the pending-mutation queue and reconciles it against the
// central server. All queue writes go through it.
type Service struct {
	mu sync.RWMutex

	store   store.MutationStore
	kv      store.KV
	creds   *store.CredentialCache
	backend Backend
	index   *offline.Holder
	notify  Notifier
	config  Config

	// assignMu serializes slot picking, so two scans arriving together
	// cannot claim the same free slot.
	assignMu sync.Mutex

	phase          Phase
	lastReport     *Report
	isRunning      bool
	syncInProgress bool

	stopChan chan struct{}

	// injected in tests
	now   func() time.Time
	pause func(time.Duration)
}

func NewService(st store.MutationStore, kv store.KV, creds *store.CredentialCache, backend Backend, index *offline.Holder, notify Notifier, cfg Config) *Service {
	return &Service{
		store:   st,
		kv:      kv,
		creds:   creds,
		backend: backend,
		index:   index,
		notify:  notify,
		config:  cfg.withDefaults(),
		phase:   PhaseIdle,
		now:     time.Now,
		pause:   time.Sleep,
	}
}

// Start launches the background loops. It is not required for the queue and
// one-shot sync APIs, which work on a stopped service too.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("sync service already running")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})

	log.Println("🔄 Sync service starting...")

	if s.config.AutoSyncEnabled {
		go s.autoSyncLoop()
	}
	go s.pruneLoop()

	if s.config.SyncOnStartup {
		go func() {
			time.Sleep(5 * time.Second) // let the UI connect first
			if _, err := s.SyncNow(context.Background()); err != nil {
				log.Printf("⚠️ Startup sync skipped: %v", err)
			}
		}()
	}

	log.Println("✅ Sync service started")
	return nil
}

// Stop halts the background loops. A pass already in flight finishes.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	log.Println("🛑 Stopping sync service...")
	s.isRunning = false
	close(s.stopChan)
	log.Println("✅ Sync service stopped")
}

func (s *Service) autoSyncLoop() {
	ticker := time.NewTicker(s.config.AutoSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.SyncNow(context.Background()); err != nil {
				if errors.Is(err, ErrSyncInProgress) {
					continue
				}
				log.Printf("⚠️ Auto-sync failed: %v", err)
			}
		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) pruneLoop() {
	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	prune := func() {
		dropped, err := s.store.Prune(s.config.PruneAfter)
		if err != nil {
			log.Printf("⚠️ Prune failed: %v", err)
			return
		}
		if dropped > 0 {
			log.Printf("🧹 Pruned %d confirmed mutations", dropped)
		}
	}

	prune()
	for {
		select {
		case <-ticker.C:
			prune()
		case <-s.stopChan:
			return
		}
	}
}

// SyncNow runs one reconcile pass. Exactly one pass runs at a time; callers
// hitting an active pass get ErrSyncInProgress instead of waiting.
func (s *Service) SyncNow(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	if s.syncInProgress {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.syncInProgress = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.syncInProgress = false
		s.phase = PhaseIdle
		s.mu.Unlock()
	}()

	// a pass without a usable session would only burn the queue's one
	// attempt per mutation on guaranteed 401s
	if s.creds != nil {
		if _, err := s.creds.Token(); err != nil {
			return nil, err
		}
	}

	report, err := s.reconcile(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()
	return report, nil
}

// QueueScanAssign records a lot-to-slot assignment captured by the scanner.
func (s *Service) QueueScanAssign(lotCode, position string, quantity float64, unit, workOrderID, actor string) (*models.PendingMutation, error) {
	lotCode = offline.NormalizeLot(lotCode)
	position = strings.ToUpper(strings.TrimSpace(position))
	if lotCode == "" || position == "" {
		return nil, errors.New("lot code and position are required")
	}

	m := &models.PendingMutation{
		Kind:        models.MutationScanAssign,
		LotCode:     lotCode,
		ToPos:       position,
		Quantity:    quantity,
		Unit:        unit,
		WorkOrderID: workOrderID,
		Actor:       actor,
	}
	if err := s.store.Append(m); err != nil {
		return nil, err
	}
	s.publish("queue_changed", map[string]interface{}{"queued": m.ID})
	return m, nil
}

// QueueHallMove records a move into a staging hall. The destination slot is
// deliberately not chosen here: it is resolved at sync time against fresh
// occupancy. TargetWarehouse AutoWarehouse defers the warehouse too.
func (s *Service) QueueHallMove(lotCode, fromPos string, targetWarehouse int, workOrderID, actor string) (*models.PendingMutation, error) {
	lotCode = offline.NormalizeLot(lotCode)
	if lotCode == "" {
		return nil, errors.New("lot code is required")
	}
	if targetWarehouse != models.AutoWarehouse && !s.inFleet(targetWarehouse) {
		return nil, fmt.Errorf("warehouse %d is not in the fleet", targetWarehouse)
	}

	m := &models.PendingMutation{
		Kind:            models.MutationHallMove,
		LotCode:         lotCode,
		FromPos:         strings.ToUpper(strings.TrimSpace(fromPos)),
		TargetWarehouse: targetWarehouse,
		WorkOrderID:     workOrderID,
		Actor:           actor,
	}
	if err := s.store.Append(m); err != nil {
		return nil, err
	}
	s.publish("queue_changed", map[string]interface{}{"queued": m.ID})
	return m, nil
}

// QueueOrderMoves queues one hall move per lot of an export order. Orders
// sometimes list fewer locations than lots; missing sources stay empty and
// the server figures them out.
func (s *Service) QueueOrderMoves(order central.ExportOrder, targetWarehouse int) ([]models.PendingMutation, error) {
	var queued []models.PendingMutation
	for i, lot := range order.LotCodes {
		from := ""
		if i < len(order.Locations) {
			from = order.Locations[i]
		}
		m, err := s.QueueHallMove(lot, from, targetWarehouse, order.ID, "")
		if err != nil {
			return queued, fmt.Errorf("queueing %s from order %s: %w", lot, order.ID, err)
		}
		queued = append(queued, *m)
	}
	return queued, nil
}

// Cancel withdraws one queued mutation before it syncs.
func (s *Service) Cancel(id string) error {
	if err := s.store.RemoveMany([]string{id}); err != nil {
		return err
	}
	s.publish("queue_changed", map[string]interface{}{"cancelled": id})
	return nil
}

// Pending returns the queue in the order it will replay.
func (s *Service) Pending() ([]models.PendingMutation, error) {
	return s.store.ListAll()
}

// AssignRequest asks for the next free pallet slot at one shelf coordinate.
type AssignRequest struct {
	LotCode     string
	Warehouse   int
	Zone        location.Zone
	Row         int
	Level       int
	Quantity    float64
	Unit        string
	WorkOrderID string
	Actor       string
}

// AssignNextSlot picks the lowest free pallet slot at the coordinate and
// queues the assignment in one step, so the slot is claimed before the next
// scan asks. Free means: in the static location list, not occupied on the
// last snapshot, and not claimed by anything still queued.
func (s *Service) AssignNextSlot(req AssignRequest) (*models.PendingMutation, error) {
	s.assignMu.Lock()
	defer s.assignMu.Unlock()

	occupied, err := s.effectiveOccupancy()
	if err != nil {
		return nil, err
	}
	var locations []string
	if _, err := s.kv.Get(models.CacheKeyStaticLocations, &locations); err != nil {
		return nil, err
	}

	code := allocation.FindNextAvailable(req.Warehouse, req.Zone, req.Row, req.Level, locations, occupied)
	if code == "" {
		return nil, ErrLocationFull
	}
	return s.QueueScanAssign(req.LotCode, code, req.Quantity, req.Unit, req.WorkOrderID, req.Actor)
}

// FindHallSlots lists up to count free hall slots from the cached snapshots,
// for the operator choosing where to stage a pickup.
func (s *Service) FindHallSlots(warehouse, count int) ([]string, error) {
	if !s.inFleet(warehouse) {
		return nil, fmt.Errorf("warehouse %d is not in the fleet", warehouse)
	}
	occupied, err := s.effectiveOccupancy()
	if err != nil {
		return nil, err
	}
	return allocation.FindEmptyHallSlots(warehouse, count, occupied, nil), nil
}

// effectiveOccupancy merges the cached server snapshot with slots claimed by
// the queue.
func (s *Service) effectiveOccupancy() (allocation.Occupancy, error) {
	var snapshot []central.OccupiedPosition
	if _, err := s.kv.Get(models.CacheKeyOccupied, &snapshot); err != nil {
		return nil, err
	}
	pending, err := s.store.ListAll()
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(snapshot))
	for _, occ := range snapshot {
		codes = append(codes, occ.PosCode)
	}
	return allocation.MergeOccupancy(codes, pending), nil
}

// Status reports the service state for the UI status bar.
func (s *Service) Status() map[string]interface{} {
	s.mu.RLock()
	phase := s.phase
	running := s.isRunning
	inProgress := s.syncInProgress
	lastReport := s.lastReport
	s.mu.RUnlock()

	pending, err := s.store.ListAll()
	pendingCount := len(pending)
	if err != nil {
		pendingCount = -1
	}

	var lastSyncAt *time.Time
	var stamp time.Time
	if ok, _ := s.kv.Get(models.CacheKeyLastSyncAt, &stamp); ok {
		lastSyncAt = &stamp
	}

	status := map[string]interface{}{
		"is_running":       running,
		"sync_in_progress": inProgress,
		"phase":            phase,
		"pending":          pendingCount,
		"last_sync_at":     lastSyncAt,
		"last_report":      lastReport,
	}
	if s.index != nil {
		ix := s.index.Get()
		status["index_lots"] = ix.Lots()
		status["index_positions"] = ix.Positions()
	}
	return status
}

func (s *Service) inFleet(warehouse int) bool {
	for _, wh := range s.config.Warehouses {
		if wh == warehouse {
			return true
		}
	}
	return false
}

func (s *Service) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

func (s *Service) publish(event string, payload interface{}) {
	if s.notify != nil {
		s.notify.Publish(event, payload)
	}
}

func (s *Service) actor(m models.PendingMutation) string {
	if m.Actor != "" {
		return m.Actor
	}
	return s.config.Operator
}
