package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/tungdibui2609/saritaqr/internal/allocation"
	"github.com/tungdibui2609/saritaqr/internal/models"
	"github.com/tungdibui2609/saritaqr/internal/offline"
	"github.com/tungdibui2609/saritaqr/internal/services/central"
)

type outcomeStatus int

const (
	outcomePending outcomeStatus = iota
	outcomeSucceeded
	outcomeRecovered
	outcomeFailed
)

type outcome struct {
	status outcomeStatus
	reason string
}

type moveJob struct {
	idx int
	req central.MoveRequest
}

// reconcile runs one pass: fetch the server's truth, drop queued work for
// lots that left the warehouse, replay the rest in paced batches, then clear
// what resolved. A fetch failure aborts before anything is touched, so the
// queue survives bad connectivity untouched.
func (s *Service) reconcile(ctx context.Context) (*Report, error) {
	started := s.now()
	s.setPhase(PhaseFetching)
	s.publish("sync_started", nil)

	deleted, err := s.backend.DeletedLots(ctx)
	if err != nil {
		return nil, s.abort(fmt.Errorf("fetching deleted lots: %w", err))
	}
	occupied, err := s.backend.OccupiedPositions(ctx)
	if err != nil {
		return nil, s.abort(fmt.Errorf("fetching occupied positions: %w", err))
	}

	// the snapshot is fresh, keep the cache that allocation reads in step
	if err := s.kv.Put(models.CacheKeyOccupied, occupied); err != nil {
		log.Printf("⚠️ Could not refresh occupancy cache: %v", err)
	}

	s.setPhase(PhaseClassifying)
	pending, err := s.store.ListAll()
	if err != nil {
		return nil, s.abort(fmt.Errorf("reading queue: %w", err))
	}

	deletedSet := make(map[string]struct{}, len(deleted))
	for _, d := range deleted {
		deletedSet[offline.NormalizeLot(d.LotCode)] = struct{}{}
	}

	report := &Report{StartedAt: started}
	resolved := make([]string, 0, len(pending))
	work := make([]models.PendingMutation, 0, len(pending))
	for _, m := range pending {
		if _, gone := deletedSet[offline.NormalizeLot(m.LotCode)]; gone {
			log.Printf("📦 %s left the warehouse, dropping queued %s", m.LotCode, m.Kind)
			report.Skipped++
			resolved = append(resolved, m.ID)
			continue
		}
		work = append(work, m)
	}

	s.setPhase(PhaseExecuting)
	outcomes := s.execute(ctx, work, occupied)

	s.setPhase(PhaseReporting)
	for i, m := range work {
		switch outcomes[i].status {
		case outcomeSucceeded:
			report.Succeeded++
			resolved = append(resolved, m.ID)
		case outcomeRecovered:
			report.Recovered++
			resolved = append(resolved, m.ID)
		default:
			report.Failed++
			report.Failures = append(report.Failures, Failure{
				MutationID: m.ID,
				LotCode:    m.LotCode,
				Reason:     outcomes[i].reason,
			})
		}
	}

	if err := s.store.RemoveMany(resolved); err != nil {
		return nil, fmt.Errorf("clearing resolved mutations: %w", err)
	}
	if len(resolved) > 0 {
		if err := s.kv.Put(models.CacheKeyLastSyncAt, s.now().UTC()); err != nil {
			log.Printf("⚠️ Could not stamp last sync: %v", err)
		}
	}

	report.Duration = s.now().Sub(started)
	log.Printf("✅ Sync finished: %d ok, %d recovered, %d skipped, %d failed in %v",
		report.Succeeded, report.Recovered, report.Skipped, report.Failed, report.Duration)
	s.publish("sync_done", report)
	return report, nil
}

func (s *Service) abort(err error) error {
	log.Printf("⚠️ Sync aborted: %v", err)
	s.publish("sync_failed", map[string]interface{}{"error": err.Error()})
	return err
}

// execute replays the surviving queue in insertion order, BatchSize at a
// time with BatchDelay between bursts. The occupancy snapshot is read once
// per pass; the exclusion set keeps parallel resolutions collision-free.
func (s *Service) execute(ctx context.Context, work []models.PendingMutation, occupied []central.OccupiedPosition) []outcome {
	outcomes := make([]outcome, len(work))
	if len(work) == 0 {
		return outcomes
	}

	codes := make([]string, 0, len(occupied))
	for _, occ := range occupied {
		codes = append(codes, occ.PosCode)
	}
	taken := allocation.MergeOccupancy(codes, work)
	exclude := allocation.NewExclusionSet()

	for start := 0; start < len(work); start += s.config.BatchSize {
		end := start + s.config.BatchSize
		if end > len(work) {
			end = len(work)
		}
		s.runBatch(ctx, work[start:end], outcomes[start:end], taken, exclude)
		s.publish("sync_progress", map[string]interface{}{"done": end, "total": len(work)})
		if end < len(work) {
			s.pause(s.config.BatchDelay)
		}
	}
	return outcomes
}

// runBatch resolves every destination sequentially first, then dispatches
// the batch concurrently. Claiming before dispatch is what makes the
// parallelism safe: no two mutations can hold the same slot.
func (s *Service) runBatch(ctx context.Context, batch []models.PendingMutation, outcomes []outcome, taken allocation.Occupancy, exclude *allocation.ExclusionSet) {
	var moves []moveJob
	var scanIdx []int
	var scans []central.ScanItem

	for i, m := range batch {
		switch m.Kind {
		case models.MutationHallMove:
			dest := allocation.NextHallSlot(m.TargetWarehouse, s.config.Warehouses, taken, exclude)
			if dest == "" {
				outcomes[i] = outcome{status: outcomeFailed, reason: "no free hall slot in any permitted warehouse"}
				continue
			}
			moves = append(moves, moveJob{idx: i, req: central.MoveRequest{
				FromPos: m.FromPos,
				ToPos:   dest,
				LotCode: m.LotCode,
				MovedBy: s.actor(m),
			}})
		case models.MutationScanAssign:
			scanIdx = append(scanIdx, i)
			scans = append(scans, central.ScanItem{
				Code:      m.LotCode,
				Position:  m.ToPos,
				Quantity:  m.Quantity,
				Timestamp: m.CreatedAt,
			})
		default:
			outcomes[i] = outcome{status: outcomeFailed, reason: fmt.Sprintf("unknown mutation kind %q", m.Kind)}
		}
	}

	if s.config.LegacyMoveSync {
		s.dispatchLegacy(ctx, moves, outcomes, scanIdx, scans)
		return
	}

	var wg sync.WaitGroup
	for _, job := range moves {
		wg.Add(1)
		go func(j moveJob) {
			defer wg.Done()
			outcomes[j.idx] = s.dispatchMove(ctx, j.req)
		}(job)
	}
	if len(scans) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := outcome{status: outcomeSucceeded}
			if err := s.backend.SyncScans(ctx, scans); err != nil {
				res = outcome{status: outcomeFailed, reason: err.Error()}
			}
			for _, i := range scanIdx {
				outcomes[i] = res
			}
		}()
	}
	wg.Wait()
}

func (s *Service) dispatchMove(ctx context.Context, req central.MoveRequest) outcome {
	err := s.backend.MoveLot(ctx, req)
	switch {
	case err == nil:
		return outcome{status: outcomeSucceeded}
	case errors.Is(err, central.ErrPositionGone):
		// the move happened, only its confirmation was lost
		log.Printf("📦 %s: source already empty, move counted as done", req.LotCode)
		return outcome{status: outcomeRecovered}
	default:
		return outcome{status: outcomeFailed, reason: err.Error()}
	}
}

// dispatchLegacy pushes the whole batch through the old work/sync endpoint.
// That endpoint confirms or rejects a batch as one unit and cannot tell a
// replayed move apart, so there is no recovered state on this path.
func (s *Service) dispatchLegacy(ctx context.Context, moves []moveJob, outcomes []outcome, scanIdx []int, scans []central.ScanItem) {
	if len(moves) > 0 {
		batch := make([]central.WorkMove, 0, len(moves))
		for _, j := range moves {
			batch = append(batch, central.WorkMove{
				LotCode: j.req.LotCode,
				FromPos: j.req.FromPos,
				ToPos:   j.req.ToPos,
				MovedBy: j.req.MovedBy,
			})
		}
		res := outcome{status: outcomeSucceeded}
		if err := s.backend.SyncWork(ctx, batch); err != nil {
			res = outcome{status: outcomeFailed, reason: err.Error()}
		}
		for _, j := range moves {
			outcomes[j.idx] = res
		}
	}
	if len(scans) > 0 {
		res := outcome{status: outcomeSucceeded}
		if err := s.backend.SyncScans(ctx, scans); err != nil {
			res = outcome{status: outcomeFailed, reason: err.Error()}
		}
		for _, i := range scanIdx {
			outcomes[i] = res
		}
	}
}
