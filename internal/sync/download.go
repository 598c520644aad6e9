package sync

import (
	"context"
	"fmt"
	"log"

	"github.com/tungdibui2609/saritaqr/internal/models"
	"github.com/tungdibui2609/saritaqr/internal/offline"
	"github.com/tungdibui2609/saritaqr/internal/services/central"
)

// DownloadSnapshots refreshes every named cache from the server, then swaps
// in a freshly built offline index. The rebuild is all or nothing: a failed
// download leaves the previous index and caches in place.
func (s *Service) DownloadSnapshots(ctx context.Context) error {
	if s.creds != nil {
		if _, err := s.creds.Token(); err != nil {
			return err
		}
	}

	log.Println("📥 Downloading warehouse snapshots...")

	statuses := make([]central.WarehouseStatus, 0, len(s.config.Warehouses))
	for _, id := range s.config.Warehouses {
		st, err := s.backend.WarehouseStatus(ctx, id)
		if err != nil {
			return s.abort(fmt.Errorf("downloading warehouse %d status: %w", id, err))
		}
		statuses = append(statuses, *st)
	}

	occupied, err := s.backend.OccupiedPositions(ctx)
	if err != nil {
		return s.abort(fmt.Errorf("downloading occupied positions: %w", err))
	}
	locations, err := s.backend.StaticLocations(ctx)
	if err != nil {
		return s.abort(fmt.Errorf("downloading location list: %w", err))
	}

	// orders are a convenience cache; servers without the endpoint still
	// get a full download
	orders, err := s.backend.ExportOrders(ctx, "New")
	if err != nil {
		log.Printf("⚠️ Export orders unavailable: %v", err)
		orders = nil
	}

	for _, st := range statuses {
		if err := s.kv.Put(models.CacheKeyWarehouseStatus(st.WarehouseID), st); err != nil {
			return fmt.Errorf("caching warehouse %d status: %w", st.WarehouseID, err)
		}
	}
	if err := s.kv.Put(models.CacheKeyOccupied, occupied); err != nil {
		return fmt.Errorf("caching occupied positions: %w", err)
	}
	if err := s.kv.Put(models.CacheKeyStaticLocations, locations); err != nil {
		return fmt.Errorf("caching location list: %w", err)
	}
	if orders != nil {
		if err := s.kv.Put(models.CacheKeyExportOrders, orders); err != nil {
			return fmt.Errorf("caching export orders: %w", err)
		}
	}

	if s.index != nil {
		ix := offline.Rebuild(statuses, occupied, s.config.Warehouses)
		s.index.Swap(ix)
		log.Printf("✅ Snapshots downloaded: %d warehouses, %d lots, %d positions indexed",
			len(statuses), ix.Lots(), ix.Positions())
		s.publish("data_downloaded", map[string]interface{}{
			"warehouses": len(statuses),
			"lots":       ix.Lots(),
			"positions":  ix.Positions(),
		})
		return nil
	}

	log.Printf("✅ Snapshots downloaded: %d warehouses, %d occupied positions", len(statuses), len(occupied))
	s.publish("data_downloaded", map[string]interface{}{"warehouses": len(statuses)})
	return nil
}

// Orders returns export orders, fresh when the server answers and cached
// otherwise. The bool reports whether the answer is live.
func (s *Service) Orders(ctx context.Context) ([]central.ExportOrder, bool, error) {
	orders, err := s.backend.ExportOrders(ctx, "New")
	if err == nil {
		if putErr := s.kv.Put(models.CacheKeyExportOrders, orders); putErr != nil {
			log.Printf("⚠️ Could not refresh order cache: %v", putErr)
		}
		return orders, true, nil
	}

	var cached []central.ExportOrder
	ok, cacheErr := s.kv.Get(models.CacheKeyExportOrders, &cached)
	if cacheErr != nil {
		return nil, false, cacheErr
	}
	if !ok {
		return nil, false, fmt.Errorf("fetching export orders: %w", err)
	}
	log.Printf("⚠️ Serving cached export orders, server unreachable: %v", err)
	return cached, false, nil
}
