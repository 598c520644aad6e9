package offline

import (
	"strconv"
	"strings"
	"sync"

	"github.com/tungdibui2609/saritaqr/internal/location"
	"github.com/tungdibui2609/saritaqr/internal/services/central"
)

// ProductDetail is what the UI shows for a looked-up lot while offline.
type ProductDetail struct {
	ProductCode string  `json:"productCode"`
	ProductName string  `json:"productName"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Position    string  `json:"position"`
}

// Index is the disposable offline lookup structure: lot -> position and
// position signature -> product detail. It is rebuilt whole from the cached
// snapshots on every download; there is no incremental maintenance.
type Index struct {
	warehouses       []int
	lotToPosition    map[string]string
	positionToDetail map[string]ProductDetail
}

// Rebuild constructs a fresh index from the per-warehouse stock trees and the
// flat occupancy list. The flat list is authoritative for lot positions;
// tree-embedded lot codes only fill gaps.
func Rebuild(statuses []central.WarehouseStatus, occupied []central.OccupiedPosition, warehouses []int) *Index {
	if len(warehouses) == 0 {
		warehouses = location.DefaultWarehouses
	}
	ix := &Index{
		warehouses:       warehouses,
		lotToPosition:    make(map[string]string),
		positionToDetail: make(map[string]ProductDetail),
	}

	for _, st := range statuses {
		for _, z := range st.Zones {
			zone := strings.ToUpper(strings.TrimSpace(z.Zone))
			for _, r := range z.Racks {
				rack := strings.ToUpper(strings.TrimSpace(r.Rack))
				for _, lv := range r.Levels {
					level := strings.TrimSpace(lv.Level)
					for _, it := range lv.Items {
						key, canonical := indexKey(st.WarehouseID, zone, rack, level, strings.TrimSpace(it.Position))
						if key == "" {
							continue
						}
						ix.positionToDetail[key] = ProductDetail{
							ProductCode: it.ProductCode,
							ProductName: it.ProductName,
							Quantity:    it.Quantity,
							Unit:        it.Unit,
							Position:    canonical,
						}
						if it.LotCode != "" {
							ix.lotToPosition[NormalizeLot(it.LotCode)] = canonical
						}
					}
				}
			}
		}
	}

	for _, occ := range occupied {
		if occ.LotCode == "" || occ.PosCode == "" {
			continue
		}
		ix.lotToPosition[NormalizeLot(occ.LotCode)] = occ.PosCode
	}

	return ix
}

// indexKey builds the signature a tree entry is stored under, plus the best
// position string to show for it. Hall entries are keyed under the HALL tag
// regardless of how the server spelled them.
func indexKey(warehouse int, zone, rack, level, pos string) (string, string) {
	if zone == "" || pos == "" {
		return "", ""
	}

	if zone == string(location.ZoneHall) || rack == location.HallTag {
		if n, err := strconv.Atoi(pos); err == nil {
			slot := location.Slot{Warehouse: warehouse, Zone: location.ZoneHall, Pos: n}
			return location.SlotSignature(slot), slot.Code()
		}
		key := location.Signature(warehouse, string(location.ZoneHall), location.HallTag, "0", pos)
		return key, key
	}

	key := location.Signature(warehouse, zone, rack, level, pos)
	row, errR := strconv.Atoi(rack)
	lvl, errL := strconv.Atoi(level)
	p, errP := strconv.Atoi(pos)
	if errR == nil && errL == nil && errP == nil && (zone == string(location.ZoneA) || zone == string(location.ZoneB)) {
		slot := location.Slot{Warehouse: warehouse, Zone: location.Zone(zone), Row: row, Level: lvl, Pos: p}
		return key, slot.Code()
	}
	return key, key
}

// Lookup finds a lot while offline. When the stored position string resolves
// to no indexed slot, the answer still carries the raw position so the
// operator has somewhere to walk to.
func (ix *Index) Lookup(lotCode string) *ProductDetail {
	pos, ok := ix.lotToPosition[NormalizeLot(lotCode)]
	if !ok {
		return nil
	}
	if d := ix.ResolvePosition(pos); d != nil {
		return d
	}
	return &ProductDetail{Position: pos}
}

// ResolvePosition maps a position string in any format the server has ever
// shipped to the detail stored under its signature. It never fails hard:
// nil simply means no candidate key matched.
func (ix *Index) ResolvePosition(pos string) *ProductDetail {
	tok, ok := location.ExtractTokens(pos)
	if !ok {
		return nil
	}
	for _, sig := range location.CandidateSignatures(tok, ix.warehouses) {
		if d, hit := ix.positionToDetail[sig]; hit {
			out := d
			return &out
		}
	}
	return nil
}

// DetailAt answers "what sits on this slot" for a scanned location code.
func (ix *Index) DetailAt(slot location.Slot) *ProductDetail {
	return ix.ResolvePosition(slot.Code())
}

// LotPosition returns the raw cached position string of a lot.
func (ix *Index) LotPosition(lotCode string) (string, bool) {
	pos, ok := ix.lotToPosition[NormalizeLot(lotCode)]
	return pos, ok
}

// Lots reports how many lots the index can look up.
func (ix *Index) Lots() int {
	return len(ix.lotToPosition)
}

// Positions reports how many slots carry product detail.
func (ix *Index) Positions() int {
	return len(ix.positionToDetail)
}

// NormalizeLot is the only lot code normalization applied anywhere: trim and
// upper-case. Lot codes are opaque otherwise.
func NormalizeLot(lotCode string) string {
	return strings.ToUpper(strings.TrimSpace(lotCode))
}

// Holder hands out the current index and swaps it whole after a rebuild, so
// readers never see a half-built one.
type Holder struct {
	mu sync.RWMutex
	ix *Index
}

// NewHolder starts with an empty index; every lookup misses until the first
// download lands.
func NewHolder(warehouses []int) *Holder {
	return &Holder{ix: Rebuild(nil, nil, warehouses)}
}

func (h *Holder) Get() *Index {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ix
}

func (h *Holder) Swap(ix *Index) {
	h.mu.Lock()
	h.ix = ix
	h.mu.Unlock()
}
