package allocation

import (
	"strconv"
	"strings"
	"sync"

	"github.com/tungdibui2609/saritaqr/internal/location"
	"github.com/tungdibui2609/saritaqr/internal/models"
)

// Pallet indices probed per coordinate. Shelves hold at most 8 pallets,
// halls are numbered 1..100.
const (
	MaxShelfPositions = 8
	MaxHallPositions  = 100
)

// Occupancy is the set of slot codes considered taken. Keys are upper-cased
// trimmed codes; membership is exact beyond that normalization.
type Occupancy map[string]struct{}

func NewOccupancy(codes ...string) Occupancy {
	o := make(Occupancy, len(codes))
	for _, c := range codes {
		o.Add(c)
	}
	return o
}

func (o Occupancy) Add(code string) {
	o[normalize(code)] = struct{}{}
}

func (o Occupancy) Has(code string) bool {
	_, ok := o[normalize(code)]
	return ok
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// MergeOccupancy unions the server-confirmed occupancy with slots claimed by
// queued local assignments, so a slot picked offline is never handed out a
// second time before the queue syncs. Hall moves contribute nothing: their
// destination does not exist until sync resolves it.
func MergeOccupancy(serverCodes []string, pending []models.PendingMutation) Occupancy {
	o := NewOccupancy(serverCodes...)
	for _, m := range pending {
		if m.Kind == models.MutationScanAssign && m.ToPos != "" {
			o.Add(m.ToPos)
		}
	}
	return o
}

// FindNextAvailable returns the lowest-numbered free pallet slot at the given
// shelf coordinate, or "" when every listed index is taken. An empty answer
// is the "location full" condition the operator sees, not a system error.
//
// A pallet index only counts when the static location list actually contains
// it: racks differ in depth and the list is the source of truth for what
// physically exists.
func FindNextAvailable(warehouse int, zone location.Zone, row, level int, locations []string, occupied Occupancy) string {
	for pos := 1; pos <= MaxShelfPositions; pos++ {
		want := location.Slot{Warehouse: warehouse, Zone: zone, Row: row, Level: level, Pos: pos}
		if !listedIn(locations, want) {
			continue
		}
		code := location.Encode(want)
		if !occupied.Has(code) {
			return code
		}
	}
	return ""
}

// listedIn reports whether any entry of the free-text location list encodes
// the wanted coordinate. Entries are matched by token extraction, so both
// canonical codes and the older tuple formats count.
func listedIn(locations []string, want location.Slot) bool {
	for _, entry := range locations {
		tok, ok := location.ExtractTokens(entry)
		if !ok {
			continue
		}
		if tokensMatch(tok, want) {
			return true
		}
	}
	return false
}

// tokensMatch compares coordinates numerically, so padded entries ("A-02-03-4")
// still match. An entry without a warehouse prefix counts for any warehouse:
// per-site exports drop the prefix.
func tokensMatch(tok location.PositionTokens, want location.Slot) bool {
	if tok.Hall || want.IsHall() {
		return false
	}
	if tok.Zone != want.Zone {
		return false
	}
	if tok.Warehouse != 0 && tok.Warehouse != want.Warehouse {
		return false
	}
	return tokNum(tok.Row) == want.Row &&
		tokNum(tok.Level) == want.Level &&
		tokNum(tok.Pos) == want.Pos
}

func tokNum(tok string) int {
	n, err := strconv.Atoi(tok)
	if err != nil {
		return -1
	}
	return n
}

// ExclusionSet tracks destinations already promised during one sync pass.
// The occupancy snapshot is read once per pass, so without this set two
// queued moves would land on the same free slot.
type ExclusionSet struct {
	mu    sync.Mutex
	taken map[string]struct{}
}

func NewExclusionSet() *ExclusionSet {
	return &ExclusionSet{taken: make(map[string]struct{})}
}

func (e *ExclusionSet) Add(code string) {
	e.mu.Lock()
	e.taken[normalize(code)] = struct{}{}
	e.mu.Unlock()
}

func (e *ExclusionSet) Has(code string) bool {
	e.mu.Lock()
	_, ok := e.taken[normalize(code)]
	e.mu.Unlock()
	return ok
}

// FindEmptyHallSlots collects up to count free hall slot codes for the
// warehouse in ascending pallet order, skipping occupied slots and slots
// already promised in this pass. It only reads the exclusion set; claiming
// is the caller's call.
func FindEmptyHallSlots(warehouse, count int, occupied Occupancy, exclude *ExclusionSet) []string {
	var free []string
	for pos := 1; pos <= MaxHallPositions && len(free) < count; pos++ {
		code := location.Encode(location.Slot{Warehouse: warehouse, Zone: location.ZoneHall, Pos: pos})
		if occupied.Has(code) {
			continue
		}
		if exclude != nil && exclude.Has(code) {
			continue
		}
		free = append(free, code)
	}
	return free
}

// NextHallSlot resolves one hall destination and claims it in the exclusion
// set. AutoWarehouse walks the fleet in fixed ascending order and the first
// warehouse with a free slot wins; "" means no permitted warehouse has room.
func NextHallSlot(warehouse int, warehouses []int, occupied Occupancy, exclude *ExclusionSet) string {
	candidates := warehouses
	if warehouse != models.AutoWarehouse {
		candidates = []int{warehouse}
	}
	for _, wh := range candidates {
		if free := FindEmptyHallSlots(wh, 1, occupied, exclude); len(free) > 0 {
			if exclude != nil {
				exclude.Add(free[0])
			}
			return free[0]
		}
	}
	return ""
}
