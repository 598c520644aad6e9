package offline

import (
	"testing"

	"github.com/tungdibui2609/saritaqr/internal/location"
	"github.com/tungdibui2609/saritaqr/internal/services/central"
)

// twoWarehouseSnapshot builds a small but realistic download: warehouse 1
// with a shelf item and a hall item, warehouse 2 with a shelf item stored
// under padded coordinates.
func twoWarehouseSnapshot() []central.WarehouseStatus {
	return []central.WarehouseStatus{
		{
			WarehouseID: 1,
			Zones: []central.ZoneStatus{
				{
					Zone: "A",
					Racks: []central.RackStatus{
						{
							Rack: "2",
							Levels: []central.LevelStatus{
								{
									Level: "3",
									Items: []central.ItemStatus{{
										Position:    "4",
										LotCode:     "LOT-1",
										ProductCode: "P-100",
										ProductName: "Ceramic tiles 30x30",
										Quantity:    48,
										Unit:        "box",
									}},
								},
							},
						},
					},
				},
				{
					Zone: "S",
					Racks: []central.RackStatus{
						{
							Rack: "HALL",
							Levels: []central.LevelStatus{
								{
									Level: "0",
									Items: []central.ItemStatus{{
										Position:    "5",
										LotCode:     "LOT-2",
										ProductCode: "P-200",
										ProductName: "Grout bags",
										Quantity:    12,
										Unit:        "bag",
									}},
								},
							},
						},
					},
				},
			},
		},
		{
			WarehouseID: 2,
			Zones: []central.ZoneStatus{
				{
					Zone: "B",
					Racks: []central.RackStatus{
						{
							Rack: "07", // padded, the way older servers ship it
							Levels: []central.LevelStatus{
								{
									Level: "01",
									Items: []central.ItemStatus{{
										Position:    "2",
										LotCode:     "LOT-3",
										ProductCode: "P-300",
										ProductName: "Adhesive pallets",
										Quantity:    6,
										Unit:        "pal",
									}},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestLookupResolvesCanonicalPosition(t *testing.T) {
	occupied := []central.OccupiedPosition{{PosCode: "A-K1D2T3.PL4", LotCode: "LOT-1"}}
	ix := Rebuild(twoWarehouseSnapshot(), occupied, []int{1, 2, 3})

	d := ix.Lookup("lot-1") // lookups are case-insensitive
	if d == nil {
		t.Fatal("Lookup(lot-1) = nil")
	}
	if d.ProductName != "Ceramic tiles 30x30" || d.Quantity != 48 {
		t.Errorf("Lookup = %+v", d)
	}
	if d.Position != "A-K1D2T3.PL4" {
		t.Errorf("Position = %s, want canonical A-K1D2T3.PL4", d.Position)
	}
}

func TestLookupResolvesTupleWithoutWarehouse(t *testing.T) {
	// the flat list points at the item with a bare tuple; the resolver has to
	// find it by walking the fleet
	occupied := []central.OccupiedPosition{{PosCode: "A-2-3-4", LotCode: "LOT-1"}}
	ix := Rebuild(twoWarehouseSnapshot(), occupied, []int{1, 2, 3})

	d := ix.Lookup("LOT-1")
	if d == nil {
		t.Fatal("Lookup(LOT-1) = nil")
	}
	if d.ProductCode != "P-100" {
		t.Errorf("ProductCode = %s, want P-100", d.ProductCode)
	}
}

func TestLookupResolvesPaddedTreeCoordinates(t *testing.T) {
	// warehouse 2 stores rack 07 / level 01; an unpadded position string must
	// still land on it through the padded retry
	occupied := []central.OccupiedPosition{{PosCode: "2-B-7-1-2", LotCode: "LOT-3"}}
	ix := Rebuild(twoWarehouseSnapshot(), occupied, []int{1, 2, 3})

	d := ix.Lookup("LOT-3")
	if d == nil {
		t.Fatal("Lookup(LOT-3) = nil")
	}
	if d.ProductCode != "P-300" {
		t.Errorf("ProductCode = %s, want P-300", d.ProductCode)
	}
}

func TestLookupHallLot(t *testing.T) {
	occupied := []central.OccupiedPosition{{PosCode: "S-K1.PL5", LotCode: "LOT-2"}}
	ix := Rebuild(twoWarehouseSnapshot(), occupied, []int{1, 2, 3})

	d := ix.Lookup("LOT-2")
	if d == nil {
		t.Fatal("Lookup(LOT-2) = nil")
	}
	if d.ProductCode != "P-200" || d.Position != "S-K1.PL5" {
		t.Errorf("Lookup = %+v", d)
	}
}

func TestLookupUnknownLot(t *testing.T) {
	ix := Rebuild(twoWarehouseSnapshot(), nil, []int{1, 2, 3})

	if d := ix.Lookup("LOT-NOBODY"); d != nil {
		t.Errorf("Lookup of unknown lot = %+v, want nil", d)
	}
}

func TestLookupUnresolvablePositionKeepsRawString(t *testing.T) {
	// the server claims the lot sits somewhere the tree never mentions; the
	// operator still gets the raw position to walk to
	occupied := []central.OccupiedPosition{{PosCode: "B-9-9-9", LotCode: "LOT-GHOST"}}
	ix := Rebuild(twoWarehouseSnapshot(), occupied, []int{1, 2, 3})

	d := ix.Lookup("LOT-GHOST")
	if d == nil {
		t.Fatal("Lookup(LOT-GHOST) = nil, want position-only detail")
	}
	if d.Position != "B-9-9-9" || d.ProductCode != "" {
		t.Errorf("Lookup = %+v, want bare position", d)
	}
}

func TestFlatListOverridesTreeLotPosition(t *testing.T) {
	// the tree still shows LOT-1 on the shelf, but the flat list already has
	// it in the hall; the flat list wins
	occupied := []central.OccupiedPosition{{PosCode: "S-K1.PL5", LotCode: "LOT-1"}}
	ix := Rebuild(twoWarehouseSnapshot(), occupied, []int{1, 2, 3})

	pos, ok := ix.LotPosition("LOT-1")
	if !ok || pos != "S-K1.PL5" {
		t.Errorf("LotPosition = %s, %v; want S-K1.PL5", pos, ok)
	}
}

func TestDetailAtScannedSlot(t *testing.T) {
	ix := Rebuild(twoWarehouseSnapshot(), nil, []int{1, 2, 3})

	slot := location.Slot{Warehouse: 1, Zone: location.ZoneA, Row: 2, Level: 3, Pos: 4}
	d := ix.DetailAt(slot)
	if d == nil {
		t.Fatal("DetailAt = nil")
	}
	if d.ProductCode != "P-100" {
		t.Errorf("DetailAt = %+v", d)
	}

	empty := location.Slot{Warehouse: 1, Zone: location.ZoneA, Row: 9, Level: 9, Pos: 9}
	if d := ix.DetailAt(empty); d != nil {
		t.Errorf("DetailAt(empty slot) = %+v, want nil", d)
	}
}

func TestEmptyIndexMissesEverything(t *testing.T) {
	h := NewHolder([]int{1, 2, 3})
	ix := h.Get()

	if ix.Lots() != 0 || ix.Positions() != 0 {
		t.Errorf("fresh index reports %d lots, %d positions", ix.Lots(), ix.Positions())
	}
	if d := ix.Lookup("LOT-1"); d != nil {
		t.Errorf("fresh index Lookup = %+v, want nil", d)
	}
}

func TestHolderSwap(t *testing.T) {
	h := NewHolder([]int{1})
	occupied := []central.OccupiedPosition{{PosCode: "A-K1D2T3.PL4", LotCode: "LOT-1"}}

	h.Swap(Rebuild(twoWarehouseSnapshot(), occupied, []int{1, 2, 3}))

	if d := h.Get().Lookup("LOT-1"); d == nil {
		t.Error("Lookup after Swap = nil")
	}
}
