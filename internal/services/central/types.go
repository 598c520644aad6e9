package central

import "time"

// Wire schemas of the central warehouse API. Field names follow the server's
// JSON exactly; snapshots are cached as received and reshaped only when the
// offline index is rebuilt.

// OccupiedPosition is one row of the flat occupancy list. PosCode arrives in
// whatever format the server version at hand emits, canonical or not.
type OccupiedPosition struct {
	PosCode string `json:"posCode"`
	LotCode string `json:"lotCode"`
}

// DeletedLot marks a lot that was exported or removed on the server side.
type DeletedLot struct {
	LotCode string `json:"lotCode"`
}

// MoveRequest relocates one lot. The call is not idempotent: replaying a
// confirmed move fails with 404 because the source is already empty.
type MoveRequest struct {
	FromPos string `json:"fromPos"`
	ToPos   string `json:"toPos"`
	LotCode string `json:"lotCode"`
	MovedBy string `json:"movedBy"`
}

// ScanItem is one captured scan in a bulk upload.
type ScanItem struct {
	Code      string    `json:"code"`
	Position  string    `json:"position"`
	Quantity  float64   `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// WorkMove is the older batch move shape. Servers that predate the
// positions/move endpoint still accept these.
type WorkMove struct {
	LotCode string `json:"lotCode"`
	FromPos string `json:"fromPos"`
	ToPos   string `json:"toPos"`
	MovedBy string `json:"movedBy"`
}

// ExportOrder is an outbound work order with the lots it covers.
type ExportOrder struct {
	ID        string   `json:"id"`
	Locations []string `json:"locations"`
	LotCodes  []string `json:"lotCodes"`
	Warehouse int      `json:"warehouse"`
	Date      string   `json:"date"`
}

// WarehouseStatus is the per-warehouse stock tree. Rack, level and position
// arrive as strings because older servers pad them.
type WarehouseStatus struct {
	WarehouseID int          `json:"warehouseId"`
	Zones       []ZoneStatus `json:"zones"`
}

type ZoneStatus struct {
	Zone  string       `json:"zone"`
	Racks []RackStatus `json:"racks"`
}

type RackStatus struct {
	Rack   string        `json:"rack"`
	Levels []LevelStatus `json:"levels"`
}

type LevelStatus struct {
	Level string       `json:"level"`
	Items []ItemStatus `json:"items"`
}

type ItemStatus struct {
	Position    string  `json:"position"`
	LotCode     string  `json:"lotCode"`
	ProductCode string  `json:"productCode"`
	ProductName string  `json:"productName"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type scanSyncRequest struct {
	Items []ScanItem `json:"items"`
}

type workSyncRequest struct {
	Moves []WorkMove `json:"moves"`
}
