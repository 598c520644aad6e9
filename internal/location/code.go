package location

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Zone is the addressing family of a storage slot.
type Zone string

const (
	ZoneA    Zone = "A" // shelf block A
	ZoneB    Zone = "B" // shelf block B
	ZoneHall Zone = "S" // staging hall, flat numbering
)

// HallTag is the rack placeholder used in position signatures for hall slots,
// which have no rack/level coordinates of their own.
const HallTag = "HALL"

// DefaultWarehouses is the warehouse fleet in fixed scan order. AUTO
// allocation walks this list ascending.
var DefaultWarehouses = []int{1, 2, 3}

// Slot is one decoded physical storage position.
// Hall slots carry Row=0 and Level=0.
type Slot struct {
	Warehouse int
	Zone      Zone
	Row       int
	Level     int
	Pos       int
}

// ==========================================
// CODE GRAMMAR
// Shelf: {A|B}-K{warehouse}D{row}T{level}.PL{pos}
// Hall:  S-K{warehouse}.PL{pos}
// Matching is case-insensitive; emitted codes are upper-case.
// ==========================================

var (
	shelfPattern = regexp.MustCompile(`^(A|B)-K(\d+)D(\d+)T(\d+)\.PL(\d+)$`)
	hallPattern  = regexp.MustCompile(`^S-K(\d+)\.PL(\d+)$`)
)

// Encode renders the canonical upper-case code for a slot.
func Encode(s Slot) string {
	if s.Zone == ZoneHall {
		return fmt.Sprintf("S-K%d.PL%d", s.Warehouse, s.Pos)
	}
	return fmt.Sprintf("%s-K%dD%dT%d.PL%d", s.Zone, s.Warehouse, s.Row, s.Level, s.Pos)
}

// Decode parses a location code. It accepts any string and returns nil when
// the input matches neither grammar, so callers can probe scanner input
// without a prior validity check.
func Decode(code string) *Slot {
	c := strings.ToUpper(strings.TrimSpace(code))

	if m := shelfPattern.FindStringSubmatch(c); m != nil {
		return &Slot{
			Warehouse: ClampWarehouse(atoi(m[2])),
			Zone:      Zone(m[1]),
			Row:       atoi(m[3]),
			Level:     atoi(m[4]),
			Pos:       atoi(m[5]),
		}
	}

	if m := hallPattern.FindStringSubmatch(c); m != nil {
		return &Slot{
			Warehouse: ClampWarehouse(atoi(m[1])),
			Zone:      ZoneHall,
			Pos:       atoi(m[2]),
		}
	}

	return nil
}

// IsHall reports whether the slot lives in the staging hall.
func (s Slot) IsHall() bool {
	return s.Zone == ZoneHall
}

// Code is shorthand for Encode(s).
func (s Slot) Code() string {
	return Encode(s)
}

// ClampWarehouse folds unknown warehouse numbers to warehouse 1. Labels
// printed for sites that were since renumbered are still in circulation, and
// a scan of one must keep working.
func ClampWarehouse(warehouse int) int {
	for _, w := range DefaultWarehouses {
		if warehouse == w {
			return warehouse
		}
	}
	return DefaultWarehouses[0]
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
