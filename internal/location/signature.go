package location

import (
	"fmt"
	"strconv"
	"strings"
)

// Signature builds the canonical lookup key used by the offline index:
// "{warehouse}-{zone}-{rack}-{level}-{pos}", upper-cased. Rack and level
// arrive as raw strings because the server ships them in mixed formats
// (padded, unpadded) and the resolver needs to probe both.
func Signature(warehouse int, zone, rack, level, pos string) string {
	return strings.ToUpper(fmt.Sprintf("%d-%s-%s-%s-%s", warehouse, zone, rack, level, pos))
}

// SlotSignature derives the index key for a decoded slot. Hall slots are
// keyed under the HALL rack tag with level 0.
func SlotSignature(s Slot) string {
	if s.IsHall() {
		return Signature(s.Warehouse, string(ZoneHall), HallTag, "0", strconv.Itoa(s.Pos))
	}
	return Signature(s.Warehouse, string(s.Zone), strconv.Itoa(s.Row), strconv.Itoa(s.Level), strconv.Itoa(s.Pos))
}
