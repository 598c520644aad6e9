package location

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The server has shipped position strings in several shapes over the years:
// canonical codes ("A-K1D2T3.PL4"), dash or slash tuples with and without a
// warehouse prefix ("1-A-2-3-4", "A/2/3/4"), zero-padded rack and level
// numbers ("A-02-03-4"), and echoed index signatures ("1-S-HALL-0-5"). All of
// that tolerance is confined to this file; everything downstream works on
// canonical codes and signatures.

// PositionTokens is the loose parse of a server-side position string.
type PositionTokens struct {
	Warehouse int  // 0 when the string names none
	Zone      Zone // ZoneA, ZoneB or ZoneHall
	Row       string
	Level     string
	Pos       string
	Hall      bool
}

var (
	markerWarehouse = regexp.MustCompile(`^K(\d+)$`)
	markerRow       = regexp.MustCompile(`^D(\d+)$`)
	markerLevel     = regexp.MustCompile(`^T(\d+)$`)
	markerPos       = regexp.MustCompile(`^PL(\d+)$`)
	digitsOnly      = regexp.MustCompile(`^\d+$`)
)

// ExtractTokens pulls position coordinates out of a string in any of the
// known formats. It reports false for strings that hold no recognizable
// position; it never returns an error, because a failed parse is an expected
// outcome when probing free-text fields.
func ExtractTokens(input string) (PositionTokens, bool) {
	if slot := Decode(input); slot != nil {
		return slotTokens(*slot), true
	}

	raw := strings.ToUpper(strings.TrimSpace(input))
	if raw == "" {
		return PositionTokens{}, false
	}

	var t PositionTokens
	var before, after []string
	zoneSeen := false

	for _, part := range splitTokens(raw) {
		switch {
		case part == HallTag:
			t.Hall = true
		case part == "A" || part == "B" || part == "S":
			if zoneSeen {
				return PositionTokens{}, false
			}
			t.Zone = Zone(part)
			zoneSeen = true
			if part == "S" {
				t.Hall = true
			}
		case markerWarehouse.MatchString(part):
			t.Warehouse = ClampWarehouse(atoi(part[1:]))
		case markerRow.MatchString(part):
			t.Row = part[1:]
		case markerLevel.MatchString(part):
			t.Level = part[1:]
		case markerPos.MatchString(part):
			t.Pos = part[2:]
		case digitsOnly.MatchString(part):
			if zoneSeen {
				after = append(after, part)
			} else {
				before = append(before, part)
			}
		default:
			return PositionTokens{}, false
		}
	}

	if !zoneSeen {
		return PositionTokens{}, false
	}

	// A single number ahead of the zone letter is the warehouse.
	if t.Warehouse == 0 {
		if len(before) > 1 {
			return PositionTokens{}, false
		}
		if len(before) == 1 {
			t.Warehouse = ClampWarehouse(atoi(before[0]))
		}
	}

	if t.Hall {
		return finishHall(t, after)
	}
	return finishShelf(t, after)
}

// finishHall fills the pallet index. Echoed signatures carry a filler level
// before the index, so the trailing number wins.
func finishHall(t PositionTokens, after []string) (PositionTokens, bool) {
	if t.Pos == "" {
		if len(after) == 0 || len(after) > 2 {
			return PositionTokens{}, false
		}
		t.Pos = after[len(after)-1]
	}
	t.Zone = ZoneHall
	t.Row = ""
	t.Level = ""
	return t, true
}

// finishShelf assigns leftover numbers to the unset coordinates in row,
// level, pos order.
func finishShelf(t PositionTokens, after []string) (PositionTokens, bool) {
	slots := []*string{&t.Row, &t.Level, &t.Pos}
	for _, f := range slots {
		if *f != "" {
			continue
		}
		if len(after) == 0 {
			return PositionTokens{}, false
		}
		*f = after[0]
		after = after[1:]
	}
	if len(after) != 0 {
		return PositionTokens{}, false
	}
	return t, true
}

// CandidateSignatures lists the index keys to probe for a parsed position, in
// fallback order: the explicit warehouse when the string named one, otherwise
// every fleet warehouse ascending; within each warehouse the unpadded rack
// and level first, then the zero-padded spelling some endpoints use.
func CandidateSignatures(t PositionTokens, warehouses []int) []string {
	whs := warehouses
	if t.Warehouse != 0 {
		whs = []int{t.Warehouse}
	}
	if len(whs) == 0 {
		whs = DefaultWarehouses
	}

	var sigs []string
	seen := make(map[string]struct{})
	add := func(sig string) {
		if _, dup := seen[sig]; !dup {
			seen[sig] = struct{}{}
			sigs = append(sigs, sig)
		}
	}

	for _, wh := range whs {
		if t.Hall {
			add(Signature(wh, string(ZoneHall), HallTag, "0", unpad(t.Pos)))
			continue
		}
		add(Signature(wh, string(t.Zone), unpad(t.Row), unpad(t.Level), t.Pos))
		add(Signature(wh, string(t.Zone), pad2(t.Row), pad2(t.Level), t.Pos))
	}
	return sigs
}

func slotTokens(s Slot) PositionTokens {
	t := PositionTokens{
		Warehouse: s.Warehouse,
		Zone:      s.Zone,
		Pos:       strconv.Itoa(s.Pos),
		Hall:      s.IsHall(),
	}
	if !t.Hall {
		t.Row = strconv.Itoa(s.Row)
		t.Level = strconv.Itoa(s.Level)
	}
	return t
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == '.' || r == ' ' || r == '_'
	})
}

// unpad strips leading zeros from numeric tokens ("02" -> "2").
func unpad(tok string) string {
	if n, err := strconv.Atoi(tok); err == nil {
		return strconv.Itoa(n)
	}
	return tok
}

// pad2 widens numeric tokens to two digits ("2" -> "02").
func pad2(tok string) string {
	if n, err := strconv.Atoi(tok); err == nil {
		return fmt.Sprintf("%02d", n)
	}
	return tok
}
