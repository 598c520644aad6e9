package printer

import (
	"bytes"
	"strings"
	"testing"
)

func TestExpandExplicitCodes(t *testing.T) {
	cfg := SheetConfig{Codes: []string{" a-k1d2t3.pl4 ", "S-K2.PL10"}}

	codes, err := cfg.Expand()
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("got %d codes, want 2", len(codes))
	}
	if codes[0] != "A-K1D2T3.PL4" {
		t.Errorf("got %q, want A-K1D2T3.PL4", codes[0])
	}
	if codes[1] != "S-K2.PL10" {
		t.Errorf("got %q, want S-K2.PL10", codes[1])
	}
}

func TestExpandRejectsGarbageCode(t *testing.T) {
	cfg := SheetConfig{Codes: []string{"A-K1D2T3.PL4", "BANANA"}}

	if _, err := cfg.Expand(); err == nil {
		t.Fatal("expected error for a non-location code")
	}
}

func TestExpandShelfRange(t *testing.T) {
	cfg := SheetConfig{Shelf: &ShelfRange{
		Warehouse: 2,
		Zone:      "a",
		RowFrom:   1,
		RowTo:     2,
		LevelFrom: 1,
		LevelTo:   3,
		Positions: 4,
	}}

	codes, err := cfg.Expand()
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(codes) != 2*3*4 {
		t.Fatalf("got %d codes, want 24", len(codes))
	}
	if codes[0] != "A-K2D1T1.PL1" {
		t.Errorf("first code = %q, want A-K2D1T1.PL1", codes[0])
	}
	if codes[len(codes)-1] != "A-K2D2T3.PL4" {
		t.Errorf("last code = %q, want A-K2D2T3.PL4", codes[len(codes)-1])
	}
}

func TestExpandShelfRejectsHallZone(t *testing.T) {
	cfg := SheetConfig{Shelf: &ShelfRange{
		Warehouse: 1,
		Zone:      "S",
		RowFrom:   1, RowTo: 1,
		LevelFrom: 1, LevelTo: 1,
		Positions: 1,
	}}

	if _, err := cfg.Expand(); err == nil {
		t.Fatal("expected error for zone S in a shelf range")
	}
}

func TestExpandShelfClampsUnknownWarehouse(t *testing.T) {
	cfg := SheetConfig{Shelf: &ShelfRange{
		Warehouse: 9,
		Zone:      "B",
		RowFrom:   1, RowTo: 1,
		LevelFrom: 1, LevelTo: 1,
		Positions: 1,
	}}

	codes, err := cfg.Expand()
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if codes[0] != "B-K1D1T1.PL1" {
		t.Errorf("got %q, want warehouse clamped to B-K1D1T1.PL1", codes[0])
	}
}

func TestExpandHallRange(t *testing.T) {
	cfg := SheetConfig{Hall: &HallRange{Warehouse: 3, From: 8, To: 10}}

	codes, err := cfg.Expand()
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	want := []string{"S-K3.PL8", "S-K3.PL9", "S-K3.PL10"}
	if len(codes) != len(want) {
		t.Fatalf("got %d codes, want %d", len(codes), len(want))
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("codes[%d] = %q, want %q", i, codes[i], want[i])
		}
	}
}

func TestExpandEmptyRequest(t *testing.T) {
	if _, err := (SheetConfig{}).Expand(); err == nil {
		t.Fatal("expected error for an empty sheet request")
	}
}

func TestExpandCapsSheetSize(t *testing.T) {
	cfg := SheetConfig{Hall: &HallRange{Warehouse: 1, From: 1, To: maxLabels + 1}}

	_, err := cfg.Expand()
	if err == nil {
		t.Fatal("expected error above the per-sheet limit")
	}
	if !strings.Contains(err.Error(), "limit") {
		t.Errorf("error %q should mention the limit", err)
	}
}

func TestGenerateSheetProducesPDF(t *testing.T) {
	cfg := SheetConfig{Hall: &HallRange{Warehouse: 1, From: 1, To: 6}}
	codes, err := cfg.Expand()
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	pdfBytes, err := GenerateSheet(cfg, codes)
	if err != nil {
		t.Fatalf("GenerateSheet() error = %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
	if len(pdfBytes) < 1000 {
		t.Errorf("PDF suspiciously small: %d bytes", len(pdfBytes))
	}
}
