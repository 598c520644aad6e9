package printer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/tungdibui2609/saritaqr/internal/location"
)

// maxLabels caps one sheet request. Whole-warehouse jobs are split by the
// caller; a single runaway request must not eat the device's memory.
const maxLabels = 2000

// SheetConfig describes one label sheet. Explicit Codes win; otherwise the
// shelf or hall range is expanded in scanning order.
type SheetConfig struct {
	Codes []string    `json:"codes,omitempty"`
	Shelf *ShelfRange `json:"shelf,omitempty"`
	Hall  *HallRange  `json:"hall,omitempty"`

	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// ShelfRange expands to every pallet slot of a rack block.
type ShelfRange struct {
	Warehouse int    `json:"warehouse"`
	Zone      string `json:"zone"`
	RowFrom   int    `json:"rowFrom"`
	RowTo     int    `json:"rowTo"`
	LevelFrom int    `json:"levelFrom"`
	LevelTo   int    `json:"levelTo"`
	Positions int    `json:"positions"`
}

// HallRange expands to a run of staging hall slots.
type HallRange struct {
	Warehouse int `json:"warehouse"`
	From      int `json:"from"`
	To        int `json:"to"`
}

func (c SheetConfig) withDefaults() SheetConfig {
	if c.Cols <= 0 {
		c.Cols = 3
	}
	if c.Rows <= 0 {
		c.Rows = 8
	}
	if c.MarginTop <= 0 {
		c.MarginTop = 10
	}
	if c.MarginLeft <= 0 {
		c.MarginLeft = 8
	}
	return c
}

// Expand resolves the request to the list of codes that will be printed.
func (c SheetConfig) Expand() ([]string, error) {
	if len(c.Codes) > 0 {
		codes := make([]string, 0, len(c.Codes))
		for _, raw := range c.Codes {
			code := strings.ToUpper(strings.TrimSpace(raw))
			if location.Decode(code) == nil {
				return nil, fmt.Errorf("%q is not a location code", raw)
			}
			codes = append(codes, code)
		}
		return capLabels(codes)
	}

	if c.Shelf != nil {
		s := c.Shelf
		zone := location.Zone(strings.ToUpper(strings.TrimSpace(s.Zone)))
		if zone != location.ZoneA && zone != location.ZoneB {
			return nil, fmt.Errorf("zone %q has no shelf labels", s.Zone)
		}
		if s.RowFrom <= 0 || s.RowTo < s.RowFrom || s.LevelFrom <= 0 || s.LevelTo < s.LevelFrom || s.Positions <= 0 {
			return nil, errors.New("shelf range is empty")
		}
		var codes []string
		for row := s.RowFrom; row <= s.RowTo; row++ {
			for level := s.LevelFrom; level <= s.LevelTo; level++ {
				for pos := 1; pos <= s.Positions; pos++ {
					codes = append(codes, location.Encode(location.Slot{
						Warehouse: location.ClampWarehouse(s.Warehouse),
						Zone:      zone,
						Row:       row,
						Level:     level,
						Pos:       pos,
					}))
				}
			}
		}
		return capLabels(codes)
	}

	if c.Hall != nil {
		h := c.Hall
		if h.From <= 0 || h.To < h.From {
			return nil, errors.New("hall range is empty")
		}
		var codes []string
		for pos := h.From; pos <= h.To; pos++ {
			codes = append(codes, location.Encode(location.Slot{
				Warehouse: location.ClampWarehouse(h.Warehouse),
				Zone:      location.ZoneHall,
				Pos:       pos,
			}))
		}
		return capLabels(codes)
	}

	return nil, errors.New("nothing to print: set codes, shelf or hall")
}

func capLabels(codes []string) ([]string, error) {
	if len(codes) > maxLabels {
		return nil, fmt.Errorf("%d labels exceed the per-sheet limit of %d", len(codes), maxLabels)
	}
	return codes, nil
}

// GenerateSheet renders the labels as an A4 PDF, one QR per slot with the
// code printed underneath so a torn QR can still be read out. Codes come
// from Expand so callers can reject bad ranges before rendering.
func GenerateSheet(cfg SheetConfig, codes []string) ([]byte, error) {
	cfg = cfg.withDefaults()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)

	// A4 dimensions
	pageWidth, pageHeight := 210.0, 297.0

	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY

	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)

	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)

	labelsPerPage := cfg.Cols * cfg.Rows

	for i, code := range codes {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols

		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		// the QR carries the bare code; scanners feed it straight into
		// the position field
		qrPng, err := qrcode.Encode(code, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", code, err)
		}

		imgName := fmt.Sprintf("qr_%d", i)
		imgOptions := gofpdf.ImageOptions{
			ImageType: "PNG",
			ReadDpi:   true,
		}
		pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(qrPng))

		qrSize := labelH * 0.7
		if qrSize > labelW {
			qrSize = labelW * 0.9
		}
		qrX := x + (labelW-qrSize)/2
		qrY := y + (labelH-qrSize)/2 - 2 // shift up for the text line

		pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, imgOptions, 0, "")

		// code below the QR
		pdf.SetXY(x, y+labelH-6)
		pdf.SetFontSize(8)
		pdf.CellFormat(labelW, 5, code, "", 0, "C", false, 0, "")

		// warehouse tag top right, for sorting printed sheets by hand
		if slot := location.Decode(code); slot != nil {
			pdf.SetXY(x, y+1)
			pdf.SetFontSize(6)
			pdf.CellFormat(labelW, 3, fmt.Sprintf("K%d", slot.Warehouse), "", 0, "R", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
