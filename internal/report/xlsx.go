package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxTableSheet = "Coverage"
	xlsxGenesSheet = "Genes"
	xlsxHeaderRow  = 4 // 1-based; rows 1-3 hold headings
)

type xlsxStyles struct {
	header, gene, pct, lowGene, lowPct, pad int
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	align := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	font := func(italic bool, color string) *excelize.Font {
		return &excelize.Font{Family: docxFont, Size: 8, Italic: italic, Color: color}
	}

	var s xlsxStyles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.header, &excelize.Style{Border: border, Alignment: align, Font: &excelize.Font{Family: docxFont, Size: 8, Bold: true}}},
		{&s.gene, &excelize.Style{Border: border, Alignment: align, Font: font(true, "")}},
		{&s.pct, &excelize.Style{Border: border, Alignment: align, Font: font(false, ""), NumFmt: 2}},
		{&s.lowGene, &excelize.Style{Border: border, Alignment: align, Font: font(true, docxLowColor)}},
		{&s.lowPct, &excelize.Style{Border: border, Alignment: align, Font: font(false, docxLowColor), NumFmt: 2}},
		{&s.pad, &excelize.Style{Border: border}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}

// WriteXLSX writes the chunked coverage table as a workbook. A second sheet
// lists every gene with its rank and low coverage flag.
func WriteXLSX(w io.Writer, d *Data, opts Options) error {
	opts = opts.withDefaults()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxTableSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	styles, err := newXLSXStyles(f)
	if err != nil {
		return err
	}

	set := func(col, row int, v any, style int) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if v != nil {
			if err := f.SetCellValue(xlsxTableSheet, cell, v); err != nil {
				return err
			}
		}
		if style > 0 {
			return f.SetCellStyle(xlsxTableSheet, cell, cell, style)
		}
		return nil
	}

	if err := set(1, 1, opts.Title, 0); err != nil {
		return err
	}
	if err := set(1, 2, opts.Subtitle, 0); err != nil {
		return err
	}
	if opts.Sample != "" {
		if err := set(1, 3, "Sample: "+opts.Sample, 0); err != nil {
			return err
		}
	}
	for i := 0; i < GenesPerRow; i++ {
		if err := set(2*i+1, xlsxHeaderRow, geneHeader, styles.header); err != nil {
			return err
		}
		if err := set(2*i+2, xlsxHeaderRow, pctHeader, styles.header); err != nil {
			return err
		}
	}

	for r, row := range d.Rows {
		rowNum := xlsxHeaderRow + 1 + r
		for i, c := range row {
			geneStyle, pctStyle := styles.gene, styles.pct
			if c.Low {
				geneStyle, pctStyle = styles.lowGene, styles.lowPct
			}
			var gene, pct any
			if c.Empty {
				geneStyle, pctStyle = styles.pad, styles.pad
			} else {
				gene, pct = c.GeneID, c.Pct1x
			}
			if err := set(2*i+1, rowNum, gene, geneStyle); err != nil {
				return err
			}
			if err := set(2*i+2, rowNum, pct, pctStyle); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(xlsxTableSheet, "A", "H", 14); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := writeGenesSheet(f, d, opts); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeGenesSheet(f *excelize.File, d *Data, opts Options) error {
	if _, err := f.NewSheet(xlsxGenesSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	header := []any{"Rank", "Gene_ID", ColumnPerc1x, "Low coverage"}
	if err := f.SetSheetRow(xlsxGenesSheet, "A1", &header); err != nil {
		return err
	}
	for i, e := range d.Genes {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{e.Rank, e.GeneID, e.Pct1x, e.Low}
		if err := f.SetSheetRow(xlsxGenesSheet, cell, &row); err != nil {
			return err
		}
	}
	for i, gene := range opts.Missing {
		cell, err := excelize.CoordinatesToCellName(6, i+1)
		if err != nil {
			return err
		}
		v := "Not found: " + gene
		if err := f.SetCellValue(xlsxGenesSheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
