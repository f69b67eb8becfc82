package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

// DOCX layout constants.
const (
	docxFont       = "Calibri"
	docxFontPoints = 8
	docxLowColor   = "FF0000"
	docxPadColor   = "FFFFFF"
	docxPadText    = "–"
	docxTableStyle = "TableGrid"

	geneHeader = "Gene Name"
	pctHeader  = "Percentage of coding region covered"
)

// WriteDOCX writes the chunked coverage table as a Word document. Low
// coverage genes are printed in red; padding cells hold a white dash.
func WriteDOCX(w io.Writer, d *Data, opts Options) error {
	opts = opts.withDefaults()

	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new document: %w", err)
	}
	if _, err := doc.AddHeading(opts.Title, 1); err != nil {
		return fmt.Errorf("add title: %w", err)
	}
	if _, err := doc.AddHeading(opts.Subtitle, 2); err != nil {
		return fmt.Errorf("add subtitle: %w", err)
	}

	tbl := doc.AddTable()
	tbl.Style(docxTableStyle)

	hdr := tbl.AddRow()
	for i := 0; i < GenesPerRow; i++ {
		addDocxCell(hdr, geneHeader, false, "")
		addDocxCell(hdr, pctHeader, false, "")
	}

	for _, cells := range d.Rows {
		row := tbl.AddRow()
		for _, c := range cells {
			if c.Empty {
				addDocxCell(row, docxPadText, false, docxPadColor)
				addDocxCell(row, docxPadText, false, docxPadColor)
				continue
			}
			color := ""
			if c.Low {
				color = docxLowColor
			}
			addDocxCell(row, c.GeneID, true, color)
			addDocxCell(row, FormatPct(c.Pct1x), false, color)
		}
	}

	if len(opts.Missing) > 0 {
		doc.AddParagraph("Genes without coverage data: " + strings.Join(opts.Missing, ", "))
	}

	if err := doc.Write(w); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func addDocxCell(row *docx.Row, text string, italic bool, color string) {
	run := row.AddCell().AddParagraph("").AddText(text).Size(docxFontPoints)
	if italic {
		run.Italic(true)
	}
	if color != "" {
		run.Color(color)
	}
}
