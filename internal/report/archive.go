package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Archive collects rendered reports into a zip file.
type Archive struct {
	zw    *zip.Writer
	names map[string]int
}

// NewArchive creates an archive writing to w.
func NewArchive(w io.Writer) *Archive {
	return &Archive{zw: zip.NewWriter(w), names: make(map[string]int)}
}

// ArtifactName names the report of one input, e.g. "sample_report.docx".
func ArtifactName(base, suffix, ext string) string {
	return base + "_" + suffix + "." + strings.TrimPrefix(ext, ".")
}

// Add writes one entry. If name was already added, a numeric suffix is
// inserted before the extension ("a_report.docx", "a_report_2.docx").
// It returns the name used.
func (a *Archive) Add(name string, render func(io.Writer) error) (string, error) {
	a.names[name]++
	if n := a.names[name]; n > 1 {
		ext := ""
		if i := strings.LastIndexByte(name, '.'); i > 0 {
			name, ext = name[:i], name[i:]
		}
		name = name + "_" + strconv.Itoa(n) + ext
	}

	f, err := a.zw.Create(name)
	if err != nil {
		return "", fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if err := render(f); err != nil {
		return "", fmt.Errorf("render archive entry %s: %w", name, err)
	}
	return name, nil
}

// Close finishes the archive. It does not close the underlying writer.
func (a *Archive) Close() error {
	return a.zw.Close()
}
