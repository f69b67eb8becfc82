package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/inodb/genecov/internal/analyze"
	"github.com/inodb/genecov/internal/report"
)

// Output formats.
const (
	formatDOCX = "docx"
	formatXLSX = "xlsx"
	formatHTML = "html"
	formatCSV  = "csv"
)

var knownFormats = []string{formatDOCX, formatXLSX, formatHTML, formatCSV}

// parseFormats splits a comma-separated format list, dropping duplicates.
func parseFormats(s string) ([]string, error) {
	var formats []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		known := false
		for _, k := range knownFormats {
			if f == k {
				known = true
				break
			}
		}
		if !known {
			return nil, usagef("unknown format %q (expected one of %s)", f, strings.Join(knownFormats, ", "))
		}
		seen[f] = true
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		return nil, usagef("no output format given")
	}
	return formats, nil
}

// artifact is one rendered output of an analysis.
type artifact struct {
	name   string
	render func(io.Writer) error
}

// artifacts lists the outputs of res in the requested formats.
func artifacts(base string, res *analyze.Result, opts report.Options, formats []string, column string) []artifact {
	var out []artifact
	for _, f := range formats {
		switch f {
		case formatCSV:
			out = append(out, artifact{report.ArtifactName(base, "filtered", "csv"), func(w io.Writer) error {
				return report.WriteGenesCSV(w, res.Genes, column)
			}})
		case formatDOCX:
			out = append(out, artifact{report.ArtifactName(base, "report", "docx"), func(w io.Writer) error {
				return report.WriteDOCX(w, res.Data, opts)
			}})
		case formatXLSX:
			out = append(out, artifact{report.ArtifactName(base, "report", "xlsx"), func(w io.Writer) error {
				return report.WriteXLSX(w, res.Data, opts)
			}})
		case formatHTML:
			out = append(out, artifact{report.ArtifactName(base, "report", "html"), func(w io.Writer) error {
				return report.WriteHTML(w, res.Data, opts)
			}})
		}
	}
	return out
}

// writeFileAtomic renders into a temporary file next to path and renames it
// into place, so a failed render never leaves a partial file at path.
func writeFileAtomic(path string, render func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := render(bw); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// formatSize formats a byte count as a human-readable string.
func formatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	}
	return fmt.Sprintf("%d B", bytes)
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "unknown"
	}
	return formatSize(info.Size())
}
