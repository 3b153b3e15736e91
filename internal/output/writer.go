// Package output writes extracted module records either as a directory
// tree of per-field text files or as labeled blocks on a stream.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hbkit/handbook-extract/internal/extract"
)

const dirPerm = 0o750

// forbiddenChars matches characters that may not appear in directory or
// file names built from extracted text.
var forbiddenChars = regexp.MustCompile(`[^\w\-.]`)

// Writer persists module records. With an output directory configured it
// writes one directory per module containing one file per field;
// otherwise it prints labeled blocks to the configured stream.
type Writer struct {
	outputDir string
	stream    io.Writer
}

// NewWriter creates a writer. An empty outputDir selects stream output.
func NewWriter(outputDir string, stream io.Writer) *Writer {
	if stream == nil {
		stream = os.Stdout
	}
	return &Writer{outputDir: outputDir, stream: stream}
}

// WriteRecords persists all module records.
func (w *Writer) WriteRecords(records []extract.ModuleRecord) error {
	for i := range records {
		if err := w.WriteRecord(&records[i]); err != nil {
			return err
		}
	}
	return nil
}

// WriteRecord persists a single module record.
func (w *Writer) WriteRecord(rec *extract.ModuleRecord) error {
	if w.outputDir == "" {
		return w.writeStream(rec)
	}
	return w.writeDirectory(rec)
}

// writeDirectory writes <outdir>/<id>-<name>/<id>-<field>.txt files, one
// per extracted field.
func (w *Writer) writeDirectory(rec *extract.ModuleRecord) error {
	moduleDir := filepath.Join(w.outputDir, moduleDirName(rec))
	if err := os.MkdirAll(moduleDir, dirPerm); err != nil {
		return fmt.Errorf("cannot create module directory %s: %w", moduleDir, err)
	}

	id := EscapeName(rec.ID)
	for _, field := range rec.FieldOrder {
		text, ok := rec.Fields[field]
		if !ok {
			continue
		}
		fileName := fmt.Sprintf("%s-%s.txt", id, EscapeName(field))
		filePath := filepath.Join(moduleDir, fileName)
		if err := os.WriteFile(filePath, []byte(text+"\n"), 0o644); err != nil {
			return fmt.Errorf("cannot write field file %s: %w", filePath, err)
		}
	}

	return nil
}

// writeStream prints a labeled block per module.
func (w *Writer) writeStream(rec *extract.ModuleRecord) error {
	header := fmt.Sprintf("--- module %s (page %d) ---\n", rec.ID, rec.FirstPage)
	if _, err := io.WriteString(w.stream, header); err != nil {
		return fmt.Errorf("cannot write output: %w", err)
	}

	for _, field := range rec.FieldOrder {
		text, ok := rec.Fields[field]
		if !ok {
			continue
		}
		block := fmt.Sprintf("%s:\n%s\n", field, indent(text))
		if _, err := io.WriteString(w.stream, block); err != nil {
			return fmt.Errorf("cannot write output: %w", err)
		}
	}

	return nil
}

// moduleDirName builds the module's directory name from its id and
// display name, with forbidden characters replaced.
func moduleDirName(rec *extract.ModuleRecord) string {
	name := rec.Name
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("%s-%s", EscapeName(rec.ID), EscapeName(name))
}

// EscapeName replaces characters that are unsafe in file names with
// underscores.
func EscapeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	return forbiddenChars.ReplaceAllString(name, "_")
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
