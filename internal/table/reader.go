// Package table reads and writes the delimited tabular files that
// corpora are distributed as.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/krankdata/krank/internal/model"
)

// ReadFile parses a cached corpus file into a raw table. The delimiter
// follows the file extension (.tsv is tab-separated, everything else is
// comma-separated). Non-UTF-8 files are decoded via charset detection
// before parsing.
func ReadFile(path string) (*model.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	decoded, err := decode(data)
	if err != nil {
		return nil, &model.FormatError{Path: path, Reason: "undecodable byte content", Err: err}
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		reader.Comma = '\t'
	}

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &model.FormatError{Path: path, Reason: "empty file"}
	}
	if err != nil {
		return nil, formatError(path, err)
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	t := model.NewTable(header...)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, formatError(path, err)
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// WriteCSV writes a table as UTF-8 comma-separated text.
func WriteCSV(w io.Writer, t *model.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes a table to path, creating parent directories.
func WriteCSVFile(path string, t *model.Table) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output file: %w", closeErr)
		}
	}()
	return WriteCSV(f, t)
}

// decode returns UTF-8 bytes for the file content. Valid UTF-8 passes
// through untouched; anything else goes through charset detection, which
// in practice means legacy windows-1252 exports.
func decode(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	enc, name, _ := charset.DetermineEncoding(sample, "")
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode as %s: %w", name, err)
	}
	return decoded, nil
}

func formatError(path string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		reason := parseErr.Err.Error()
		if errors.Is(parseErr.Err, csv.ErrFieldCount) {
			reason = "wrong number of fields"
		}
		return &model.FormatError{Path: path, Line: parseErr.Line, Reason: reason, Err: err}
	}
	return &model.FormatError{Path: path, Reason: err.Error(), Err: err}
}
