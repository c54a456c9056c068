package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrUnsupportedFormat is returned for files that are not CSV, TXT, TSV, XLSX or PDF
	ErrUnsupportedFormat = errors.New("unsupported statement format")
	// ErrEmptyDocument is returned when a file holds no readable text
	ErrEmptyDocument = errors.New("statement has no readable content")
)

// LoadStatementText reads a statement file and returns its text, one
// movement row per line. Spreadsheet cells are joined with tabs so the
// structured tier sees a delimited document.
func LoadStatementText(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read statement: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmptyDocument
	}

	fileType, err := DetectFileType(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(filename))
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	var text string
	switch fileType {
	case FileTypeXLSX:
		text, err = spreadsheetText(data)
	case FileTypePDF:
		text, err = pdfText(data)
	default:
		text = decodeText(data)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// decodeText returns UTF-8 text, converting from Windows-1252 when the
// bytes are not valid UTF-8
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// spreadsheetText flattens every sheet of a workbook into tab-joined rows
func spreadsheetText(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			if isEmptyRow(row) {
				continue
			}
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// pdfText extracts text row by row, falling back to the reader's plain
// text stream when rows cannot be rebuilt
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return "", ErrEmptyDocument
	}

	var lines []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
	}
	if len(lines) > 0 {
		return strings.Join(lines, "\n"), nil
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}
	return string(raw), nil
}
