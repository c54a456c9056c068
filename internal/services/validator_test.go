package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenMB = 10 * 1024 * 1024

func TestValidateFilename(t *testing.T) {
	validator := NewFileValidator(tenMB)

	tests := []struct {
		name     string
		filename string
		wantErr  string
	}{
		{"CSV file", "cartola.csv", ""},
		{"TXT export", "movimientos.txt", ""},
		{"TSV export", "movimientos.tsv", ""},
		{"XLSX file", "cartola_marzo.xlsx", ""},
		{"PDF file", "cartola-2024.pdf", ""},
		{"Upper case extension", "CARTOLA.CSV", ""},
		{"Filename with spaces", "cartola banco.csv", ""},
		{"Empty", "", "filename cannot be empty"},
		{"Path traversal", "../../../etc/passwd.csv", "path traversal"},
		{"Windows traversal", "..\\..\\windows\\file.csv", "path traversal"},
		{"Null byte", "file\x00.csv", "null bytes"},
		{"Unix absolute path", "/etc/passwd.csv", "absolute path"},
		{"Windows absolute path", "\\Windows\\file.csv", "absolute path"},
		{"No extension", "cartola", "must have an extension"},
		{"Legacy XLS", "cartola.xls", "unsupported file extension"},
		{"Executable", "malicious.exe", "unsupported file extension"},
		{"Image", "foto.jpg", "unsupported file extension"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.ValidateFilename(tc.filename)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateMimeType(t *testing.T) {
	validator := NewFileValidator(tenMB)

	tests := []struct {
		name        string
		contentType string
		wantErr     bool
	}{
		{"CSV", "text/csv", false},
		{"CSV with charset", "text/csv; charset=windows-1252", false},
		{"Plain text", "text/plain", false},
		{"TSV", "text/tab-separated-values", false},
		{"XLSX", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", false},
		{"PDF", "application/pdf", false},
		{"Octet stream", "application/octet-stream", false},
		{"Image", "image/jpeg", true},
		{"HTML", "text/html", true},
		{"JSON", "application/json", true},
		{"ZIP", "application/zip", true},
		{"Empty", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.ValidateMimeType(tc.contentType)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    FileType
		wantErr string
	}{
		{"CSV", []byte("Fecha;Descripción;Monto\n15/03/2024;Depósito;150.000"), FileTypeText, ""},
		{"Windows-1252 text", []byte("Fecha;Descripci\xf3n;Monto\n15/03/2024;Dep\xf3sito;150.000"), FileTypeText, ""},
		{"XLSX", []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00}, FileTypeXLSX, ""},
		{"PDF", []byte("%PDF-1.4\n"), FileTypePDF, ""},
		{"Binary", []byte{0xFF, 0xD8, 0x00, 0xE0}, "", "unsupported file type"},
		{"Empty", []byte{}, "", "empty file"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectFileType(tc.data)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateFileSize(t *testing.T) {
	validator := NewFileValidator(tenMB)

	tests := []struct {
		name    string
		size    int64
		wantErr string
	}{
		{"Small file", 1024, ""},
		{"Max size", tenMB, ""},
		{"Too large", tenMB + 1, "exceeds maximum"},
		{"Zero", 0, "empty file"},
		{"Negative", -1, "invalid file size"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.ValidateFileSize(tc.size)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateFile_ValidCSV(t *testing.T) {
	validator := NewFileValidator(tenMB)

	content := "Fecha,Descripcion,Monto\n15/03/2024,Compra,-45990\n"
	result, err := validator.ValidateFile(strings.NewReader(content), "cartola.csv", "text/csv")

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, FileTypeText, result.DetectedType)
	assert.Equal(t, int64(len(content)), result.Size)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateFile_ValidPDF(t *testing.T) {
	validator := NewFileValidator(tenMB)

	result, err := validator.ValidateFile(bytes.NewReader([]byte("%PDF-1.4")), "cartola.pdf", "application/pdf")

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, FileTypePDF, result.DetectedType)
}

func TestValidateFile_MismatchedMimeAndContent(t *testing.T) {
	validator := NewFileValidator(tenMB)

	result, err := validator.ValidateFile(bytes.NewReader([]byte("%PDF-1.4")), "fake.csv", "text/csv")

	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[len(result.Errors)-1], "MIME type does not match")
	assert.NotEmpty(t, result.Warnings, "extension mismatch is reported as a warning")
}

func TestValidateFile_InvalidInputs(t *testing.T) {
	validator := NewFileValidator(tenMB)

	tests := []struct {
		name        string
		content     string
		filename    string
		contentType string
		wantErr     string
	}{
		{"path traversal", "Fecha,Monto\n", "../../../etc/passwd.csv", "text/csv", "path traversal"},
		{"bad MIME type", "Fecha,Monto\n", "cartola.csv", "image/jpeg", "unsupported MIME type"},
		{"empty file", "", "cartola.csv", "text/csv", "empty file"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := validator.ValidateFile(strings.NewReader(tc.content), tc.filename, tc.contentType)
			require.NoError(t, err)
			assert.False(t, result.Valid)
			require.NotEmpty(t, result.Errors)
			assert.Contains(t, result.Errors[0], tc.wantErr)
		})
	}
}
