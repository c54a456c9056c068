package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// FileType is a statement container format detected from content
type FileType string

const (
	FileTypeText FileType = "TEXT" // CSV, TSV or plain text
	FileTypeXLSX FileType = "XLSX"
	FileTypePDF  FileType = "PDF"
)

// ValidationResult contains the results of file validation
type ValidationResult struct {
	Valid        bool
	DetectedType FileType
	ContentType  string
	Size         int64
	Errors       []string
	Warnings     []string
}

// FileValidator validates uploaded statements before they are parsed
type FileValidator struct {
	maxSizeBytes int64
	allowedTypes map[string]bool
}

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04} // XLSX is a ZIP container
)

// Content types accepted for statement uploads. Browsers often send
// application/octet-stream for .txt and .tsv exports.
var allowedMimeTypes = map[string]bool{
	"text/csv":                  true,
	"text/plain":                true,
	"text/tab-separated-values": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/pdf":          true,
	"application/octet-stream": true,
}

var allowedExtensions = map[string]bool{
	".csv":  true,
	".txt":  true,
	".tsv":  true,
	".xlsx": true,
	".pdf":  true,
}

// NewFileValidator creates a new file validator with the specified maximum file size
func NewFileValidator(maxSizeBytes int64) *FileValidator {
	return &FileValidator{
		maxSizeBytes: maxSizeBytes,
		allowedTypes: allowedMimeTypes,
	}
}

// ValidateFile checks name, content type, size and content signature
func (v *FileValidator) ValidateFile(reader io.Reader, filename, contentType string) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:       true,
		ContentType: contentType,
		Errors:      []string{},
		Warnings:    []string{},
	}

	// 1. Validate filename
	if err := v.ValidateFilename(filename); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	// 2. Validate MIME type
	if err := v.ValidateMimeType(contentType); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	// 3. Read entire file content to validate size and magic bytes
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// 4. Validate file size
	result.Size = int64(len(data))
	if err := v.ValidateFileSize(result.Size); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	// 5. Detect file type from magic bytes
	detectedType, err := DetectFileType(data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}
	result.DetectedType = detectedType

	// 6. Check MIME type and extension against the detected type
	if !isContentTypeMatch(contentType, detectedType) {
		result.Valid = false
		result.Errors = append(result.Errors, "MIME type does not match file content")
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && fileTypeForExtension(ext) != detectedType {
		result.Warnings = append(result.Warnings, fmt.Sprintf("extension %s does not match %s content", ext, detectedType))
	}

	return result, nil
}

// ValidateFilename validates the filename for security issues
func (v *FileValidator) ValidateFilename(filename string) error {
	if filename == "" {
		return errors.New("filename cannot be empty")
	}

	if strings.Contains(filename, "..") {
		return errors.New("filename contains path traversal")
	}

	if strings.Contains(filename, "\x00") {
		return errors.New("filename contains null bytes")
	}

	if strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, "\\") {
		return errors.New("filename cannot be absolute path")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return errors.New("filename must have an extension")
	}

	if !allowedExtensions[ext] {
		return fmt.Errorf("unsupported file extension: %s", ext)
	}

	return nil
}

// ValidateMimeType validates the MIME type is allowed. Parameters such as
// "; charset=utf-8" are ignored.
func (v *FileValidator) ValidateMimeType(contentType string) error {
	if contentType == "" {
		return errors.New("MIME type cannot be empty")
	}

	if !v.allowedTypes[baseMediaType(contentType)] {
		return fmt.Errorf("unsupported MIME type: %s", contentType)
	}

	return nil
}

// ValidateFileSize validates the file size is within limits
func (v *FileValidator) ValidateFileSize(size int64) error {
	if size < 0 {
		return errors.New("invalid file size")
	}

	if size == 0 {
		return errors.New("empty file")
	}

	if size > v.maxSizeBytes {
		return fmt.Errorf("file size (%d bytes) exceeds maximum allowed size (%d bytes)", size, v.maxSizeBytes)
	}

	return nil
}

// DetectFileType identifies a statement container from its leading bytes
func DetectFileType(data []byte) (FileType, error) {
	if len(data) == 0 {
		return "", errors.New("empty file")
	}

	if bytes.HasPrefix(data, pdfMagic) {
		return FileTypePDF, nil
	}

	if bytes.HasPrefix(data, zipMagic) {
		return FileTypeXLSX, nil
	}

	if isTextContent(data) {
		return FileTypeText, nil
	}

	return "", errors.New("unsupported file type based on content")
}

func fileTypeForExtension(ext string) FileType {
	switch ext {
	case ".xlsx":
		return FileTypeXLSX
	case ".pdf":
		return FileTypePDF
	default:
		return FileTypeText
	}
}

func baseMediaType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// isContentTypeMatch checks if the MIME type matches the detected file type
func isContentTypeMatch(contentType string, detectedType FileType) bool {
	base := baseMediaType(contentType)
	if base == "application/octet-stream" {
		return true
	}
	switch detectedType {
	case FileTypeText:
		return base == "text/csv" || base == "text/plain" || base == "text/tab-separated-values"
	case FileTypeXLSX:
		return base == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FileTypePDF:
		return base == "application/pdf"
	default:
		return false
	}
}

// isTextContent checks if the data appears to be text. Bytes above 0x7F
// count as text so UTF-8 and Windows-1252 accents are accepted.
func isTextContent(data []byte) bool {
	checkLen := len(data)
	if checkLen > 512 {
		checkLen = 512
	}

	sample := data[:checkLen]

	if bytes.Contains(sample, []byte{0x00}) {
		return false
	}

	printable := 0
	for _, b := range sample {
		if b >= 0x20 || b == 0x09 || b == 0x0A || b == 0x0D {
			printable++
		}
	}

	return float64(printable)/float64(len(sample)) > 0.95
}
