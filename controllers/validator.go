package controllers

import (
	"io"
	"path/filepath"
	"strings"

	"cellar-service/apperrors"
	"cellar-service/models"

	"github.com/go-playground/validator/v10"
)

// DefaultMaxUploadSize bounds upload payloads when no limit is configured.
const DefaultMaxUploadSize = 10 * 1024 * 1024 // 10MB

var fileKindsByExtension = map[string]models.FileKind{
	".csv":  models.FileKindCSV,
	".xlsx": models.FileKindXLSX,
}

// RequestValidator handles all input validation
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validate: validator.New(),
	}
}

// FileKindFromFilename resolves the declared spreadsheet kind from the
// filename extension, rejecting unknown extensions before any parsing.
func (rv *RequestValidator) FileKindFromFilename(filename string) (models.FileKind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	kind, ok := fileKindsByExtension[ext]
	if !ok {
		return "", apperrors.NewValidation("unsupported file type %q; expected .csv or .xlsx", ext)
	}
	return kind, nil
}

// ValidateStruct runs tag-based validation over a bound request payload.
func (rv *RequestValidator) ValidateStruct(req interface{}) error {
	if err := rv.validate.Struct(req); err != nil {
		return apperrors.NewValidation("invalid request: %v", err)
	}
	return nil
}

// ReadBounded reads r in bounded chunks, aborting as soon as the running
// total exceeds maxBytes. An oversized payload is never buffered in full.
func ReadBounded(r io.Reader, maxBytes int64) ([]byte, error) {
	var buf []byte
	chunk := make([]byte, 32*1024)
	var total int64
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > maxBytes {
				return nil, apperrors.NewValidation("file exceeds the maximum upload size of %d bytes", maxBytes)
			}
			buf = append(buf, chunk[:n]...)
		}
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, apperrors.NewFormat("failed to read uploaded file: %v", err)
		}
	}
}
