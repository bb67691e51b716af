package validation

import (
	"bytes"
	"io"
	"mime/multipart"
	"strings"

	"sales-crm/pkg/constants"
	apperrors "sales-crm/pkg/errors"
)

// xlsx files are zip containers
var zipSignature = []byte("PK\x03\x04")

// ValidateSpreadsheet checks the size, extension and magic bytes of an
// uploaded import file and rewinds it.
func ValidateSpreadsheet(fileHeader *multipart.FileHeader, file io.ReadSeeker) error {
	maxSize := int64(constants.MaxImportFileSizeMB) * 1024 * 1024
	if fileHeader.Size > maxSize {
		return apperrors.NewValidationError("file size %.2f MB exceeds the %d MB limit",
			float64(fileHeader.Size)/1024/1024, constants.MaxImportFileSizeMB)
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		return apperrors.NewValidationError("only .xlsx files can be imported")
	}

	header := make([]byte, len(zipSignature))
	if _, err := io.ReadFull(file, header); err != nil {
		return apperrors.NewValidationError("file is empty or unreadable")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return apperrors.NewUpstreamError(err)
	}
	if !bytes.Equal(header, zipSignature) {
		return apperrors.NewValidationError("file is not a valid .xlsx workbook")
	}
	return nil
}
