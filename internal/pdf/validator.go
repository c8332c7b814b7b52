package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	strerrors "github.com/a3tai/str-extractor/internal/errors"
)

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// CheckExists fails with INPUT_FILE_NOT_FOUND when nothing exists at path.
// It is the only input check that aborts a run; everything Validate adds is a
// per-document failure.
func (v *Validator) CheckExists(filePath string) error {
	if filePath == "" {
		return strerrors.Newf(strerrors.KindInputFileNotFound, "validate input", "path cannot be empty")
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return strerrors.New(strerrors.KindInputFileNotFound, "validate input", err).WithPath(filePath)
	}
	return nil
}

// Validate checks that path names a readable, non-empty PDF within the size
// limit. A missing file is INPUT_FILE_NOT_FOUND.
func (v *Validator) Validate(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if err := v.CheckExists(filePath); err != nil {
		return err
	}
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	return v.ValidateFileInfo(filePath, fileInfo)
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

// CheckStructure runs pdfcpu's relaxed validation over the file
func (v *Validator) CheckStructure(filePath string) error {
	if err := v.Validate(filePath); err != nil {
		return err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(f, conf); err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}
	return nil
}
