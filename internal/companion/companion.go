// Package companion locates and checks the PDF report that accompanies a
// signal file in its acquisition directory.
package companion

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Marker is the case-sensitive substring that identifies a companion document.
const Marker = ".pdf"

// ErrInvalidDocument is returned by Verify when the document fails validation.
var ErrInvalidDocument = errors.New("invalid companion document")

// Find returns the first regular file in dir, in lexical order, whose name
// contains Marker. It returns "" when there is none.
func Find(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), Marker) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !e.Type().IsRegular() {
			// Follow symlinks; anything else is not a document.
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		return path, nil
	}
	return "", nil
}

// Verify validates the PDF at path in relaxed mode and returns its page count.
func Verify(path string) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(path, conf); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, path, err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: count pages of %s: %v", ErrInvalidDocument, path, err)
	}
	if pages == 0 {
		return 0, fmt.Errorf("%w: %s has no pages", ErrInvalidDocument, path)
	}
	return pages, nil
}
