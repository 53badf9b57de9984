package extract

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// disableConfigDir stops pdfcpu from creating a config directory under the
// user's home the first time a configuration is built.
var disableConfigDir sync.Once

// PDFExtractor extracts the text layer of PDF documents.
//
// Text is decoded through each page's fonts, so simple encodings and
// composite (Type0) fonts with a ToUnicode map both come out as Unicode.
// Files the reader rejects are rewritten by pdfcpu in relaxed mode and read
// again, which recovers the slightly malformed files menu design tools tend
// to export.
type PDFExtractor struct {
	conf *model.Configuration
}

// NewPDFExtractor creates a PDFExtractor.
func NewPDFExtractor() *PDFExtractor {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	return &PDFExtractor{conf: conf}
}

// Extract returns the text of every page joined with newlines. A page without
// a text layer contributes an empty line.
func (e *PDFExtractor) Extract(body []byte) (result *Result, err error) {
	// Both readers panic on some corrupt cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: pdf reader panic: %v", ErrExtractionFailed, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		repaired, rerr := e.repair(body)
		if rerr != nil {
			return nil, fmt.Errorf("%w: read pdf: %w", ErrExtractionFailed, err)
		}
		if r, err = pdf.NewReader(bytes.NewReader(repaired), int64(len(repaired))); err != nil {
			return nil, fmt.Errorf("%w: read repaired pdf: %w", ErrExtractionFailed, err)
		}
	}

	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if !page.V.IsNull() {
			text.WriteString(pageText(page))
		}
		text.WriteString("\n")
	}

	return &Result{Text: text.String()}, nil
}

// repair reads body leniently with pdfcpu and writes it back out with a
// plain cross-reference table.
func (e *PDFExtractor) repair(body []byte) ([]byte, error) {
	ctx, err := api.ReadContext(bytes.NewReader(body), e.conf)
	if err != nil {
		return nil, err
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
