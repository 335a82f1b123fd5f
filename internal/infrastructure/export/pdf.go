package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
)

// Page geometry in millimetres.
const (
	pageMargin   = 20.0
	titleY       = 20.0
	bodyY        = 35.0
	bodyFontSize = 10.0
	lineHeight   = 5.0
)

// WriteConsentPDF renders the consent document as an A4 PDF.
func WriteConsentPDF(w io.Writer, doc entities.ConsentDocument) error {
	if strings.TrimSpace(doc.Body) == "" {
		return domainerrors.ErrConsentNotReady
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(doc.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(pageMargin, titleY, tr(doc.Title))

	pdf.SetFont("Helvetica", "", bodyFontSize)
	pdf.SetXY(pageMargin, bodyY)
	pageWidth, _ := pdf.GetPageSize()
	pdf.MultiCell(pageWidth-2*pageMargin, lineHeight, tr(doc.Body), "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: render consent pdf: %w", err)
	}
	return nil
}
