package infra

// pdf.go: register-close report rendered with go-pdf/fpdf.
// One A4 page per report: caja header, the list of completed ventas and the
// reconciliation block (inicial, ventas, esperado, contado, diferencia).
// The file is written to storagePath/cierre_caja_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"hersis/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateCierreCajaPDF renders the close report of a cerrada caja and
// returns the path of the written file.
func GenerateCierreCajaPDF(caja *model.Caja, ventas []model.Venta, storagePath string) (string, error) {
	if caja.Estado != model.CajaCerrada {
		return "", fmt.Errorf("pdf: caja %s is not closed", caja.ID)
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("cierre_caja_%s.pdf", caja.ID))

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, tr("Cierre de caja"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Caja "+caja.ID.String(), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, "Sucursal "+caja.SucursalID.String(), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	apertura := caja.FechaApertura.Format("02/01/2006 15:04")
	cierre := "-"
	if caja.FechaCierre != nil {
		cierre = caja.FechaCierre.Format("02/01/2006 15:04")
	}
	pdf.CellFormat(contentW/2, 5, "Apertura: "+apertura, "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 5, "Cierre: "+cierre, "", 1, "R", false, 0, "")
	pdf.Ln(3)

	// ── Ventas ───────────────────────────────────────────────────────────────
	colID := contentW * 0.45
	colFecha := contentW * 0.30
	colTotal := contentW * 0.25

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(colID, 6, "Venta", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colFecha, 6, "Fecha", "B", 0, "C", false, 0, "")
	pdf.CellFormat(colTotal, 6, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, v := range ventas {
		pdf.CellFormat(colID, 5, v.ID.String(), "", 0, "L", false, 0, "")
		pdf.CellFormat(colFecha, 5, v.Fecha.Format("02/01 15:04"), "", 0, "C", false, 0, "")
		pdf.CellFormat(colTotal, 5, "$"+v.Total.StringFixed(2), "", 1, "R", false, 0, "")
	}
	if len(ventas) == 0 {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(contentW, 5, "Sin ventas registradas", "", 1, "C", false, 0, "")
	}

	pdf.Ln(3)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(3)

	// ── Conciliación ─────────────────────────────────────────────────────────
	row := func(label string, monto decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(contentW*0.7, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.3, 6, "$"+monto.StringFixed(2), "", 1, "R", false, 0, "")
	}
	row("Monto inicial", caja.MontoInicial, false)
	row(fmt.Sprintf("Ventas (%d)", len(ventas)), caja.VentasTotales, false)
	row("Monto esperado", caja.MontoEsperado, true)
	if caja.MontoFinal != nil {
		row("Efectivo contado", *caja.MontoFinal, false)
	}
	if caja.Diferencia != nil {
		row("Diferencia", *caja.Diferencia, true)
	}

	if caja.Observaciones != nil && *caja.Observaciones != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, tr("Observaciones: "+*caja.Observaciones), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
