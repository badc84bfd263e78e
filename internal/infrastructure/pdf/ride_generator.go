// Package pdf implementa la generación del RIDE (Representación Impresa del
// Documento Electrónico) según la ficha técnica de comprobantes electrónicos
// del SRI.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + RUC  │  Tipo + N° + Fecha           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  AUTORIZACIÓN: número, fecha, ambiente, clave de acceso      │
//	│  EMISOR: Dirección matriz / contacto                         │
//	│  ADQUIRIENTE: Nombre + identificación + contacto             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | Dcto | IVA | Subtotal  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / IVA / VALOR TOTAL (USD)                 │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: código de barras de la clave de acceso + leyenda    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/barcode"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appbilling "github.com/davcruz/facturador-api/internal/application/billing"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	pkgsri "github.com/davcruz/facturador-api/pkg/sri"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// documentTitles nombre impreso por tipo de comprobante.
var documentTitles = map[string]string{
	pkgsri.DocTypeInvoice:    "FACTURA",
	pkgsri.DocTypeCreditNote: "NOTA DE CRÉDITO",
	pkgsri.DocTypeDebitNote:  "NOTA DE DÉBITO",
	pkgsri.DocTypeRetention:  "COMPROBANTE DE RETENCIÓN",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoRIDEGenerator implementa billing.RIDEGenerator usando Maroto v2.
type MarotoRIDEGenerator struct{}

// NewMarotoRIDEGenerator construye el generador.
func NewMarotoRIDEGenerator() *MarotoRIDEGenerator { return &MarotoRIDEGenerator{} }

// GenerateRIDE genera el PDF del comprobante autorizado y devuelve sus bytes.
func (g *MarotoRIDEGenerator) GenerateRIDE(
	_ context.Context,
	doc *entity.TaxDocument,
	company *entity.Company,
	customer *entity.Customer,
	lines []appbilling.DocumentLineForPDF,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(documentTitle(doc.DocumentType)+" "+doc.Number, true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)

	// Header principal
	m.AddRows(headerRow(doc, company))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(authorizationRow(doc))
	m.AddRows(emisorRow(company))
	m.AddRows(adquirienteRow(customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	// Tabla de detalles
	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(lines) {
		m.AddRows(r)
	}

	// Totales
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(doc))

	// Footer SRI
	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range sriFooterRows(doc) {
		m.AddRows(r)
	}

	pdfDoc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar RIDE: %w", err)
	}
	return pdfDoc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: razón social + RUC (izq) y tipo + número + fecha (der).
func headerRow(doc *entity.TaxDocument, company *entity.Company) core.Row {
	fecha := doc.IssueDate.Format("02/01/2006")

	left := col.New(7).Add(
		text.New(company.Name, props.Text{
			Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
		}),
		text.New("RUC: "+company.RUC, props.Text{
			Size: 9, Top: 9, Color: colorGray,
		}),
	)
	if company.TradeName != "" && company.TradeName != company.Name {
		left = col.New(7).Add(
			text.New(company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(company.TradeName, props.Text{Size: 9, Top: 8, Color: colorGray}),
			text.New("RUC: "+company.RUC, props.Text{Size: 9, Top: 13, Color: colorGray}),
		)
	}

	return row.New(18).Add(
		left,
		col.New(5).Add(
			text.New(documentTitle(doc.DocumentType), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("N° "+doc.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha emisión: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// authorizationRow: número de autorización, fecha y ambiente.
func authorizationRow(doc *entity.TaxDocument) core.Row {
	fechaAut := "—"
	if doc.AuthorizedAt != nil {
		fechaAut = doc.AuthorizedAt.Format("02/01/2006 15:04:05")
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("AUTORIZACIÓN SRI", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New("N° autorización: "+nonEmpty(doc.AuthorizationNumber, "—"), props.Text{
				Size: 8, Top: 6, Color: colorGray,
			}),
			text.New(fmt.Sprintf("Fecha autorización: %s   |   Ambiente: %s   |   Emisión: NORMAL",
				fechaAut, ambienteLegend(doc.AccessKey),
			), props.Text{Size: 8, Top: 10, Color: colorGray}),
		),
	)
}

// emisorRow: datos del emisor.
func emisorRow(company *entity.Company) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DATOS DEL EMISOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Dirección matriz: %s   |   Tel: %s   |   Email: %s   |   Obligado a llevar contabilidad: %s",
				nonEmpty(company.Address, "—"),
				nonEmpty(company.Phone, "—"),
				nonEmpty(company.Email, "—"),
				siNo(company.ObligadoContabilidad),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// adquirienteRow: datos del comprador.
func adquirienteRow(customer *entity.Customer) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("ADQUIRIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(customer.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Identificación: %s   |   Email: %s   |   Tel: %s",
				customer.Identification,
				nonEmpty(customer.Email, "—"),
				nonEmpty(customer.Phone, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de detalles.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("P. Unit.", 2, align.Right),
		h("Dcto.", 1, align.Right),
		h("IVA%", 1, align.Center),
		h("Subtotal", 2, align.Right),
	)
}

// tableDetailRows: una fila por línea de detalle, importes en USD.
func tableDetailRows(lines []appbilling.DocumentLineForPDF) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				l.Quantity.StringFixed(0),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				l.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+l.UnitPrice.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				"$"+l.Discount.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1},
			)),
			col.New(1).Add(text.New(
				l.TaxRate.StringFixed(0)+"%",
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				"$"+l.Subtotal.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(doc *entity.TaxDocument) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(26).Add(
		col.New(3), // espacio izquierdo
		col.New(3).Add(
			label("Subtotal sin impuestos:"),
			label("IVA:"),
			grandLabel("VALOR TOTAL (USD):"),
		),
		col.New(3).Add(
			value("$"+doc.Subtotal.StringFixed(2)),
			value("$"+doc.TaxTotal.StringFixed(2)),
			grandValue("$"+doc.Total.StringFixed(2)),
		),
		col.New(3), // espacio derecho
	)
}

// sriFooterRows: clave de acceso partida + código de barras + leyenda legal.
func sriFooterRows(doc *entity.TaxDocument) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("INFORMACIÓN ELECTRÓNICA SRI", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	if doc.AccessKey != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Clave de acceso:", props.Text{
				Style: fontstyle.Bold, Size: 7, Top: 1,
			}),
		)))
		// 49 dígitos en dos fragmentos legibles
		for _, chunk := range splitEvery(doc.AccessKey, 25) {
			rows = append(rows, row.New(4).Add(col.New(12).Add(
				text.New(chunk, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
			)))
		}
		rows = append(rows, row.New(3))
		rows = append(rows, row.New(18).Add(
			col.New(2),
			col.New(8).Add(code.NewBar(doc.AccessKey, props.Barcode{
				Percent: 90,
				Center:  true,
				Type:    barcode.Code128,
			})),
			col.New(2),
		))
	}

	// Leyenda legal
	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"Documento generado conforme a la ficha técnica de comprobantes "+
				"electrónicos del SRI. Puede validarlo con la clave de acceso en "+
				"el portal del SRI. Conserve este documento como soporte tributario.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func documentTitle(codDoc string) string {
	if t, ok := documentTitles[codDoc]; ok {
		return t
	}
	return "COMPROBANTE ELECTRÓNICO"
}

// ambienteLegend deriva la leyenda de ambiente del dígito 24 de la clave de
// acceso (fecha 8 + codDoc 2 + RUC 13 = posición 23).
func ambienteLegend(accessKey string) string {
	if len(accessKey) == 49 && accessKey[23] == pkgsri.EnvironmentProduction[0] {
		return "PRODUCCIÓN"
	}
	return "PRUEBAS"
}

func siNo(b bool) string {
	if b {
		return "SI"
	}
	return "NO"
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
