package sri

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/davcruz/facturador-api/internal/domain/entity"
	pkgsri "github.com/davcruz/facturador-api/pkg/sri"
)

// Versiones de esquema publicadas por el SRI para la ficha técnica vigente.
const (
	schemaVersionFactura     = "1.1.0"
	schemaVersionNotaCredito = "1.1.0"
	schemaVersionNotaDebito  = "1.0.0"
	schemaVersionRetencion   = "1.0.0"

	// Id del elemento raíz; la Reference de la firma XAdES apunta a "#comprobante".
	comprobanteElementID = "comprobante"

	fechaEmisionLayout = "02/01/2006"
)

// XMLBuilderService construye el XML del comprobante (sin firma XAdES) según
// los esquemas XSD del SRI.
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el []byte del comprobante según su tipo (codDoc).
func (s *XMLBuilderService) Build(ctx *DocumentBuildContext) ([]byte, error) {
	if ctx == nil || ctx.Document == nil || ctx.Company == nil || ctx.Customer == nil {
		return nil, fmt.Errorf("sri: faltan document, company o customer en el contexto")
	}
	if ctx.Document.AccessKey == "" {
		return nil, fmt.Errorf("sri: el comprobante no tiene clave de acceso asignada")
	}

	switch ctx.Document.DocumentType {
	case pkgsri.DocTypeInvoice:
		return s.buildRoot(ctx, "factura", schemaVersionFactura, s.writeInfoFactura, true)
	case pkgsri.DocTypeCreditNote:
		return s.buildRoot(ctx, "notaCredito", schemaVersionNotaCredito, s.writeInfoNotaCredito, true)
	case pkgsri.DocTypeDebitNote:
		return s.buildRoot(ctx, "notaDebito", schemaVersionNotaDebito, s.writeInfoNotaDebito, false)
	case pkgsri.DocTypeRetention:
		return s.buildRoot(ctx, "comprobanteRetencion", schemaVersionRetencion, s.writeInfoCompRetencion, false)
	default:
		return nil, fmt.Errorf("sri: tipo de comprobante %q no soportado", ctx.Document.DocumentType)
	}
}

type infoWriter func(enc *xml.Encoder, ctx *DocumentBuildContext) error

// buildRoot arma el esqueleto común: raíz con id/version, infoTributaria, el
// bloque info* propio del tipo, detalles (si aplica) e infoAdicional.
func (s *XMLBuilderService) buildRoot(ctx *DocumentBuildContext, rootName, version string, writeInfo infoWriter, withDetalles bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: rootName},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "id"}, Value: comprobanteElementID},
			{Name: xml.Name{Local: "version"}, Value: version},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	if err := s.writeInfoTributaria(enc, ctx); err != nil {
		return nil, err
	}
	if err := writeInfo(enc, ctx); err != nil {
		return nil, err
	}
	if withDetalles {
		if err := s.writeDetalles(enc, ctx); err != nil {
			return nil, err
		}
	}
	s.writeInfoAdicional(enc, ctx)

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeInfoTributaria identidad del emisor y numeración; idéntica para los
// cuatro tipos de comprobante.
func (s *XMLBuilderService) writeInfoTributaria(enc *xml.Encoder, ctx *DocumentBuildContext) error {
	doc := ctx.Document
	start(enc, "infoTributaria")
	writeEl(enc, "ambiente", ctx.Environment)
	writeEl(enc, "tipoEmision", ctx.EmissionType)
	writeEl(enc, "razonSocial", ctx.Company.Name)
	if ctx.Company.TradeName != "" {
		writeEl(enc, "nombreComercial", ctx.Company.TradeName)
	}
	writeEl(enc, "ruc", ctx.Company.RUC)
	writeEl(enc, "claveAcceso", doc.AccessKey)
	writeEl(enc, "codDoc", doc.DocumentType)
	writeEl(enc, "estab", doc.Establishment)
	writeEl(enc, "ptoEmi", doc.EmissionPoint)
	writeEl(enc, "secuencial", fmt.Sprintf("%09d", doc.Sequential))
	writeEl(enc, "dirMatriz", ctx.Company.Address)
	end(enc, "infoTributaria")
	return nil
}

func (s *XMLBuilderService) writeInfoFactura(enc *xml.Encoder, ctx *DocumentBuildContext) error {
	doc := ctx.Document
	start(enc, "infoFactura")
	writeEl(enc, "fechaEmision", doc.IssueDate.Format(fechaEmisionLayout))
	if ctx.Company.Address != "" {
		writeEl(enc, "dirEstablecimiento", ctx.Company.Address)
	}
	writeEl(enc, "obligadoContabilidad", obligadoContabilidad(ctx.Company.ObligadoContabilidad))
	writeEl(enc, "tipoIdentificacionComprador", ctx.Customer.IdentificationType)
	writeEl(enc, "razonSocialComprador", ctx.Customer.Name)
	writeEl(enc, "identificacionComprador", ctx.Customer.Identification)
	writeEl(enc, "totalSinImpuestos", formatAmount(doc.Subtotal))
	writeEl(enc, "totalDescuento", formatAmount(totalDiscount(ctx.Lines)))

	if err := s.writeTotalConImpuestos(enc, ctx); err != nil {
		return err
	}

	writeEl(enc, "propina", "0.00")
	writeEl(enc, "importeTotal", formatAmount(doc.Total))
	writeEl(enc, "moneda", pkgsri.CurrencyDolar)
	end(enc, "infoFactura")
	return nil
}

func (s *XMLBuilderService) writeInfoNotaCredito(enc *xml.Encoder, ctx *DocumentBuildContext) error {
	doc := ctx.Document
	start(enc, "infoNotaCredito")
	writeEl(enc, "fechaEmision", doc.IssueDate.Format(fechaEmisionLayout))
	if ctx.Company.Address != "" {
		writeEl(enc, "dirEstablecimiento", ctx.Company.Address)
	}
	writeEl(enc, "tipoIdentificacionComprador", ctx.Customer.IdentificationType)
	writeEl(enc, "razonSocialComprador", ctx.Customer.Name)
	writeEl(enc, "identificacionComprador", ctx.Customer.Identification)
	writeEl(enc, "obligadoContabilidad", obligadoContabilidad(ctx.Company.ObligadoContabilidad))
	writeEl(enc, "codDocModificado", doc.ModifiedDocType)
	writeEl(enc, "numDocModificado", doc.ModifiedDocNumber)
	if doc.ModifiedDocDate != nil {
		writeEl(enc, "fechaEmisionDocSustento", doc.ModifiedDocDate.Format(fechaEmisionLayout))
	}
	writeEl(enc, "totalSinImpuestos", formatAmount(doc.Subtotal))
	writeEl(enc, "valorModificacion", formatAmount(doc.Total))
	writeEl(enc, "moneda", pkgsri.CurrencyDolar)

	if err := s.writeTotalConImpuestos(enc, ctx); err != nil {
		return err
	}

	writeEl(enc, "motivo", doc.Motive)
	end(enc, "infoNotaCredito")
	return nil
}

func (s *XMLBuilderService) writeInfoNotaDebito(enc *xml.Encoder, ctx *DocumentBuildContext) error {
	doc := ctx.Document
	start(enc, "infoNotaDebito")
	writeEl(enc, "fechaEmision", doc.IssueDate.Format(fechaEmisionLayout))
	if ctx.Company.Address != "" {
		writeEl(enc, "dirEstablecimiento", ctx.Company.Address)
	}
	writeEl(enc, "tipoIdentificacionComprador", ctx.Customer.IdentificationType)
	writeEl(enc, "razonSocialComprador", ctx.Customer.Name)
	writeEl(enc, "identificacionComprador", ctx.Customer.Identification)
	writeEl(enc, "obligadoContabilidad", obligadoContabilidad(ctx.Company.ObligadoContabilidad))
	writeEl(enc, "codDocModificado", doc.ModifiedDocType)
	writeEl(enc, "numDocModificado", doc.ModifiedDocNumber)
	if doc.ModifiedDocDate != nil {
		writeEl(enc, "fechaEmisionDocSustento", doc.ModifiedDocDate.Format(fechaEmisionLayout))
	}
	writeEl(enc, "totalSinImpuestos", formatAmount(doc.Subtotal))

	// En nota de débito los impuestos van dentro del bloque info, sin detalles.
	start(enc, "impuestos")
	for _, t := range summarizeTaxes(ctx.Lines, ctx.Document) {
		start(enc, "impuesto")
		writeEl(enc, "codigo", pkgsri.TaxCodeIVA)
		writeEl(enc, "codigoPorcentaje", t.PercentageCode)
		writeEl(enc, "tarifa", t.Rate.StringFixed(0))
		writeEl(enc, "baseImponible", formatAmount(t.Base))
		writeEl(enc, "valor", formatAmount(t.Amount))
		end(enc, "impuesto")
	}
	end(enc, "impuestos")

	writeEl(enc, "valorTotal", formatAmount(doc.Total))

	start(enc, "motivos")
	start(enc, "motivo")
	writeEl(enc, "razon", doc.Motive)
	writeEl(enc, "valor", formatAmount(doc.Subtotal))
	end(enc, "motivo")
	end(enc, "motivos")
	end(enc, "infoNotaDebito")
	return nil
}

func (s *XMLBuilderService) writeInfoCompRetencion(enc *xml.Encoder, ctx *DocumentBuildContext) error {
	doc := ctx.Document
	start(enc, "infoCompRetencion")
	writeEl(enc, "fechaEmision", doc.IssueDate.Format(fechaEmisionLayout))
	if ctx.Company.Address != "" {
		writeEl(enc, "dirEstablecimiento", ctx.Company.Address)
	}
	writeEl(enc, "obligadoContabilidad", obligadoContabilidad(ctx.Company.ObligadoContabilidad))
	writeEl(enc, "tipoIdentificacionSujetoRetenido", ctx.Customer.IdentificationType)
	writeEl(enc, "razonSocialSujetoRetenido", ctx.Customer.Name)
	writeEl(enc, "identificacionSujetoRetenido", ctx.Customer.Identification)
	writeEl(enc, "periodoFiscal", doc.IssueDate.Format("01/2006"))
	end(enc, "infoCompRetencion")

	// Cada línea es una retención practicada; TaxRate es el porcentaje retenido.
	start(enc, "impuestos")
	for _, line := range ctx.Lines {
		start(enc, "impuesto")
		writeEl(enc, "codigo", pkgsri.TaxCodeIVA)
		writeEl(enc, "codigoRetencion", line.ProductCode)
		writeEl(enc, "baseImponible", formatAmount(line.Subtotal))
		writeEl(enc, "porcentajeRetener", line.TaxRate.StringFixed(2))
		writeEl(enc, "valorRetenido", formatAmount(line.Subtotal.Mul(line.TaxRate).Div(decimal.NewFromInt(100))))
		if doc.ModifiedDocType != "" {
			writeEl(enc, "codDocSustento", doc.ModifiedDocType)
			writeEl(enc, "numDocSustento", digitsOnly(doc.ModifiedDocNumber))
			if doc.ModifiedDocDate != nil {
				writeEl(enc, "fechaEmisionDocSustento", doc.ModifiedDocDate.Format(fechaEmisionLayout))
			}
		}
		end(enc, "impuesto")
	}
	end(enc, "impuestos")
	return nil
}

// writeTotalConImpuestos agrega los impuestos de las líneas por codigoPorcentaje.
func (s *XMLBuilderService) writeTotalConImpuestos(enc *xml.Encoder, ctx *DocumentBuildContext) error {
	start(enc, "totalConImpuestos")
	for _, t := range summarizeTaxes(ctx.Lines, ctx.Document) {
		start(enc, "totalImpuesto")
		writeEl(enc, "codigo", pkgsri.TaxCodeIVA)
		writeEl(enc, "codigoPorcentaje", t.PercentageCode)
		writeEl(enc, "baseImponible", formatAmount(t.Base))
		writeEl(enc, "valor", formatAmount(t.Amount))
		end(enc, "totalImpuesto")
	}
	end(enc, "totalConImpuestos")
	return nil
}

func (s *XMLBuilderService) writeDetalles(enc *xml.Encoder, ctx *DocumentBuildContext) error {
	start(enc, "detalles")
	for _, line := range ctx.Lines {
		start(enc, "detalle")
		if line.ProductCode != "" {
			writeEl(enc, "codigoPrincipal", line.ProductCode)
		}
		writeEl(enc, "descripcion", line.Description)
		writeEl(enc, "cantidad", line.Quantity.StringFixed(2))
		writeEl(enc, "precioUnitario", line.UnitPrice.StringFixed(2))
		writeEl(enc, "descuento", formatAmount(line.Discount))
		writeEl(enc, "precioTotalSinImpuesto", formatAmount(line.Subtotal))

		code, ok := pkgsri.IVAPercentageCode(line.TaxRate.StringFixed(0))
		if !ok {
			return fmt.Errorf("sri: tarifa de IVA %s sin codigoPorcentaje", line.TaxRate.StringFixed(0))
		}
		start(enc, "impuestos")
		start(enc, "impuesto")
		writeEl(enc, "codigo", pkgsri.TaxCodeIVA)
		writeEl(enc, "codigoPorcentaje", code)
		writeEl(enc, "tarifa", line.TaxRate.StringFixed(0))
		writeEl(enc, "baseImponible", formatAmount(line.Subtotal))
		writeEl(enc, "valor", formatAmount(line.Subtotal.Mul(line.TaxRate).Div(decimal.NewFromInt(100))))
		end(enc, "impuesto")
		end(enc, "impuestos")
		end(enc, "detalle")
	}
	end(enc, "detalles")
	return nil
}

// writeInfoAdicional contacto del comprador; el SRI lo admite como campos libres.
func (s *XMLBuilderService) writeInfoAdicional(enc *xml.Encoder, ctx *DocumentBuildContext) {
	if ctx.Customer.Email == "" && ctx.Customer.Phone == "" && ctx.Customer.Address == "" {
		return
	}
	start(enc, "infoAdicional")
	writeCampoAdicional(enc, "Email", ctx.Customer.Email)
	writeCampoAdicional(enc, "Telefono", ctx.Customer.Phone)
	writeCampoAdicional(enc, "Direccion", ctx.Customer.Address)
	end(enc, "infoAdicional")
}

// ── helpers ───────────────────────────────────────────────────────────────────

// summarizeTaxes agrupa las líneas por codigoPorcentaje, en orden de primera
// aparición. Si no hay líneas (nota de débito armada solo con totales), cae a
// los totales del documento derivando la tarifa de TaxTotal/Subtotal.
func summarizeTaxes(lines []DocumentLineForXML, doc *entity.TaxDocument) []TaxSummaryLine {
	if len(lines) == 0 {
		rate := decimal.Zero
		if doc.Subtotal.IsPositive() {
			rate = doc.TaxTotal.Div(doc.Subtotal).Mul(decimal.NewFromInt(100)).Round(0)
		}
		code, ok := pkgsri.IVAPercentageCode(rate.StringFixed(0))
		if !ok {
			code = pkgsri.IVARate0
		}
		return []TaxSummaryLine{{PercentageCode: code, Rate: rate, Base: doc.Subtotal, Amount: doc.TaxTotal}}
	}

	var order []string
	byCode := map[string]*TaxSummaryLine{}
	for _, l := range lines {
		code, ok := pkgsri.IVAPercentageCode(l.TaxRate.StringFixed(0))
		if !ok {
			code = pkgsri.IVARate0
		}
		sum, exists := byCode[code]
		if !exists {
			sum = &TaxSummaryLine{PercentageCode: code, Rate: l.TaxRate}
			byCode[code] = sum
			order = append(order, code)
		}
		sum.Base = sum.Base.Add(l.Subtotal)
		sum.Amount = sum.Amount.Add(l.Subtotal.Mul(l.TaxRate).Div(decimal.NewFromInt(100)))
	}
	out := make([]TaxSummaryLine, 0, len(order))
	for _, code := range order {
		out = append(out, *byCode[code])
	}
	return out
}

func start(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
}

func end(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

func writeEl(enc *xml.Encoder, local, value string) {
	start(enc, local)
	_ = enc.EncodeToken(xml.CharData(value))
	end(enc, local)
}

func writeCampoAdicional(enc *xml.Encoder, nombre, value string) {
	if value == "" {
		return
	}
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Local: "campoAdicional"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "nombre"}, Value: nombre}},
	})
	_ = enc.EncodeToken(xml.CharData(value))
	end(enc, "campoAdicional")
}

func obligadoContabilidad(b bool) string {
	if b {
		return pkgsri.ObligadoContabilidadSI
	}
	return pkgsri.ObligadoContabilidadNO
}

func formatAmount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

func totalDiscount(lines []DocumentLineForXML) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Discount)
	}
	return total
}

func digitsOnly(s string) string {
	var out []byte
	for _, b := range []byte(s) {
		if b >= '0' && b <= '9' {
			out = append(out, b)
		}
	}
	return string(out)
}
