package printing

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/trade"
)

// ReceiptLine is one printed sale item
type ReceiptLine struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// ReceiptData is everything the receipt template reads
type ReceiptData struct {
	StoreName     string
	StoreDocument string
	StoreEmail    string
	StorePhone    string
	Number        int64
	IssuedAt      time.Time
	Status        string
	PaymentMethod string
	CustomerName  string
	Lines         []ReceiptLine
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	Notes         string
	Cancelled     bool
}

// NewReceiptData flattens an organization and a sale (with items and
// customer preloaded) into template data
func NewReceiptData(org *identity.Organization, sale *trade.Sale) ReceiptData {
	data := ReceiptData{
		Number:        sale.Number,
		IssuedAt:      sale.CreatedAt,
		Status:        string(sale.Status),
		PaymentMethod: string(sale.PaymentMethod),
		Subtotal:      sale.Subtotal,
		Discount:      sale.Discount,
		Total:         sale.Total,
		Notes:         sale.Notes,
		Cancelled:     sale.Status == trade.SaleStatusCancelled,
	}
	if org != nil {
		data.StoreName = org.Name
		data.StoreDocument = org.Document
		data.StoreEmail = org.Email
		data.StorePhone = org.Phone
	}
	if sale.Customer != nil {
		data.CustomerName = sale.Customer.Name
	}
	for _, item := range sale.Items {
		data.Lines = append(data.Lines, ReceiptLine{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total,
		})
	}
	return data
}

// ReceiptPrinter renders receipts. pdf may be nil, in which case only HTML
// output is available.
type ReceiptPrinter struct {
	tmpl     *template.Template
	money    *MoneyFormatter
	pdf      PDFRenderer
	location *time.Location
}

// ReceiptOption configures a ReceiptPrinter
type ReceiptOption func(*ReceiptPrinter)

// WithLocation sets the time zone used for the issue date
func WithLocation(loc *time.Location) ReceiptOption {
	return func(p *ReceiptPrinter) {
		p.location = loc
	}
}

// NewReceiptPrinter parses the receipt template
func NewReceiptPrinter(money *MoneyFormatter, pdf PDFRenderer, opts ...ReceiptOption) (*ReceiptPrinter, error) {
	p := &ReceiptPrinter{money: money, pdf: pdf, location: time.UTC}
	for _, opt := range opts {
		opt(p)
	}
	tmpl, err := template.New("receipt").Funcs(template.FuncMap{
		"money": money.Format,
		"datetime": func(t time.Time) string {
			return t.In(p.location).Format("02/01/2006 15:04")
		},
		"positive": func(d decimal.Decimal) bool { return d.IsPositive() },
	}).Parse(receiptTemplate)
	if err != nil {
		return nil, fmt.Errorf("printing: parse receipt template: %w", err)
	}
	p.tmpl = tmpl
	return p, nil
}

// PDFEnabled reports whether RenderPDF can succeed
func (p *ReceiptPrinter) PDFEnabled() bool {
	return p.pdf != nil
}

// RenderHTML executes the receipt template
func (p *ReceiptPrinter) RenderHTML(data ReceiptData) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("printing: render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF renders the receipt on an 80mm roll
func (p *ReceiptPrinter) RenderPDF(ctx context.Context, data ReceiptData) ([]byte, error) {
	if p.pdf == nil {
		return nil, ErrPDFUnavailable
	}
	doc, err := p.RenderHTML(data)
	if err != nil {
		return nil, err
	}
	res, err := p.pdf.Render(ctx, &RenderRequest{
		HTML:         string(doc),
		Title:        fmt.Sprintf("Venda #%d", data.Number),
		PaperWidthMM: PaperWidthReceipt80,
		MarginMM:     3,
	})
	if err != nil {
		return nil, err
	}
	return res.PDFData, nil
}

// Close releases the PDF renderer
func (p *ReceiptPrinter) Close() error {
	if p.pdf == nil {
		return nil
	}
	return p.pdf.Close()
}

const receiptTemplate = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="UTF-8">
<title>Venda #{{.Number}}</title>
<style>
  body { font-family: monospace; font-size: 12px; margin: 0; width: 74mm; }
  h1 { font-size: 14px; text-align: center; margin: 0 0 4px; }
  .center { text-align: center; }
  .muted { color: #555; }
  table { width: 100%; border-collapse: collapse; }
  td { padding: 2px 0; vertical-align: top; }
  td.num { text-align: right; white-space: nowrap; }
  hr { border: 0; border-top: 1px dashed #000; }
  .total td { font-weight: bold; font-size: 13px; }
  .cancelled { text-align: center; font-weight: bold; border: 1px solid #000; padding: 2px; }
</style>
</head>
<body>
<h1>{{.StoreName}}</h1>
{{- if .StoreDocument}}<div class="center muted">{{.StoreDocument}}</div>{{end}}
{{- if .StorePhone}}<div class="center muted">{{.StorePhone}}</div>{{end}}
<hr>
<div>Venda <strong>#{{.Number}}</strong></div>
<div>{{datetime .IssuedAt}}</div>
{{- if .CustomerName}}<div>Cliente: {{.CustomerName}}</div>{{end}}
{{- if .Cancelled}}<div class="cancelled">CANCELADA</div>{{end}}
<hr>
<table>
{{- range .Lines}}
  <tr><td colspan="2">{{.Name}}</td></tr>
  <tr><td class="muted">{{.Quantity}} x {{money .UnitPrice}}</td><td class="num">{{money .Total}}</td></tr>
{{- end}}
</table>
<hr>
<table>
  <tr><td>Subtotal</td><td class="num">{{money .Subtotal}}</td></tr>
{{- if positive .Discount}}
  <tr><td>Desconto</td><td class="num">-{{money .Discount}}</td></tr>
{{- end}}
  <tr class="total"><td>Total</td><td class="num">{{money .Total}}</td></tr>
</table>
<div class="muted">Pagamento: {{.PaymentMethod}}</div>
{{- if .Notes}}<p>{{.Notes}}</p>{{end}}
</body>
</html>
`
