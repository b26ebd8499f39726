package render

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/erp-desk/internal/billing"
)

// PDFRenderer lays documents out with maroto.
type PDFRenderer struct{}

// NewPDFRenderer returns the PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

var (
	titleStyle = props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Left}
	headStyle  = props.Text{Size: 9, Style: fontstyle.Bold}
	bodyStyle  = props.Text{Size: 9}
	rightStyle = props.Text{Size: 9, Align: align.Right}
	totalStyle = props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}
)

func (r *PDFRenderer) Render(ctx context.Context, key TemplateKey, data any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := maroto.New(config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build())

	switch key {
	case TemplateQuote, TemplateInvoice:
		dc, ok := data.(DocumentContext)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects DocumentContext", ErrUnsupported, key)
		}
		documentLayout(m, key, dc)
	case TemplateUrssafSummary:
		uc, ok := data.(UrssafContext)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects UrssafContext", ErrUnsupported, key)
		}
		urssafLayout(m, uc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, key)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func documentLayout(m core.Maroto, key TemplateKey, dc DocumentContext) {
	title := "Devis"
	dateLabel := "Valable jusqu'au"
	if key == TemplateInvoice {
		title = "Facture"
		dateLabel = "Échéance"
	}
	doc := dc.Document

	m.AddRow(12, text.NewCol(12, fmt.Sprintf("%s %s", title, doc.Number), titleStyle))
	m.AddRow(6,
		text.NewCol(6, dc.Company.Name, headStyle),
		text.NewCol(6, "Date : "+doc.IssueDate.Format("02/01/2006"), rightStyle),
	)
	m.AddRow(5,
		text.NewCol(6, dc.Company.Address, bodyStyle),
		text.NewCol(6, dueLabel(dateLabel, dc), rightStyle),
	)
	if dc.Company.SIRET != "" {
		m.AddRow(5, text.NewCol(12, "SIRET : "+dc.Company.SIRET, bodyStyle))
	}
	if dc.Customer != nil {
		m.AddRow(8, text.NewCol(12, "Client", headStyle))
		m.AddRow(5, text.NewCol(12, dc.Customer.Name, bodyStyle))
		if dc.Customer.BillingAddress != "" {
			m.AddRow(5, text.NewCol(12, dc.Customer.BillingAddress, bodyStyle))
		}
	}

	m.AddRow(10,
		text.NewCol(5, "Description", headStyle),
		text.NewCol(1, "Qté", headStyle),
		text.NewCol(2, "PU HT", headStyle),
		text.NewCol(1, "Remise", headStyle),
		text.NewCol(1, "TVA", headStyle),
		text.NewCol(2, "Total HT", totalStyle),
	)
	for _, item := range doc.Items {
		m.AddRow(6,
			text.NewCol(5, item.Description, bodyStyle),
			text.NewCol(1, item.Quantity.String(), bodyStyle),
			text.NewCol(2, money(item.UnitPriceMinor, doc.Currency), bodyStyle),
			text.NewCol(1, item.DiscountPct.String()+" %", bodyStyle),
			text.NewCol(1, item.VATRate.String()+" %", bodyStyle),
			text.NewCol(2, billing.LineSubtotal(item).StringFixed(2)+" "+doc.Currency, rightStyle),
		)
	}

	m.AddRow(8, text.NewCol(9, "Sous-total HT", rightStyle), text.NewCol(3, money(dc.Totals.SubtotalMinor, doc.Currency), rightStyle))
	m.AddRow(6, text.NewCol(9, "TVA", rightStyle), text.NewCol(3, money(dc.Totals.TaxMinor, doc.Currency), rightStyle))
	m.AddRow(8, text.NewCol(9, "Total TTC", totalStyle), text.NewCol(3, money(dc.Totals.TotalMinor, doc.Currency), totalStyle))
	if doc.Notes != "" {
		m.AddRow(12, text.NewCol(12, doc.Notes, bodyStyle))
	}
}

func urssafLayout(m core.Maroto, uc UrssafContext) {
	m.AddRow(12, text.NewCol(12, "Récapitulatif URSSAF", titleStyle))
	m.AddRow(6, text.NewCol(12, uc.Company.Name, headStyle))
	m.AddRow(6, text.NewCol(12, fmt.Sprintf("Période du %s au %s",
		uc.PeriodStart.Format("02/01/2006"), uc.PeriodEnd.Format("02/01/2006")), bodyStyle))

	m.AddRow(10,
		text.NewCol(6, "Facture", headStyle),
		text.NewCol(3, "Date", headStyle),
		text.NewCol(3, "Montant", totalStyle),
	)
	for _, inv := range uc.Invoices {
		m.AddRow(6,
			text.NewCol(6, inv.Number, bodyStyle),
			text.NewCol(3, inv.IssueDate.Format("02/01/2006"), bodyStyle),
			text.NewCol(3, money(inv.TotalMinor, "EUR"), rightStyle),
		)
	}

	m.AddRow(8, text.NewCol(9, "Chiffre d'affaires", rightStyle), text.NewCol(3, uc.Turnover.StringFixed(2)+" EUR", rightStyle))
	m.AddRow(6, text.NewCol(9, "Taux ("+uc.RateLabel+")", rightStyle), text.NewCol(3, "", rightStyle))
	m.AddRow(8, text.NewCol(9, "Cotisations estimées", totalStyle), text.NewCol(3, uc.Contributions.StringFixed(2)+" EUR", totalStyle))
}

func dueLabel(label string, dc DocumentContext) string {
	if dc.Document.DueDate == nil {
		return ""
	}
	return label + " : " + dc.Document.DueDate.Format("02/01/2006")
}

func money(minor int64, currency string) string {
	if currency == "" {
		currency = "EUR"
	}
	return decimal.New(minor, -2).StringFixed(2) + " " + currency
}
