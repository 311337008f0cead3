package ingest

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerimport/internal/domain"
)

// firstDataLine is the 1-based line number of the first data row; the header is line 1.
const firstDataLine = 2

// Materializer turns raw rows into ledger rows using one column mapping.
type Materializer struct {
	mapping        ColumnMapping
	format         NumberFormat
	projectID      string
	sourceFileName string
}

// NewMaterializer creates a materializer for one import.
func NewMaterializer(mapping ColumnMapping, format NumberFormat, projectID, sourceFileName string) *Materializer {
	if format == "" {
		format = NumberFormatBR
	}
	return &Materializer{
		mapping:        mapping,
		format:         format,
		projectID:      projectID,
		sourceFileName: sourceFileName,
	}
}

// MaterializeAll materializes rows in file order and returns the kept rows and
// the number of dropped ones.
func (m *Materializer) MaterializeAll(rows [][]string) ([]*domain.LedgerRow, int) {
	return m.MaterializeTable(Table{Rows: rows})
}

// MaterializeTable is MaterializeAll for a decoded table. Cells the table flags
// as numeric are read as plain numbers or Excel date serials.
func (m *Materializer) MaterializeTable(t Table) ([]*domain.LedgerRow, int) {
	kept := make([]*domain.LedgerRow, 0, len(t.Rows))
	dropped := 0
	for i, raw := range t.Rows {
		var numeric []bool
		if i < len(t.Numeric) {
			numeric = t.Numeric[i]
		}
		row, ok := m.materialize(raw, numeric, i+firstDataLine)
		if !ok {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	return kept, dropped
}

// Materialize coerces one raw row. It returns false when the row has no
// transaction id or no positive net value.
func (m *Materializer) Materialize(raw []string, lineNumber int) (*domain.LedgerRow, bool) {
	return m.materialize(raw, nil, lineNumber)
}

func (m *Materializer) materialize(raw []string, numeric []bool, lineNumber int) (*domain.LedgerRow, bool) {
	row := &domain.LedgerRow{
		ProjectID:       m.projectID,
		SourceFileName:  m.sourceFileName,
		SourceRowNumber: lineNumber,
		RawCSVRow:       snapshot(m.mapping.Headers(), raw),
	}

	for _, field := range m.mapping.Fields() {
		idx, _ := m.mapping.Index(field)
		m.assign(row, field, cell(raw, idx), idx >= 0 && idx < len(numeric) && numeric[idx])
	}

	if row.TransactionID == "" {
		return nil, false
	}
	if !domain.IsPositive(row.NetValue) && !domain.IsPositive(row.NetValueBRL) {
		return nil, false
	}

	deriveNetValueBRL(row)
	deriveGrossValue(row)

	return row, true
}

func (m *Materializer) assign(row *domain.LedgerRow, field domain.CanonicalField, value string, numeric bool) {
	switch field.Class() {
	case domain.ClassMonetary:
		parse := func(s string) (decimal.Decimal, bool) { return ParseNumber(s, m.format) }
		if numeric {
			parse = ParseNumericCell
		}
		if d, ok := parse(value); ok {
			*moneyField(row, field) = &d
		}
	case domain.ClassDate:
		parse := ParseDate
		if numeric {
			parse = ParseDateSerial
		}
		if t, ok := parse(value); ok {
			*dateField(row, field) = &t
		}
	case domain.ClassInteger:
		if n, ok := ParseInteger(value); ok {
			row.Installments = &n
		}
	case domain.ClassIdentifier:
		*textField(row, field) = CleanCell(value)
	default:
		*textField(row, field) = strings.TrimSpace(value)
	}
}

func deriveNetValueBRL(row *domain.LedgerRow) {
	if row.NetValueBRL != nil && !row.NetValueBRL.IsZero() {
		return
	}
	if row.NetValue == nil {
		return
	}

	brl := *row.NetValue
	if !isBRL(row.OriginalCurrency) && domain.IsPositive(row.ExchangeRate) {
		brl = brl.Mul(*row.ExchangeRate).Round(2)
	}
	row.NetValueBRL = &brl
}

func deriveGrossValue(row *domain.LedgerRow) {
	if row.GrossValue != nil && !row.GrossValue.IsZero() {
		return
	}

	base := row.NetValue
	if base == nil {
		base = row.NetValueBRL
	}
	if base == nil {
		return
	}

	gross := base.
		Add(domain.Money(row.PlatformFee)).
		Add(domain.Money(row.AffiliateCommission)).
		Add(domain.Money(row.CoproducerCommission)).
		Add(domain.Money(row.Taxes))
	row.GrossValue = &gross
}

func isBRL(currency string) bool {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "", "BRL", "R$":
		return true
	}
	return false
}

func cell(raw []string, idx int) string {
	if idx < 0 || idx >= len(raw) {
		return ""
	}
	return raw[idx]
}

func snapshot(headers, raw []string) map[string]string {
	out := make(map[string]string, len(headers))
	for i, h := range headers {
		out[h] = cell(raw, i)
	}
	return out
}

func moneyField(row *domain.LedgerRow, field domain.CanonicalField) **decimal.Decimal {
	switch field {
	case domain.FieldGrossValue:
		return &row.GrossValue
	case domain.FieldProductPrice:
		return &row.ProductPrice
	case domain.FieldOfferPrice:
		return &row.OfferPrice
	case domain.FieldPlatformFee:
		return &row.PlatformFee
	case domain.FieldAffiliateCommission:
		return &row.AffiliateCommission
	case domain.FieldCoproducerCommission:
		return &row.CoproducerCommission
	case domain.FieldTaxes:
		return &row.Taxes
	case domain.FieldNetValue:
		return &row.NetValue
	case domain.FieldNetValueBRL:
		return &row.NetValueBRL
	case domain.FieldExchangeRate:
		return &row.ExchangeRate
	}
	panic("ingest: no monetary field for " + string(field))
}

func dateField(row *domain.LedgerRow, field domain.CanonicalField) **time.Time {
	switch field {
	case domain.FieldPayoutDate:
		return &row.PayoutDate
	case domain.FieldSaleDate:
		return &row.SaleDate
	case domain.FieldConfirmationDate:
		return &row.ConfirmationDate
	}
	panic("ingest: no date field for " + string(field))
}

func textField(row *domain.LedgerRow, field domain.CanonicalField) *string {
	switch field {
	case domain.FieldTransactionID:
		return &row.TransactionID
	case domain.FieldPayoutID:
		return &row.PayoutID
	case domain.FieldProductCode:
		return &row.ProductCode
	case domain.FieldOfferCode:
		return &row.OfferCode
	case domain.FieldAffiliateCode:
		return &row.AffiliateCode
	case domain.FieldOriginalCurrency:
		return &row.OriginalCurrency
	case domain.FieldStatus:
		return &row.Status
	case domain.FieldPaymentMethod:
		return &row.PaymentMethod
	case domain.FieldPaymentType:
		return &row.PaymentType
	case domain.FieldProductName:
		return &row.ProductName
	case domain.FieldOfferName:
		return &row.OfferName
	case domain.FieldBuyerEmail:
		return &row.BuyerEmail
	case domain.FieldBuyerName:
		return &row.BuyerName
	case domain.FieldAffiliateName:
		return &row.AffiliateName
	case domain.FieldCoproducerName:
		return &row.CoproducerName
	}
	panic("ingest: no text field for " + string(field))
}
