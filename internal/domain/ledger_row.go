package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CanonicalField is a column of the canonical financial schema.
type CanonicalField string

const (
	FieldTransactionID        CanonicalField = "transaction_id"
	FieldGrossValue           CanonicalField = "gross_value"
	FieldProductPrice         CanonicalField = "product_price"
	FieldOfferPrice           CanonicalField = "offer_price"
	FieldPlatformFee          CanonicalField = "platform_fee"
	FieldAffiliateCommission  CanonicalField = "affiliate_commission"
	FieldCoproducerCommission CanonicalField = "coproducer_commission"
	FieldTaxes                CanonicalField = "taxes"
	FieldNetValue             CanonicalField = "net_value"
	FieldNetValueBRL          CanonicalField = "net_value_brl"
	FieldOriginalCurrency     CanonicalField = "original_currency"
	FieldExchangeRate         CanonicalField = "exchange_rate"
	FieldPayoutID             CanonicalField = "payout_id"
	FieldPayoutDate           CanonicalField = "payout_date"
	FieldSaleDate             CanonicalField = "sale_date"
	FieldConfirmationDate     CanonicalField = "confirmation_date"
	FieldStatus               CanonicalField = "status"
	FieldPaymentMethod        CanonicalField = "payment_method"
	FieldPaymentType          CanonicalField = "payment_type"
	FieldInstallments         CanonicalField = "installments"
	FieldProductCode          CanonicalField = "product_code"
	FieldProductName          CanonicalField = "product_name"
	FieldOfferCode            CanonicalField = "offer_code"
	FieldOfferName            CanonicalField = "offer_name"
	FieldBuyerEmail           CanonicalField = "buyer_email"
	FieldBuyerName            CanonicalField = "buyer_name"
	FieldAffiliateCode        CanonicalField = "affiliate_code"
	FieldAffiliateName        CanonicalField = "affiliate_name"
	FieldCoproducerName       CanonicalField = "coproducer_name"
)

// FieldClass decides which coercer a canonical field goes through.
type FieldClass int

const (
	ClassText FieldClass = iota
	ClassIdentifier
	ClassMonetary
	ClassDate
	ClassInteger
)

var fieldClasses = map[CanonicalField]FieldClass{
	FieldTransactionID:        ClassIdentifier,
	FieldGrossValue:           ClassMonetary,
	FieldProductPrice:         ClassMonetary,
	FieldOfferPrice:           ClassMonetary,
	FieldPlatformFee:          ClassMonetary,
	FieldAffiliateCommission:  ClassMonetary,
	FieldCoproducerCommission: ClassMonetary,
	FieldTaxes:                ClassMonetary,
	FieldNetValue:             ClassMonetary,
	FieldNetValueBRL:          ClassMonetary,
	FieldOriginalCurrency:     ClassText,
	FieldExchangeRate:         ClassMonetary,
	FieldPayoutID:             ClassIdentifier,
	FieldPayoutDate:           ClassDate,
	FieldSaleDate:             ClassDate,
	FieldConfirmationDate:     ClassDate,
	FieldStatus:               ClassText,
	FieldPaymentMethod:        ClassText,
	FieldPaymentType:          ClassText,
	FieldInstallments:         ClassInteger,
	FieldProductCode:          ClassIdentifier,
	FieldProductName:          ClassText,
	FieldOfferCode:            ClassIdentifier,
	FieldOfferName:            ClassText,
	FieldBuyerEmail:           ClassText,
	FieldBuyerName:            ClassText,
	FieldAffiliateCode:        ClassIdentifier,
	FieldAffiliateName:        ClassText,
	FieldCoproducerName:       ClassText,
}

// Class returns the coercion class of the field.
func (f CanonicalField) Class() FieldClass {
	return fieldClasses[f]
}

// IsValid reports whether f belongs to the canonical schema.
func (f CanonicalField) IsValid() bool {
	_, ok := fieldClasses[f]
	return ok
}

// LedgerRow is one imported sales transaction, keyed by (ProjectID, TransactionID).
type LedgerRow struct {
	ProjectID     string
	TransactionID string

	GrossValue           *decimal.Decimal
	ProductPrice         *decimal.Decimal
	OfferPrice           *decimal.Decimal
	PlatformFee          *decimal.Decimal
	AffiliateCommission  *decimal.Decimal
	CoproducerCommission *decimal.Decimal
	Taxes                *decimal.Decimal
	NetValue             *decimal.Decimal
	NetValueBRL          *decimal.Decimal
	ExchangeRate         *decimal.Decimal
	OriginalCurrency     string

	PayoutID         string
	PayoutDate       *time.Time
	SaleDate         *time.Time
	ConfirmationDate *time.Time

	Status        string
	PaymentMethod string
	PaymentType   string
	Installments  *int

	ProductCode    string
	ProductName    string
	OfferCode      string
	OfferName      string
	BuyerEmail     string
	BuyerName      string
	AffiliateCode  string
	AffiliateName  string
	CoproducerName string

	// Reconciliation outcome
	IsReconciled           bool
	HasDivergence          bool
	DivergenceType         *string
	DivergenceWebhookValue *decimal.Decimal
	DivergenceCSVValue     *decimal.Decimal
	DivergenceAmount       *decimal.Decimal

	// Provenance
	ImportBatchID   string
	SourceFileName  string
	SourceRowNumber int
	RawCSVRow       map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Money returns the value behind a monetary pointer, zero when absent.
func Money(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return *v
}

// IsPositive reports whether a monetary pointer holds a value > 0.
func IsPositive(v *decimal.Decimal) bool {
	return v != nil && v.IsPositive()
}

// InstantLayout is the ISO-8601 UTC layout used for dates in reports and audit snapshots.
const InstantLayout = "2006-01-02T15:04:05.000Z"

// FormatInstant renders t as an ISO-8601 instant at UTC with millisecond precision.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}
