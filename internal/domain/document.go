package domain

import "github.com/shopspring/decimal"

// Document is one billing/invoicing document under verification.
type Document struct {
	PaymentSummary PaymentSummary
	FeeSchedule    []FeeScheduleItem
	Invoice        InvoiceSection
	OfficialFees   OfficialFeeSection
}

type PaymentSummary struct {
	DocumentNumber  string
	Date            string
	ServiceFee      decimal.Decimal
	OfficialFee     decimal.Decimal
	TotalPayment    decimal.Decimal
	PaymentDeadline string
	Remittance      Remittance
}

type Remittance struct {
	BankName      string `json:"bank_name"`
	BankAddress   string `json:"bank_address"`
	AccountNumber string `json:"account_number"`
	TaxID         string `json:"tax_id"`
}

// FeeScheduleItem is one line of the itemized fee schedule. ConvertedFee is
// the local-currency value of OriginalAmount at ExchangeRate.
type FeeScheduleItem struct {
	Seq            string
	Applicant      string
	CaseName       string
	Service        string
	ServiceFee     decimal.Decimal
	ConvertedFee   decimal.Decimal
	CombinedTotal  decimal.Decimal
	OriginalAmount *decimal.Decimal
	ExchangeRate   *decimal.Decimal
}

type InvoiceSection struct {
	InvoiceNumber string
	BuyerName     string
	BuyerTaxID    string
	BuyerAddress  string
	ServiceAmount decimal.Decimal
	TaxAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
}

type OfficialFeeItem struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

type OfficialFeeSection struct {
	Items []OfficialFeeItem
}

// Total sums the item amounts. An empty section totals zero.
func (s OfficialFeeSection) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Amount)
	}
	return total
}
