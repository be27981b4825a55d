package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"patentdesk/internal/domain"
	"patentdesk/internal/infra/canonical"
)

// SeqNumber is a fee-schedule sequence number. Extractors emit it either as
// a JSON number or as a string; both are kept as their literal text.
type SeqNumber string

func (s *SeqNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = SeqNumber(text)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("seq must be a number or string: %w", err)
	}
	*s = SeqNumber(num.String())
	return nil
}

// Canonical shape.

type wireDocument struct {
	PaymentSummary *wirePaymentSummary `json:"payment_summary" binding:"required"`
	FeeSchedule    *wireFeeSchedule    `json:"fee_schedule" binding:"required"`
	Invoice        *wireInvoice        `json:"invoice" binding:"required"`
	OfficialFees   *wireOfficialFees   `json:"official_fees" binding:"required"`
}

type wirePaymentSummary struct {
	DocumentNumber  string           `json:"document_number"`
	Date            string           `json:"date"`
	PaymentDeadline string           `json:"payment_deadline"`
	ServiceFee      *decimal.Decimal `json:"service_fee" binding:"required"`
	OfficialFee     *decimal.Decimal `json:"official_fee" binding:"required"`
	TotalPayment    *decimal.Decimal `json:"total_payment" binding:"required"`
	Remittance      *wireRemittance  `json:"remittance" binding:"required"`
}

type wireRemittance struct {
	BankName      *string `json:"bank_name" binding:"required"`
	BankAddress   *string `json:"bank_address" binding:"required"`
	AccountNumber *string `json:"account_number" binding:"required"`
	TaxID         *string `json:"tax_id" binding:"required"`
}

type wireFeeSchedule struct {
	Items []wireFeeItem `json:"items" binding:"required,dive"`
}

type wireFeeItem struct {
	Seq            *SeqNumber       `json:"seq" binding:"required"`
	Applicant      string           `json:"applicant"`
	CaseName       string           `json:"case_name"`
	Service        string           `json:"service"`
	ServiceFee     *decimal.Decimal `json:"service_fee" binding:"required"`
	ConvertedFee   *decimal.Decimal `json:"converted_fee" binding:"required"`
	CombinedTotal  *decimal.Decimal `json:"combined_total" binding:"required"`
	OriginalAmount *decimal.Decimal `json:"original_amount"`
	ExchangeRate   *decimal.Decimal `json:"exchange_rate"`
}

type wireInvoice struct {
	InvoiceNumber string           `json:"invoice_number"`
	BuyerName     *string          `json:"buyer_name" binding:"required"`
	BuyerTaxID    *string          `json:"buyer_tax_id" binding:"required"`
	BuyerAddress  *string          `json:"buyer_address" binding:"required"`
	ServiceAmount *decimal.Decimal `json:"service_amount" binding:"required"`
	TaxAmount     *decimal.Decimal `json:"tax_amount" binding:"required"`
	TotalAmount   *decimal.Decimal `json:"total_amount" binding:"required"`
}

type wireOfficialFees struct {
	Items []wireOfficialFeeItem `json:"items" binding:"omitempty,dive"`
}

type wireOfficialFeeItem struct {
	Label  string           `json:"label"`
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

func (w wireDocument) toDomain() domain.Document {
	ps := w.PaymentSummary
	doc := domain.Document{
		PaymentSummary: domain.PaymentSummary{
			DocumentNumber:  ps.DocumentNumber,
			Date:            ps.Date,
			ServiceFee:      *ps.ServiceFee,
			OfficialFee:     *ps.OfficialFee,
			TotalPayment:    *ps.TotalPayment,
			PaymentDeadline: ps.PaymentDeadline,
			Remittance: domain.Remittance{
				BankName:      *ps.Remittance.BankName,
				BankAddress:   *ps.Remittance.BankAddress,
				AccountNumber: *ps.Remittance.AccountNumber,
				TaxID:         *ps.Remittance.TaxID,
			},
		},
		FeeSchedule: make([]domain.FeeScheduleItem, 0, len(w.FeeSchedule.Items)),
		Invoice: domain.InvoiceSection{
			InvoiceNumber: w.Invoice.InvoiceNumber,
			BuyerName:     *w.Invoice.BuyerName,
			BuyerTaxID:    *w.Invoice.BuyerTaxID,
			BuyerAddress:  *w.Invoice.BuyerAddress,
			ServiceAmount: *w.Invoice.ServiceAmount,
			TaxAmount:     *w.Invoice.TaxAmount,
			TotalAmount:   *w.Invoice.TotalAmount,
		},
	}
	for _, item := range w.FeeSchedule.Items {
		doc.FeeSchedule = append(doc.FeeSchedule, domain.FeeScheduleItem{
			Seq:            string(*item.Seq),
			Applicant:      item.Applicant,
			CaseName:       item.CaseName,
			Service:        item.Service,
			ServiceFee:     *item.ServiceFee,
			ConvertedFee:   *item.ConvertedFee,
			CombinedTotal:  *item.CombinedTotal,
			OriginalAmount: item.OriginalAmount,
			ExchangeRate:   item.ExchangeRate,
		})
	}
	for _, item := range w.OfficialFees.Items {
		doc.OfficialFees.Items = append(doc.OfficialFees.Items, domain.OfficialFeeItem{
			Label:  item.Label,
			Amount: *item.Amount,
		})
	}
	return doc
}

// checkExponents rejects amounts whose decimal exponent is outside
// canonical.MaxExponent. Paths name the canonical layout for both shapes.
func (w wireDocument) checkExponents() error {
	var fields []string
	check := func(path string, d *decimal.Decimal) {
		if d != nil && !canonical.ExponentInRange(*d) {
			fields = append(fields, path)
		}
	}

	ps := w.PaymentSummary
	check("payment_summary.service_fee", ps.ServiceFee)
	check("payment_summary.official_fee", ps.OfficialFee)
	check("payment_summary.total_payment", ps.TotalPayment)
	for i, item := range w.FeeSchedule.Items {
		prefix := fmt.Sprintf("fee_schedule.items[%d].", i)
		check(prefix+"service_fee", item.ServiceFee)
		check(prefix+"converted_fee", item.ConvertedFee)
		check(prefix+"combined_total", item.CombinedTotal)
		check(prefix+"original_amount", item.OriginalAmount)
		check(prefix+"exchange_rate", item.ExchangeRate)
	}
	check("invoice.service_amount", w.Invoice.ServiceAmount)
	check("invoice.tax_amount", w.Invoice.TaxAmount)
	check("invoice.total_amount", w.Invoice.TotalAmount)
	for i, item := range w.OfficialFees.Items {
		check(fmt.Sprintf("official_fees.items[%d].amount", i), item.Amount)
	}

	if len(fields) == 0 {
		return nil
	}
	return &domain.StructuralError{
		Fields: fields,
		Reason: fmt.Sprintf("amount exponent outside ±%d", canonical.MaxExponent),
	}
}

// Legacy shape: page1..page4 keyed by the labels printed on the paper forms.

type legacyDocument struct {
	Page1 *legacyPage1 `json:"page1" binding:"required"`
	Page2 *legacyPage2 `json:"page2" binding:"required"`
	Page3 *legacyPage3 `json:"page3" binding:"required"`
	Page4 *legacyPage4 `json:"page4" binding:"required"`
}

type legacyPage1 struct {
	DocumentNumber  string            `json:"單號"`
	Date            string            `json:"日期"`
	ServiceFee      *decimal.Decimal  `json:"服務費" binding:"required"`
	OfficialFee     *decimal.Decimal  `json:"官費" binding:"required"`
	TotalPayment    *decimal.Decimal  `json:"付款金額" binding:"required"`
	PaymentDeadline string            `json:"付款期限"`
	Remittance      *legacyRemittance `json:"匯款資訊" binding:"required"`
}

type legacyRemittance struct {
	BankName      *string `json:"匯款銀行" binding:"required"`
	BankAddress   *string `json:"銀行地址" binding:"required"`
	AccountNumber *string `json:"帳號" binding:"required"`
	TaxID         *string `json:"統一編號" binding:"required"`
}

type legacyPage2 struct {
	Items []legacyFeeItem `json:"費用明細清單" binding:"required,dive"`
}

type legacyFeeItem struct {
	Seq            *SeqNumber       `json:"序號" binding:"required"`
	Applicant      string           `json:"申請人"`
	CaseName       string           `json:"案件名稱"`
	Service        string           `json:"服務項目"`
	ServiceFee     *decimal.Decimal `json:"服務費 (NTD)" binding:"required"`
	ConvertedFee   *decimal.Decimal `json:"折算金額 (NTD)" binding:"required"`
	CombinedTotal  *decimal.Decimal `json:"服務費及官費合計 (NTD)" binding:"required"`
	OriginalAmount *decimal.Decimal `json:"原幣金額"`
	ExchangeRate   *decimal.Decimal `json:"匯率"`
}

type legacyPage3 struct {
	Info   *legacyInvoiceInfo   `json:"發票資訊" binding:"required"`
	Amount *legacyInvoiceAmount `json:"發票金額" binding:"required"`
}

type legacyInvoiceInfo struct {
	InvoiceNumber string  `json:"發票號碼"`
	BuyerName     *string `json:"買方" binding:"required"`
	BuyerTaxID    *string `json:"統一編號" binding:"required"`
	BuyerAddress  *string `json:"地址" binding:"required"`
}

type legacyInvoiceAmount struct {
	ServiceAmount *decimal.Decimal `json:"服務費金額" binding:"required"`
	TaxAmount     *decimal.Decimal `json:"營業稅金額" binding:"required"`
	TotalAmount   *decimal.Decimal `json:"總金額" binding:"required"`
}

type legacyPage4 struct {
	Items []legacyOfficialFeeItem `json:"官(規)費明細" binding:"omitempty,dive"`
}

type legacyOfficialFeeItem struct {
	Label  string           `json:"項目"`
	Amount *decimal.Decimal `json:"金額" binding:"required"`
}

func (l legacyDocument) toWire() wireDocument {
	w := wireDocument{
		PaymentSummary: &wirePaymentSummary{
			DocumentNumber:  l.Page1.DocumentNumber,
			Date:            l.Page1.Date,
			PaymentDeadline: l.Page1.PaymentDeadline,
			ServiceFee:      l.Page1.ServiceFee,
			OfficialFee:     l.Page1.OfficialFee,
			TotalPayment:    l.Page1.TotalPayment,
			Remittance: &wireRemittance{
				BankName:      l.Page1.Remittance.BankName,
				BankAddress:   l.Page1.Remittance.BankAddress,
				AccountNumber: l.Page1.Remittance.AccountNumber,
				TaxID:         l.Page1.Remittance.TaxID,
			},
		},
		FeeSchedule: &wireFeeSchedule{Items: make([]wireFeeItem, 0, len(l.Page2.Items))},
		Invoice: &wireInvoice{
			InvoiceNumber: l.Page3.Info.InvoiceNumber,
			BuyerName:     l.Page3.Info.BuyerName,
			BuyerTaxID:    l.Page3.Info.BuyerTaxID,
			BuyerAddress:  l.Page3.Info.BuyerAddress,
			ServiceAmount: l.Page3.Amount.ServiceAmount,
			TaxAmount:     l.Page3.Amount.TaxAmount,
			TotalAmount:   l.Page3.Amount.TotalAmount,
		},
		OfficialFees: &wireOfficialFees{},
	}
	for _, item := range l.Page2.Items {
		w.FeeSchedule.Items = append(w.FeeSchedule.Items, wireFeeItem(item))
	}
	for _, item := range l.Page4.Items {
		w.OfficialFees.Items = append(w.OfficialFees.Items, wireOfficialFeeItem(item))
	}
	return w
}
