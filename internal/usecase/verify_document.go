package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"patentdesk/internal/domain"
)

// ConversionTolerance bounds |round(original * rate, 2) - converted| for a
// fee item. It is the only non-exact comparison the engine makes.
var ConversionTolerance = decimal.New(5, -1)

// VerifyDocument runs the five document checks. Every check runs regardless
// of earlier failures and the document is never modified.
type VerifyDocument struct {
	Registry CompanyRegistry
	Profile  domain.DetailProfile
}

func (uc *VerifyDocument) Execute(ctx context.Context, doc domain.Document) (domain.VerificationResult, error) {
	if uc == nil || uc.Registry == nil {
		return domain.VerificationResult{}, errors.New("company registry is required")
	}
	if err := ctx.Err(); err != nil {
		return domain.VerificationResult{}, err
	}

	run := &checkRun{}
	var details domain.SectionDetails
	details.PaymentSummary = run.paymentIdentity(doc.PaymentSummary)
	details.FeeSchedule = run.feeSchedule(doc.FeeSchedule)
	details.Invoice = run.invoice(doc.Invoice, doc.PaymentSummary)
	details.OfficialFees = run.officialFees(doc.OfficialFees, doc.PaymentSummary)
	run.remittanceIdentity(uc.Registry, doc.PaymentSummary.Remittance)
	run.invoiceIdentity(uc.Registry, doc.Invoice)

	run.result.Details = uc.profile().Apply(details)
	if run.result.Failures == nil {
		run.result.Failures = []domain.CheckFailure{}
	}
	return run.result, nil
}

func (uc *VerifyDocument) profile() domain.DetailProfile {
	if uc.Profile.Name == "" {
		return domain.ProfileInvoicing
	}
	return uc.Profile
}

type checkRun struct {
	result domain.VerificationResult
}

func (r *checkRun) outcome(check domain.CheckID, kind domain.OutcomeKind, message string) {
	r.result.Outcomes = append(r.result.Outcomes, domain.Outcome{Check: check, Kind: kind, Message: message})
}

func (r *checkRun) failure(check domain.CheckID, format string, args ...any) {
	r.result.Failures = append(r.result.Failures, domain.CheckFailure{Check: check, Message: fmt.Sprintf(format, args...)})
}

func (r *checkRun) paymentIdentity(ps domain.PaymentSummary) *domain.PaymentSummaryDetail {
	ok := ps.ServiceFee.Add(ps.OfficialFee).Equal(ps.TotalPayment)
	if ok {
		r.outcome(domain.CheckPaymentIdentity, domain.OutcomePass, "payment summary: service fee + official fee = total payment")
	} else {
		r.failure(domain.CheckPaymentIdentity, "payment summary: service fee (%s) + official fee (%s) != total payment (%s)",
			ps.ServiceFee, ps.OfficialFee, ps.TotalPayment)
		r.outcome(domain.CheckPaymentIdentity, domain.OutcomeFail, "payment summary: total payment check failed")
	}
	return &domain.PaymentSummaryDetail{
		DocumentNumber:  ps.DocumentNumber,
		Date:            ps.Date,
		ServiceFee:      ps.ServiceFee,
		OfficialFee:     ps.OfficialFee,
		TotalPayment:    ps.TotalPayment,
		PaymentDeadline: ps.PaymentDeadline,
		Remittance:      ps.Remittance,
		Status:          domain.StatusOf(ok),
	}
}

func (r *checkRun) feeSchedule(items []domain.FeeScheduleItem) []domain.FeeItemDetail {
	details := make([]domain.FeeItemDetail, 0, len(items))
	allValid := true
	for _, item := range items {
		itemValid := true
		if !item.ServiceFee.Add(item.ConvertedFee).Equal(item.CombinedTotal) {
			r.failure(domain.CheckFeeSchedule, "fee schedule: item %s service fee (%s) + converted fee (%s) != combined total (%s)",
				item.Seq, item.ServiceFee, item.ConvertedFee, item.CombinedTotal)
			itemValid = false
		}

		expected, applies := expectedConversion(item)
		if applies && expected.Sub(item.ConvertedFee).Abs().GreaterThan(ConversionTolerance) {
			r.failure(domain.CheckFeeSchedule, "fee schedule: item %s original amount (%s) * exchange rate (%s) = %s, converted fee (%s) differs by more than %s",
				item.Seq, item.OriginalAmount, item.ExchangeRate, expected.StringFixed(2), item.ConvertedFee, ConversionTolerance)
			itemValid = false
		}

		detail := domain.FeeItemDetail{
			Seq:            item.Seq,
			Applicant:      item.Applicant,
			CaseName:       item.CaseName,
			Service:        item.Service,
			ServiceFee:     item.ServiceFee,
			ConvertedFee:   item.ConvertedFee,
			CombinedTotal:  item.CombinedTotal,
			OriginalAmount: item.OriginalAmount,
			ExchangeRate:   item.ExchangeRate,
			Status:         domain.StatusOf(itemValid),
		}
		if applies {
			detail.ExpectedConverted = &expected
		}
		details = append(details, detail)
		allValid = allValid && itemValid
	}

	if allValid {
		r.outcome(domain.CheckFeeSchedule, domain.OutcomePass, "fee schedule: every item has service fee + converted fee = combined total and a consistent currency conversion")
	} else {
		r.outcome(domain.CheckFeeSchedule, domain.OutcomeFail, "fee schedule: item check failed")
	}
	return details
}

// expectedConversion applies only when both the original amount and the
// exchange rate are present and non-zero. Rounding is half-to-even.
func expectedConversion(item domain.FeeScheduleItem) (decimal.Decimal, bool) {
	if item.OriginalAmount == nil || item.ExchangeRate == nil {
		return decimal.Decimal{}, false
	}
	if item.OriginalAmount.IsZero() || item.ExchangeRate.IsZero() {
		return decimal.Decimal{}, false
	}
	return item.OriginalAmount.Mul(*item.ExchangeRate).RoundBank(2), true
}

func (r *checkRun) invoice(inv domain.InvoiceSection, ps domain.PaymentSummary) *domain.InvoiceDetail {
	ok := true
	if !inv.ServiceAmount.Add(inv.TaxAmount).Equal(inv.TotalAmount) {
		r.failure(domain.CheckInvoice, "invoice: service amount (%s) + tax amount (%s) != total amount (%s)",
			inv.ServiceAmount, inv.TaxAmount, inv.TotalAmount)
		ok = false
	}
	if !inv.TotalAmount.Equal(ps.ServiceFee) {
		r.failure(domain.CheckInvoice, "invoice: total amount (%s) != payment summary service fee (%s)",
			inv.TotalAmount, ps.ServiceFee)
		ok = false
	}
	if ok {
		r.outcome(domain.CheckInvoice, domain.OutcomePass, "invoice: service amount + tax amount = total amount, matching the payment summary service fee")
	} else {
		r.outcome(domain.CheckInvoice, domain.OutcomeFail, "invoice: amount check failed")
	}
	return &domain.InvoiceDetail{
		InvoiceNumber: inv.InvoiceNumber,
		BuyerName:     inv.BuyerName,
		BuyerTaxID:    inv.BuyerTaxID,
		BuyerAddress:  inv.BuyerAddress,
		ServiceAmount: inv.ServiceAmount,
		TaxAmount:     inv.TaxAmount,
		TotalAmount:   inv.TotalAmount,
		Status:        domain.StatusOf(ok),
	}
}

// officialFees is skipped only when nothing is charged on either side. A zero
// official fee next to non-zero items is a real mismatch.
func (r *checkRun) officialFees(fees domain.OfficialFeeSection, ps domain.PaymentSummary) *domain.OfficialFeeDetail {
	total := fees.Total()
	items := make([]domain.OfficialFeeItem, len(fees.Items))
	copy(items, fees.Items)
	detail := &domain.OfficialFeeDetail{Items: items, Total: total}

	if ps.OfficialFee.IsZero() && total.IsZero() {
		detail.Status = domain.StatusSkipped
		detail.Message = "no official fees to verify"
		r.outcome(domain.CheckOfficialFees, domain.OutcomeInfo, "official fees: skipped, no official fee charged")
		return detail
	}

	ok := total.Equal(ps.OfficialFee)
	detail.Status = domain.StatusOf(ok)
	if ok {
		r.outcome(domain.CheckOfficialFees, domain.OutcomePass, "official fees: item total matches the payment summary official fee")
	} else {
		r.failure(domain.CheckOfficialFees, "official fees: item total (%s) != payment summary official fee (%s)", total, ps.OfficialFee)
		r.outcome(domain.CheckOfficialFees, domain.OutcomeFail, "official fees: total check failed")
	}
	return detail
}

func (r *checkRun) remittanceIdentity(reg CompanyRegistry, rem domain.Remittance) {
	if company, ok := reg.MatchRemittance(rem); ok {
		r.outcome(domain.CheckRemittanceIdentity, domain.OutcomePass, "remittance: matches known company "+company.Name)
		return
	}
	r.failure(domain.CheckRemittanceIdentity, "remittance: tax id (%s), bank (%s), bank address (%s) and account (%s) do not match any known company",
		rem.TaxID, rem.BankName, rem.BankAddress, rem.AccountNumber)
	r.outcome(domain.CheckRemittanceIdentity, domain.OutcomeFail, "remittance: identity check failed")
}

func (r *checkRun) invoiceIdentity(reg CompanyRegistry, inv domain.InvoiceSection) {
	if company, ok := reg.MatchInvoiceBuyer(inv.BuyerName, inv.BuyerTaxID, inv.BuyerAddress); ok {
		r.outcome(domain.CheckInvoiceIdentity, domain.OutcomePass, "invoice buyer: matches known company "+company.Name)
		return
	}
	r.failure(domain.CheckInvoiceIdentity, "invoice buyer: name (%s), tax id (%s) and address (%s) do not match any known company",
		inv.BuyerName, inv.BuyerTaxID, inv.BuyerAddress)
	r.outcome(domain.CheckInvoiceIdentity, domain.OutcomeFail, "invoice buyer: identity check failed")
}
