package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type CheckID string

const (
	CheckPaymentIdentity    CheckID = "payment_identity"
	CheckFeeSchedule        CheckID = "fee_schedule"
	CheckInvoice            CheckID = "invoice"
	CheckOfficialFees       CheckID = "official_fees"
	CheckRemittanceIdentity CheckID = "remittance_identity"
	CheckInvoiceIdentity    CheckID = "invoice_identity"
)

// Code is the upper-case form used in policy inputs and audit payloads.
func (c CheckID) Code() string {
	return strings.ToUpper(string(c))
}

type OutcomeKind string

const (
	OutcomePass OutcomeKind = "pass"
	OutcomeFail OutcomeKind = "fail"
	OutcomeInfo OutcomeKind = "info"
)

func (k OutcomeKind) Prefix() string {
	switch k {
	case OutcomePass:
		return "✅"
	case OutcomeFail:
		return "❌"
	default:
		return "ℹ️"
	}
}

type Outcome struct {
	Check   CheckID     `json:"check"`
	Kind    OutcomeKind `json:"kind"`
	Message string      `json:"message"`
}

func (o Outcome) String() string {
	return o.Kind.Prefix() + " " + o.Message
}

// CheckFailure is an accumulated verification failure. It is data, not a Go
// error: a run always completes every check.
type CheckFailure struct {
	Check   CheckID `json:"check"`
	Message string  `json:"message"`
}

type SectionStatus string

const (
	StatusCorrect   SectionStatus = "correct"
	StatusIncorrect SectionStatus = "incorrect"
	StatusSkipped   SectionStatus = "skipped"
)

func StatusOf(ok bool) SectionStatus {
	if ok {
		return StatusCorrect
	}
	return StatusIncorrect
}

type PaymentSummaryDetail struct {
	DocumentNumber  string          `json:"document_number"`
	Date            string          `json:"date"`
	ServiceFee      decimal.Decimal `json:"service_fee"`
	OfficialFee     decimal.Decimal `json:"official_fee"`
	TotalPayment    decimal.Decimal `json:"total_payment"`
	PaymentDeadline string          `json:"payment_deadline"`
	Remittance      Remittance      `json:"remittance"`
	Status          SectionStatus   `json:"status"`
}

type FeeItemDetail struct {
	Seq               string           `json:"seq"`
	Applicant         string           `json:"applicant"`
	CaseName          string           `json:"case_name"`
	Service           string           `json:"service"`
	ServiceFee        decimal.Decimal  `json:"service_fee"`
	ConvertedFee      decimal.Decimal  `json:"converted_fee"`
	CombinedTotal     decimal.Decimal  `json:"combined_total"`
	OriginalAmount    *decimal.Decimal `json:"original_amount"`
	ExchangeRate      *decimal.Decimal `json:"exchange_rate"`
	ExpectedConverted *decimal.Decimal `json:"expected_converted,omitempty"`
	Status            SectionStatus    `json:"status"`
}

type InvoiceDetail struct {
	InvoiceNumber string          `json:"invoice_number"`
	BuyerName     string          `json:"buyer_name"`
	BuyerTaxID    string          `json:"buyer_tax_id"`
	BuyerAddress  string          `json:"buyer_address"`
	ServiceAmount decimal.Decimal `json:"service_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        SectionStatus   `json:"status"`
}

type OfficialFeeDetail struct {
	Items   []OfficialFeeItem `json:"items"`
	Total   decimal.Decimal   `json:"total"`
	Status  SectionStatus     `json:"status"`
	Message string            `json:"message,omitempty"`
}

// SectionDetails is the per-section audit payload. Sections not retained by
// the active detail profile are nil.
type SectionDetails struct {
	PaymentSummary *PaymentSummaryDetail `json:"payment_summary,omitempty"`
	FeeSchedule    []FeeItemDetail       `json:"fee_schedule,omitempty"`
	Invoice        *InvoiceDetail        `json:"invoice,omitempty"`
	OfficialFees   *OfficialFeeDetail    `json:"official_fees,omitempty"`
}

type VerificationResult struct {
	Outcomes []Outcome      `json:"outcomes"`
	Failures []CheckFailure `json:"failures"`
	Details  SectionDetails `json:"details"`
}

// Clone returns a copy of r that shares no slices or section pointers with
// it. Decimal values are immutable and stay shared.
func (r VerificationResult) Clone() VerificationResult {
	out := VerificationResult{
		Outcomes: slices.Clone(r.Outcomes),
		Failures: slices.Clone(r.Failures),
		Details: SectionDetails{
			FeeSchedule: slices.Clone(r.Details.FeeSchedule),
		},
	}
	if ps := r.Details.PaymentSummary; ps != nil {
		c := *ps
		out.Details.PaymentSummary = &c
	}
	if inv := r.Details.Invoice; inv != nil {
		c := *inv
		out.Details.Invoice = &c
	}
	if fees := r.Details.OfficialFees; fees != nil {
		c := *fees
		c.Items = slices.Clone(fees.Items)
		out.Details.OfficialFees = &c
	}
	return out
}

func (r VerificationResult) Passed() bool {
	return len(r.Failures) == 0
}

func (r VerificationResult) OutcomeLines() []string {
	out := make([]string, 0, len(r.Outcomes))
	for _, outcome := range r.Outcomes {
		out = append(out, outcome.String())
	}
	return out
}

func (r VerificationResult) ErrorLines() []string {
	out := make([]string, 0, len(r.Failures))
	for _, failure := range r.Failures {
		out = append(out, failure.Message)
	}
	return out
}

// OutcomeFor returns the first outcome recorded for check.
func (r VerificationResult) OutcomeFor(check CheckID) (Outcome, bool) {
	for _, outcome := range r.Outcomes {
		if outcome.Check == check {
			return outcome, true
		}
	}
	return Outcome{}, false
}

func (r VerificationResult) FailuresFor(check CheckID) []CheckFailure {
	var out []CheckFailure
	for _, failure := range r.Failures {
		if failure.Check == check {
			out = append(out, failure)
		}
	}
	return out
}

// DetailProfile selects which section details a report retains.
type DetailProfile struct {
	Name           string
	PaymentSummary bool
	FeeSchedule    bool
	Invoice        bool
	OfficialFees   bool
}

var (
	ProfileInvoicing = DetailProfile{Name: "invoicing", PaymentSummary: true, FeeSchedule: true, Invoice: true, OfficialFees: true}
	ProfileBilling   = DetailProfile{Name: "billing", FeeSchedule: true}
)

func ProfileByName(name string) (DetailProfile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProfileInvoicing.Name:
		return ProfileInvoicing, nil
	case ProfileBilling.Name:
		return ProfileBilling, nil
	}
	return DetailProfile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

func (p DetailProfile) Apply(details SectionDetails) SectionDetails {
	var out SectionDetails
	if p.PaymentSummary {
		out.PaymentSummary = details.PaymentSummary
	}
	if p.FeeSchedule {
		out.FeeSchedule = details.FeeSchedule
	}
	if p.Invoice {
		out.Invoice = details.Invoice
	}
	if p.OfficialFees {
		out.OfficialFees = details.OfficialFees
	}
	return out
}
