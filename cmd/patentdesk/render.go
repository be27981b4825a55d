package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"patentdesk/internal/domain"
)

func renderReport(w io.Writer, report domain.Report) {
	fmt.Fprintf(w, "report:   %s\n", report.ReportID)
	fmt.Fprintf(w, "time:     %s\n", report.VerificationTime)
	fmt.Fprintf(w, "source:   %s\n", report.OriginalFile)
	fmt.Fprintf(w, "profile:  %s\n", report.Profile)
	fmt.Fprintf(w, "status:   %s\n", report.OverallStatus)
	if report.Disposition != nil {
		d := report.Disposition
		fmt.Fprintf(w, "payment:  %s", d.Action)
		if len(d.Reasons) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(d.Reasons, ", "))
		}
		fmt.Fprintf(w, " policy=%s\n", d.PolicyID)
	}

	fmt.Fprintln(w, "\nresults:")
	for _, line := range report.VerificationResults {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nerrors (%d):\n", len(report.Errors))
		for _, line := range report.Errors {
			fmt.Fprintf(w, "  - %s\n", line)
		}
	}
	renderDetails(w, report.Details)
}

func renderDetails(w io.Writer, details domain.SectionDetails) {
	if ps := details.PaymentSummary; ps != nil {
		fmt.Fprintf(w, "\npayment summary [%s]\n", ps.Status)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  document\t%s\n", ps.DocumentNumber)
		fmt.Fprintf(tw, "  date\t%s\n", ps.Date)
		fmt.Fprintf(tw, "  service fee\t%s\n", ps.ServiceFee)
		fmt.Fprintf(tw, "  official fee\t%s\n", ps.OfficialFee)
		fmt.Fprintf(tw, "  total payment\t%s\n", ps.TotalPayment)
		fmt.Fprintf(tw, "  deadline\t%s\n", ps.PaymentDeadline)
		fmt.Fprintf(tw, "  bank\t%s\n", ps.Remittance.BankName)
		fmt.Fprintf(tw, "  account\t%s\n", ps.Remittance.AccountNumber)
		fmt.Fprintf(tw, "  tax id\t%s\n", ps.Remittance.TaxID)
		tw.Flush()
	}

	if len(details.FeeSchedule) > 0 {
		fmt.Fprintln(w, "\nfee schedule")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  seq\tapplicant\tservice\tservice fee\tconverted\ttotal\toriginal x rate\tstatus")
		for _, item := range details.FeeSchedule {
			conversion := "-"
			if item.OriginalAmount != nil && item.ExchangeRate != nil {
				conversion = item.OriginalAmount.String() + " x " + item.ExchangeRate.String()
				if item.ExpectedConverted != nil {
					conversion += " = " + item.ExpectedConverted.StringFixedBank(2)
				}
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				item.Seq, item.Applicant, item.Service,
				item.ServiceFee, item.ConvertedFee, item.CombinedTotal,
				conversion, item.Status)
		}
		tw.Flush()
	}

	if inv := details.Invoice; inv != nil {
		fmt.Fprintf(w, "\ninvoice [%s]\n", inv.Status)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  number\t%s\n", inv.InvoiceNumber)
		fmt.Fprintf(tw, "  buyer\t%s\n", inv.BuyerName)
		fmt.Fprintf(tw, "  buyer tax id\t%s\n", inv.BuyerTaxID)
		fmt.Fprintf(tw, "  service amount\t%s\n", inv.ServiceAmount)
		fmt.Fprintf(tw, "  tax\t%s\n", inv.TaxAmount)
		fmt.Fprintf(tw, "  total\t%s\n", inv.TotalAmount)
		tw.Flush()
	}

	if of := details.OfficialFees; of != nil {
		fmt.Fprintf(w, "\nofficial fees [%s]\n", of.Status)
		if of.Message != "" {
			fmt.Fprintf(w, "  %s\n", of.Message)
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, item := range of.Items {
			fmt.Fprintf(tw, "  %s\t%s\n", item.Label, item.Amount)
		}
		fmt.Fprintf(tw, "  total\t%s\n", of.Total)
		tw.Flush()
	}
}
