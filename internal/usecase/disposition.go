package usecase

import (
	"context"
	"errors"
	"sort"

	"patentdesk/internal/domain"
)

// DecideDisposition asks the payment policy whether a verified document may
// be released for payment. The answer is advisory and never changes the
// report's overall status.
type DecideDisposition struct {
	Policy          PolicyEngine
	ReviewThreshold float64
}

func (uc *DecideDisposition) Execute(ctx context.Context, result domain.VerificationResult, ps domain.PaymentSummary) (domain.Disposition, error) {
	if uc == nil || uc.Policy == nil {
		return domain.Disposition{}, errors.New("policy engine is required")
	}
	eval, err := uc.Policy.Evaluate(ctx, PolicyInputFor(result, ps, uc.ReviewThreshold))
	if err != nil {
		return domain.Disposition{}, err
	}
	action := domain.DispositionRelease
	if !eval.Result.Allow {
		action = domain.DispositionHold
	}
	return domain.Disposition{
		Action:     action,
		Reasons:    dispositionReasons(eval.Result),
		PolicyID:   eval.PolicyID,
		PolicyHash: eval.PolicyHash,
	}, nil
}

func PolicyInputFor(result domain.VerificationResult, ps domain.PaymentSummary, reviewThreshold float64) domain.PolicyInput {
	status := domain.OverallPass
	if !result.Passed() {
		status = domain.OverallFail
	}
	failures := make([]domain.PolicyFailure, 0, len(result.Failures))
	for _, f := range result.Failures {
		failures = append(failures, domain.PolicyFailure{Code: f.Check.Code(), Message: f.Message})
	}
	return domain.PolicyInput{
		OverallStatus: status,
		Failures:      failures,
		Payment: domain.PolicyPayment{
			ServiceFee:   ps.ServiceFee.InexactFloat64(),
			OfficialFee:  ps.OfficialFee.InexactFloat64(),
			TotalPayment: ps.TotalPayment.InexactFloat64(),
		},
		Limits: domain.PolicyLimits{ReviewThreshold: reviewThreshold},
	}
}

func dispositionReasons(policy domain.PolicyResult) []string {
	set := make(map[string]struct{}, len(policy.Deny))
	for _, deny := range policy.Deny {
		if deny.Code != "" {
			set[deny.Code] = struct{}{}
		}
	}
	if !policy.Allow && len(set) == 0 {
		set["POLICY_DENY"] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	ordered := make([]string, 0, len(set))
	for reason := range set {
		ordered = append(ordered, reason)
	}
	sort.Strings(ordered)
	return ordered
}
