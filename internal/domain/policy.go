package domain

type PolicyInput struct {
	OverallStatus OverallStatus   `json:"overall_status"`
	Failures      []PolicyFailure `json:"failures"`
	Payment       PolicyPayment   `json:"payment"`
	Limits        PolicyLimits    `json:"limits"`
}

type PolicyFailure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PolicyPayment carries totals as floats. The policy only compares them
// against thresholds; the arithmetic identities are checked on decimals.
type PolicyPayment struct {
	ServiceFee   float64 `json:"service_fee"`
	OfficialFee  float64 `json:"official_fee"`
	TotalPayment float64 `json:"total_payment"`
}

type PolicyLimits struct {
	ReviewThreshold float64 `json:"review_threshold"`
}

type PolicyDeny struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type PolicyResult struct {
	Allow bool         `json:"allow"`
	Deny  []PolicyDeny `json:"deny,omitempty"`
}

type PolicyEvaluation struct {
	PolicyID   string       `json:"policy_id,omitempty"`
	PolicyHash string       `json:"policy_hash"`
	Result     PolicyResult `json:"result"`
}
