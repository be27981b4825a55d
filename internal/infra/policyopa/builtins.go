package policyopa

import "github.com/open-policy-agent/opa/ast"

// allowedBuiltins covers comparison, arithmetic and string formatting.
var allowedBuiltins = map[string]struct{}{
	"abs":               {},
	"assign":            {},
	"ceil":              {},
	"concat":            {},
	"contains":          {},
	"count":             {},
	"div":               {},
	"endswith":          {},
	"eq":                {},
	"equal":             {},
	"floor":             {},
	"format_int":        {},
	"gt":                {},
	"gte":               {},
	"internal.member_2": {},
	"lower":             {},
	"lt":                {},
	"lte":               {},
	"max":               {},
	"min":               {},
	"minus":             {},
	"mul":               {},
	"neq":               {},
	"object.get":        {},
	"plus":              {},
	"round":             {},
	"sort":              {},
	"split":             {},
	"sprintf":           {},
	"startswith":        {},
	"sum":               {},
	"trim":              {},
	"upper":             {},
}

func filterBuiltins(builtins []*ast.Builtin) []*ast.Builtin {
	allowed := make([]*ast.Builtin, 0, len(builtins))
	for _, builtin := range builtins {
		if _, ok := allowedBuiltins[builtin.Name]; !ok {
			continue
		}
		allowed = append(allowed, builtin)
	}
	return allowed
}
