// Package policyopa evaluates the payment release policy with OPA. Policies
// run against a restricted builtin set so a policy file cannot reach the
// network, the clock or the environment.
package policyopa

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"

	"patentdesk/internal/domain"
	"patentdesk/internal/infra/canonical"
)

const (
	PolicyPackage = "patentdesk.payment"
	defaultQuery  = "data." + PolicyPackage + ".result"
)

//go:embed default.rego
var defaultPolicy []byte

type Engine struct {
	query      rego.PreparedEvalQuery
	policyHash string
	policyID   string
}

// NewDefaultEngine compiles the embedded release policy.
func NewDefaultEngine(ctx context.Context) (*Engine, error) {
	return NewEngine(ctx, "default.rego", defaultPolicy)
}

func NewEngineFromPath(ctx context.Context, path string) (*Engine, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return NewEngine(ctx, filepath.Base(path), source)
}

// LoadEngine compiles path, or the embedded policy when path is empty.
func LoadEngine(ctx context.Context, path string) (*Engine, error) {
	if strings.TrimSpace(path) == "" {
		return NewDefaultEngine(ctx)
	}
	return NewEngineFromPath(ctx, path)
}

func NewEngine(ctx context.Context, name string, source []byte) (*Engine, error) {
	capabilities := ast.CapabilitiesForThisVersion()
	capabilities.Builtins = filterBuiltins(capabilities.Builtins)
	compiler := ast.NewCompiler().WithCapabilities(capabilities)

	r := rego.New(
		rego.Query(defaultQuery),
		rego.Compiler(compiler),
		rego.StrictBuiltinErrors(true),
		rego.Module(name, string(source)),
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile policy %s: %w", name, err)
	}
	if err := assertNoForbiddenBuiltins(compiler); err != nil {
		return nil, err
	}

	return &Engine{
		query:      prepared,
		policyHash: canonical.SHA256Hex(source),
		policyID:   strings.TrimSuffix(name, filepath.Ext(name)),
	}, nil
}

func (e *Engine) PolicyHash() string {
	return e.policyHash
}

func (e *Engine) Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyEvaluation, error) {
	if e == nil {
		return domain.PolicyEvaluation{}, errors.New("policy engine is nil")
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return domain.PolicyEvaluation{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.PolicyEvaluation{}, errors.New("empty policy result")
	}
	result, err := decodePolicyResult(results[0].Expressions[0].Value)
	if err != nil {
		return domain.PolicyEvaluation{}, err
	}
	sort.Slice(result.Deny, func(i, j int) bool {
		if result.Deny[i].Code == result.Deny[j].Code {
			return result.Deny[i].Message < result.Deny[j].Message
		}
		return result.Deny[i].Code < result.Deny[j].Code
	})
	return domain.PolicyEvaluation{
		PolicyID:   e.policyID,
		PolicyHash: e.policyHash,
		Result:     result,
	}, nil
}

func decodePolicyResult(value any) (domain.PolicyResult, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return domain.PolicyResult{}, err
	}
	var result domain.PolicyResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.PolicyResult{}, fmt.Errorf("policy result shape: %w", err)
	}
	return result, nil
}

func assertNoForbiddenBuiltins(compiler *ast.Compiler) error {
	if compiler == nil {
		return errors.New("policy compiler is nil")
	}
	if calls := disallowedCalls(compiler.Modules); len(calls) > 0 {
		return fmt.Errorf("forbidden builtins: %s", strings.Join(calls, ", "))
	}
	return nil
}

// disallowedCalls lists, sorted and once each, the builtins called by modules
// that are outside allowedBuiltins. User-defined functions are ignored.
func disallowedCalls(modules map[string]*ast.Module) []string {
	seen := map[string]bool{}
	var calls []string
	for _, module := range modules {
		ast.WalkTerms(module, func(term *ast.Term) bool {
			call, isCall := term.Value.(ast.Call)
			if !isCall || len(call) == 0 || call[0] == nil {
				return false
			}
			op := call[0].Value.String()
			_, builtin := ast.BuiltinMap[op]
			_, allowed := allowedBuiltins[op]
			if builtin && !allowed && !seen[op] {
				seen[op] = true
				calls = append(calls, op)
			}
			return false
		})
	}
	sort.Strings(calls)
	return calls
}
