package policyopa

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"sort"

	"docrequest/internal/domain"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.docrequest.authz.result"

//go:embed authz.rego
var defaultPolicy string

type Engine struct {
	query      rego.PreparedEvalQuery
	policyHash string
}

// NewEngine compiles the built-in role policy.
func NewEngine(ctx context.Context) (*Engine, error) {
	return newEngine(ctx, []byte(defaultPolicy), rego.Module("authz.rego", defaultPolicy))
}

// NewEngineFromPath compiles a policy file or directory that defines data.docrequest.authz.result.
func NewEngineFromPath(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	var hashInput []byte
	if !info.IsDir() {
		hashInput, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		hashInput = []byte(path)
	}
	return newEngine(ctx, hashInput, rego.Load([]string{path}, nil))
}

func newEngine(ctx context.Context, source []byte, load func(*rego.Rego)) (*Engine, error) {
	compiler := ast.NewCompiler()
	r := rego.New(
		rego.Query(defaultQuery),
		rego.Compiler(compiler),
		rego.StrictBuiltinErrors(true),
		load,
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	if err := assertNoForbiddenBuiltins(compiler); err != nil {
		return nil, err
	}
	sum := sha256.Sum256(source)
	return &Engine{query: prepared, policyHash: hex.EncodeToString(sum[:])}, nil
}

func (e *Engine) PolicyHash() string {
	return e.policyHash
}

func (e *Engine) Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyResult, error) {
	if e == nil {
		return domain.PolicyResult{}, errors.New("policy engine is nil")
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return domain.PolicyResult{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.PolicyResult{}, errors.New("empty policy result")
	}
	result, err := decodePolicyResult(results[0].Expressions[0].Value)
	if err != nil {
		return domain.PolicyResult{}, err
	}
	sort.Slice(result.Deny, func(i, j int) bool {
		if result.Deny[i].Code == result.Deny[j].Code {
			return result.Deny[i].Message < result.Deny[j].Message
		}
		return result.Deny[i].Code < result.Deny[j].Code
	})
	return result, nil
}

// Require adapts the policy decision to domain.Authorizer.
func (e *Engine) Require(ctx context.Context, principal domain.Principal, permission string) error {
	if principal.Subject == "" {
		return domain.ErrUnauthorized
	}
	if permission == "" {
		return nil
	}
	result, err := e.Evaluate(ctx, domain.PolicyInput{
		Principal: domain.PolicyPrincipal{Subject: principal.Subject, Roles: principal.Roles},
		Action:    permission,
	})
	if err != nil {
		return err
	}
	if result.Allow {
		return nil
	}
	code := domain.AuthzMissingPermission
	if len(result.Deny) > 0 {
		code = result.Deny[0].Code
	}
	return &domain.AuthzError{Code: code, Err: domain.ErrForbidden}
}

func decodePolicyResult(value any) (domain.PolicyResult, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return domain.PolicyResult{}, err
	}
	var result domain.PolicyResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.PolicyResult{}, err
	}
	return result, nil
}

var _ domain.Authorizer = (*Engine)(nil)
