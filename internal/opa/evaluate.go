// Package opa evaluates the rego policy that gates outgoing email
package opa

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

// PreparedPolicy holds a compiled policy ready for evaluation
type PreparedPolicy struct {
	name  string
	query rego.PreparedEvalQuery
}

// PreparePolicy compiles a policy and query once so each request only pays
// for evaluation.
func PreparePolicy(ctx context.Context, policy string, query string) (*PreparedPolicy, error) {
	return prepare(ctx, "policy.rego", policy, query)
}

// LoadPolicy reads and compiles the policy at path.
func LoadPolicy(ctx context.Context, path string, query string) (*PreparedPolicy, error) {
	policy, err := ReadPolicy(path)
	if err != nil {
		return nil, err
	}
	return prepare(ctx, filepath.Base(path), policy, query)
}

func prepare(ctx context.Context, name, policy, query string) (*PreparedPolicy, error) {
	r := rego.New(
		rego.Query(query),
		rego.Module(name, policy),
		rego.SetRegoVersion(ast.RegoV1),
	)

	pq, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy %s: %w", name, err)
	}

	return &PreparedPolicy{name: name, query: pq}, nil
}

// Evaluate runs the prepared policy against input and decodes the first
// expression value into T.
func Evaluate[T any](ctx context.Context, pp *PreparedPolicy, input any) (*T, error) {
	rs, err := pp.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy %s: %w", pp.name, err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, fmt.Errorf("policy %s produced no result", pp.name)
	}

	bs, err := json.Marshal(rs[0].Expressions[0].Value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy result: %w", err)
	}

	var out T
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy result: %w", err)
	}

	return &out, nil
}

func ReadPolicy(path string) (string, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read policy file: %w", err)
	}

	return string(p), nil
}
