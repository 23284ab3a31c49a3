// Package policy evaluates per-tenant execution policies written in CEL over
// the attributes of an action order. An empty expression allows everything;
// a broken expression denies everything (fail-closed).
package policy

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Evaluator compiles and caches CEL programs keyed by expression text.
type Evaluator struct {
	env   *cel.Env
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewEvaluator creates an evaluator exposing the "order" variable to
// expressions, e.g. `order.actionType == "FORM" && order.target != "PARTENAIRE"`.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("order", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env, cache: make(map[string]cel.Program)}, nil
}

// Allow evaluates expr against the order attributes. An empty expr allows.
// Compile or evaluation errors are returned and must be treated as denial.
func (e *Evaluator) Allow(expr string, orderAttrs map[string]any) (bool, error) {
	if expr == "" {
		return true, nil
	}

	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{"order": orderAttrs})
	if err != nil {
		return false, fmt.Errorf("policy evaluation failed: %w", err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy expression must evaluate to bool, got %T", out.Value())
	}
	return allowed, nil
}

func (e *Evaluator) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.cache[expr]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("policy compile failed: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("policy program failed: %w", err)
	}

	e.mu.Lock()
	e.cache[expr] = prg
	e.mu.Unlock()
	return prg, nil
}
