package core

import (
	"context"

	"opscore/pkg/domain"
)

type (
	Rule        = domain.Rule
	RulesEngine = domain.RulesEngine
)

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewEnumIntegrityRule())
	engine.Register(NewNonNegativeAmountsRule())
	engine.Register(NewReferenceIntegrityRule())
	return engine
}

// EvaluateOnce runs the engine against a view with no pending changes. Useful
// for auditing imported snapshots.
func EvaluateOnce(ctx context.Context, engine *RulesEngine, view TransactionView) (Result, error) {
	return engine.Evaluate(ctx, view, nil)
}
