package expr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
)

// ErrNotBool is returned by filters whose expression does not evaluate to a
// bool.
var ErrNotBool = errors.New("expression must evaluate to bool")

// Protect CEL environment creation and compilation from concurrent access.
var celMutex sync.Mutex

// Environment provides a thread-safe wrapper around a [*cel.Env].
type Environment struct {
	env *cel.Env
}

// NewEnvironment creates a new [Environment].
func NewEnvironment(opts ...cel.EnvOption) (*Environment, error) {
	env, err := createEnvironment(opts...)
	if err != nil {
		return nil, err
	}

	return &Environment{env: env}, nil
}

// MustNewEnvironment creates a new [Environment] and panics on error.
func MustNewEnvironment(opts ...cel.EnvOption) *Environment {
	env, err := NewEnvironment(opts...)
	if err != nil {
		panic(err)
	}

	return env
}

func createEnvironment(opts ...cel.EnvOption) (*cel.Env, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	opts = append(opts, cel.Lib(&lib{}))

	celEnv, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return celEnv, nil
}

// Compile compiles a CEL expression and returns a program.
//
//nolint:ireturn // Following CEL's function signature.
func (e *Environment) Compile(expression string) (cel.Program, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	return program, nil
}

// InlayVariables declares the variables available to filter expressions.
func InlayVariables() []cel.EnvOption {
	return []cel.EnvOption{
		cel.Variable("id", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("url", cel.StringType),
		cel.Variable("locked", cel.BoolType),
		cel.Variable("clickThrough", cel.BoolType),
		cel.Variable("inlay", cel.MapType(cel.StringType, cel.DynType)),
	}
}

// Filter selects inlays with a compiled CEL expression.
type Filter struct {
	program    cel.Program
	expression string
}

// NewFilter compiles expression into a [Filter].
func NewFilter(expression string) (*Filter, error) {
	env, err := NewEnvironment(InlayVariables()...)
	if err != nil {
		return nil, err
	}

	program, err := env.Compile(expression)
	if err != nil {
		return nil, err
	}

	return &Filter{program: program, expression: expression}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expression
}

// Match reports whether inlay satisfies the expression.
func (f *Filter) Match(inlay inlays.Inlay) (bool, error) {
	vars := inlayVars(inlay)
	vars["inlay"] = ConvertToCELValue(inlayVars(inlay))

	out, _, err := f.program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate %q for inlay %s: %w", f.expression, inlay.ID, err)
	}

	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("%w: got %s", ErrNotBool, out.Type().TypeName())
	}

	return bool(b), nil
}

// Apply returns the inlays that satisfy the expression, in order.
func (f *Filter) Apply(in []inlays.Inlay) ([]inlays.Inlay, error) {
	out := make([]inlays.Inlay, 0, len(in))

	for _, inlay := range in {
		ok, err := f.Match(inlay)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, inlay)
		}
	}

	return out, nil
}

func inlayVars(inlay inlays.Inlay) map[string]any {
	return map[string]any{
		"id":           inlay.ID,
		"name":         inlay.Name,
		"url":          inlay.URL,
		"locked":       inlay.EffectiveLocked(),
		"clickThrough": inlay.ClickThrough,
	}
}
