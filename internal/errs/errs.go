// Package errs implements the error taxonomy from spec §7. It is
// grounded on internal/errors's CompilerError (a typed struct with a
// stable Error() and a richer Format for diagnostics) but targets runtime
// errors instead of parse errors: UndefinedBindingError, UnknownBeatError,
// UnknownCharacterError, EvaluationError, HostContractError, and
// RestoreError.
package errs

import (
	"fmt"

	"github.com/jeremyfa/loreline-go/ast"
)

// RuntimeError is the umbrella marker every concrete runtime error kind
// embeds, so a host can `errors.As(&RuntimeError{})`-style umbrella-match
// without enumerating every variant (grounded on the
// ContractFailureError/RuntimeError pairing in
// internal/interp/errors.go).
type RuntimeError interface {
	error
	runtimeError()
}

type base struct {
	pos ast.Position
}

func (base) runtimeError() {}

// UndefinedBindingError is raised when a read or write targets a name
// that cannot be resolved and is not creatable under the current access
// policy (spec §4.6, §7).
type UndefinedBindingError struct {
	base
	Name string
}

func NewUndefinedBinding(pos ast.Position, name string) *UndefinedBindingError {
	return &UndefinedBindingError{base: base{pos: pos}, Name: name}
}

func (e *UndefinedBindingError) Error() string {
	return fmt.Sprintf("undefined binding %q at %s", e.Name, e.pos)
}

// UnknownBeatError is raised when a transition, call, or insertion target
// does not resolve to a beat (spec §4.4, §7).
type UnknownBeatError struct {
	base
	Target string
}

func NewUnknownBeat(pos ast.Position, target string) *UnknownBeatError {
	return &UnknownBeatError{base: base{pos: pos}, Target: target}
}

func (e *UnknownBeatError) Error() string {
	return fmt.Sprintf("unknown beat %q at %s", e.Target, e.pos)
}

// UnknownCharacterError is raised when a dialogue statement addresses an
// undeclared character (spec §7).
type UnknownCharacterError struct {
	base
	Name string
}

func NewUnknownCharacter(pos ast.Position, name string) *UnknownCharacterError {
	return &UnknownCharacterError{base: base{pos: pos}, Name: name}
}

func (e *UnknownCharacterError) Error() string {
	return fmt.Sprintf("unknown character %q at %s", e.Name, e.pos)
}

// EvaluationError wraps a failure signaled by the expression evaluator
// collaborator (division by zero, type mismatch, out-of-bounds; spec
// §6.2, §7).
type EvaluationError struct {
	base
	Expr string
	Err  error
}

func NewEvaluationError(pos ast.Position, expr string, err error) *EvaluationError {
	return &EvaluationError{base: base{pos: pos}, Expr: expr, Err: err}
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error in %q at %s: %v", e.Expr, e.pos, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// HostContractError is fatal: the host invoked a one-shot continuation
// twice, or re-entered a forbidden API from inside a callback (spec §5,
// §7).
type HostContractError struct {
	base
	Reason string
}

func NewHostContractError(reason string) *HostContractError {
	return &HostContractError{Reason: reason}
}

func (e *HostContractError) Error() string {
	return fmt.Sprintf("host contract violation: %s", e.Reason)
}

// RestoreError describes why a saved node failed to resolve against the
// live AST (spec §4.7.3, §4.7.5). It is always recovered locally by the
// Restorer's fallback path and never surfaced to the host as a returned
// error; it exists as a typed value so internal logging and tests can
// assert on the cause of a fallback.
type RestoreError struct {
	base
	Reason string
}

func NewRestoreError(reason string) *RestoreError {
	return &RestoreError{Reason: reason}
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore error: %s", e.Reason)
}
