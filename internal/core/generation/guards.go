package generation

import (
	"fmt"
	"unicode"

	"github.com/cockroachdb/errors"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return errors.New(r.Reason)
}

// GenerateContext provides the context needed to start a generation request.
type GenerateContext struct {
	MethodName    string
	DeclaringType string
}

// SynthesisContext provides the context needed before writing to a document.
type SynthesisContext struct {
	DeclaringType string
	DocumentPath  string
	Namespace     string
}

// CanGenerate evaluates whether a generation request is well formed.
// Rule: the method name must be a Java identifier and the declaring type
// must be named.
func CanGenerate(ctx GenerateContext) GuardResult {
	if !isJavaIdentifier(ctx.MethodName) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%q is not a valid method name", ctx.MethodName),
		}
	}
	if ctx.DeclaringType == "" {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("method %s has no declaring type - pass the fully qualified interface name", ctx.MethodName),
		}
	}
	return GuardResult{Allowed: true}
}

// CanSynthesize evaluates whether a statement may be written to a document.
// Rule: the document namespace must equal the declaring type.
func CanSynthesize(ctx SynthesisContext) GuardResult {
	if ctx.Namespace != ctx.DeclaringType {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("mapper %s has namespace %q, expected %q", ctx.DocumentPath, ctx.Namespace, ctx.DeclaringType),
		}
	}
	return GuardResult{Allowed: true}
}

func isJavaIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
