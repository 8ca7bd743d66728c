package statement

import "github.com/cockroachdb/errors"

// MethodSignature is the snapshot of a method taken when generation starts.
type MethodSignature struct {
	Name            string
	DeclaringTypeID string
	ReturnType      TypeDescriptor
}

// RegistryConfig configures a Registry. A nil Policy selects the default
// policy; Patterns replaces the built-in pattern set of the kinds it names.
type RegistryConfig struct {
	Policy   MatchPolicy
	Patterns map[OperationKind][]string
}

// Registry classifies method names into candidate generators.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	policy MatchPolicy
	defs   []GeneratorDefinition
}

// NewRegistry builds a registry from cfg. Overriding a kind with an empty
// pattern set fails with ErrInvalidPatternSet.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	policy := cfg.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	for k := range cfg.Patterns {
		if !k.Valid() {
			return nil, errors.Newf("pattern override for unknown statement kind %q", k)
		}
	}

	defs := make([]GeneratorDefinition, 0, len(builtinOrder))
	for _, k := range builtinOrder {
		override, ok := cfg.Patterns[k]
		if !ok {
			def, _ := Builtin(k)
			defs = append(defs, def)
			continue
		}
		def, err := NewGeneratorDefinition(k, override...)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return &Registry{policy: policy, defs: defs}, nil
}

// Definitions returns every definition in classification order.
func (r *Registry) Definitions() []GeneratorDefinition {
	return append([]GeneratorDefinition(nil), r.defs...)
}

// Definition returns the definition for kind.
func (r *Registry) Definition(kind OperationKind) (GeneratorDefinition, bool) {
	for _, d := range r.defs {
		if d.kind == kind {
			return d, true
		}
	}
	return GeneratorDefinition{}, false
}

// Classify returns the generators whose patterns match the method name, in
// the fixed order Update, Select, Delete, Insert. When nothing matches every
// generator is returned so the user can choose.
func (r *Registry) Classify(method MethodSignature) []GeneratorDefinition {
	var matched []GeneratorDefinition
	for _, d := range r.defs {
		if r.policy.MatchesAny(d.patterns, method.Name) {
			matched = append(matched, d)
		}
	}
	if len(matched) == 0 {
		return r.Definitions()
	}
	return matched
}
