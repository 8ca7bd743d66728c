package statement

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// GeneratorDefinition describes one statement generator: the kind of element
// it creates and the name patterns that select it.
type GeneratorDefinition struct {
	kind        OperationKind
	patterns    []string
	id          string
	displayText string
}

// NewGeneratorDefinition builds a definition for kind. Patterns are trimmed,
// lower-cased and de-duplicated. An empty set fails with ErrInvalidPatternSet.
func NewGeneratorDefinition(kind OperationKind, patterns ...string) (GeneratorDefinition, error) {
	if !kind.Valid() {
		return GeneratorDefinition{}, errors.Newf("unknown statement kind %q", kind)
	}
	seen := make(map[string]bool, len(patterns))
	normalized := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = lower(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		normalized = append(normalized, p)
	}
	if len(normalized) == 0 {
		return GeneratorDefinition{}, errors.Wrapf(ErrInvalidPatternSet, "%s generator needs at least one pattern", kind)
	}
	sort.Strings(normalized)

	title := strings.ToUpper(string(kind[:1])) + string(kind[1:])
	return GeneratorDefinition{
		kind:        kind,
		patterns:    normalized,
		id:          title + "Generator",
		displayText: title + " Statement",
	}, nil
}

// Kind returns the operation kind produced by the generator.
func (g GeneratorDefinition) Kind() OperationKind { return g.kind }

// ID returns the stable generator identifier, e.g. "DeleteGenerator".
func (g GeneratorDefinition) ID() string { return g.id }

// DisplayText returns the label shown when the user picks a generator.
func (g GeneratorDefinition) DisplayText() string { return g.displayText }

// Patterns returns a copy of the sorted pattern set.
func (g GeneratorDefinition) Patterns() []string {
	return append([]string(nil), g.patterns...)
}

// String returns the display text.
func (g GeneratorDefinition) String() string { return g.displayText }

// DefaultPatterns returns the built-in pattern set for kind.
func DefaultPatterns(kind OperationKind) []string {
	return append([]string(nil), defaultPatterns[kind]...)
}

var defaultPatterns = map[OperationKind][]string{
	KindUpdate: {"update", "modify", "set"},
	KindSelect: {"select", "get", "look", "find", "list", "search", "count", "query"},
	KindDelete: {"del", "cancel"},
	KindInsert: {"insert", "add", "new"},
}

// builtinDefinitions is constructed once and never mutated.
var builtinDefinitions = func() map[OperationKind]GeneratorDefinition {
	defs := make(map[OperationKind]GeneratorDefinition, len(builtinOrder))
	for _, k := range builtinOrder {
		def, err := NewGeneratorDefinition(k, defaultPatterns[k]...)
		if err != nil {
			panic(err)
		}
		defs[k] = def
	}
	return defs
}()

// Builtin returns the built-in definition for kind.
func Builtin(kind OperationKind) (GeneratorDefinition, bool) {
	def, ok := builtinDefinitions[kind]
	return def, ok
}
