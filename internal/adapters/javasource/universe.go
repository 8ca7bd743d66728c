package javasource

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/example/mapgen/internal/core/statement"
)

// knownPackages lists the JDK types resolvable through imports without a
// source tree to look them up in.
var knownPackages = map[string][]string{
	"java.lang": {
		"Boolean", "Byte", "Character", "CharSequence", "Double", "Float",
		"Integer", "Long", "Number", "Object", "Short", "String", "Void",
	},
	"java.util": {
		"ArrayList", "Collection", "Date", "HashMap", "HashSet", "LinkedHashMap",
		"LinkedList", "List", "Map", "Optional", "Set", "TreeMap", "UUID",
	},
	"java.math": {"BigDecimal", "BigInteger"},
	"java.sql":  {"Date", "Time", "Timestamp"},
	"java.time": {
		"Instant", "LocalDate", "LocalDateTime", "LocalTime",
		"OffsetDateTime", "ZonedDateTime",
	},
}

func knownMember(pkg, name string) bool {
	for _, n := range knownPackages[pkg] {
		if n == name {
			return true
		}
	}
	return false
}

// Universe implements statement.TypeUniverse for one compilation unit.
//
// A simple name resolves, in order, through types declared in the file,
// single-type imports, java.lang, the file's own package and on-demand
// imports. Package and on-demand lookups consult the source tree the file
// lives in. Qualified names resolve to themselves.
type Universe struct {
	pkg      string
	root     string // directory containing the top of the package tree
	dir      string
	simple   map[string]string
	onDemand []string
}

// BuiltinUniverse resolves java.lang types and qualified names only.
func BuiltinUniverse() *Universe {
	u := &Universe{simple: make(map[string]string)}
	for _, n := range knownPackages["java.lang"] {
		u.simple[n] = "java.lang." + n
	}
	return u
}

// ResolveTypeByName implements statement.TypeUniverse.
func (u *Universe) ResolveTypeByName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasSuffix(name, "[]") {
		return "", false
	}
	if strings.Contains(name, ".") {
		if outer, inner, ok := strings.Cut(name, "."); ok && !isPackageSegment(outer) {
			// Nested type written as Outer.Inner.
			if q, ok := u.ResolveTypeByName(outer); ok {
				return q + "." + inner, true
			}
			return "", false
		}
		return name, true
	}
	if q, ok := u.simple[name]; ok {
		return q, true
	}
	if u.dir != "" && exists(filepath.Join(u.dir, name+".java")) {
		return qualify(u.pkg, name), true
	}
	for _, pkg := range u.onDemand {
		if knownMember(pkg, name) {
			return pkg + "." + name, true
		}
		if u.root != "" && exists(filepath.Join(u.root, filepath.Join(strings.Split(pkg, ".")...), name+".java")) {
			return pkg + "." + name, true
		}
	}
	return "", false
}

// isPackageSegment reports whether s looks like a package name segment.
// Type names start upper case by convention.
func isPackageSegment(s string) bool {
	return s != "" && s[0] >= 'a' && s[0] <= 'z'
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// UniverseProvider implements secondary.TypeUniverseProvider.
type UniverseProvider struct {
	parser *Parser
}

// NewUniverseProvider creates a new UniverseProvider.
func NewUniverseProvider(parser *Parser) *UniverseProvider {
	return &UniverseProvider{parser: parser}
}

// UniverseFor returns the universe seen from sourcePath.
func (p *UniverseProvider) UniverseFor(ctx context.Context, sourcePath string) (statement.TypeUniverse, error) {
	if sourcePath == "" {
		return BuiltinUniverse(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", sourcePath)
	}
	file, err := p.parser.parse(src)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", sourcePath)
	}

	u := BuiltinUniverse()
	u.pkg = file.pkg
	u.dir = filepath.Dir(sourcePath)
	u.root = sourceRoot(sourcePath, file.pkg)
	for _, t := range file.types {
		u.simple[t] = qualify(file.pkg, t)
	}
	for _, imp := range file.imports {
		if strings.HasPrefix(imp, "static ") {
			continue
		}
		if pkg, ok := strings.CutSuffix(imp, ".*"); ok {
			u.onDemand = append(u.onDemand, pkg)
			continue
		}
		u.simple[simpleName(imp)] = imp
	}
	return u, nil
}
