// Package javasource reads Java mapper interfaces with tree-sitter.
package javasource

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/example/mapgen/internal/ports/secondary"
)

// ErrNoInterface is returned for a source file without an interface declaration.
var ErrNoInterface = errors.New("no interface declaration")

// Parser implements secondary.MethodSource for Java source files.
type Parser struct {
	language *tree_sitter.Language
}

// NewParser creates a new Java source parser.
func NewParser() *Parser {
	return &Parser{language: tree_sitter.NewLanguage(tree_sitter_java.Language())}
}

// LoadInterface parses path and returns its top-level interface. When the
// file declares several, the one named after the file wins.
func (p *Parser) LoadInterface(ctx context.Context, path string) (*secondary.InterfaceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	file, err := p.parse(src)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	rec, err := file.record(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	rec.Path = path
	return rec, nil
}

// ParseInterface extracts the first interface declared in src. The
// record's Path is left empty.
func (p *Parser) ParseInterface(src []byte) (*secondary.InterfaceRecord, error) {
	file, err := p.parse(src)
	if err != nil {
		return nil, err
	}
	return file.record("")
}

// declarations is what one source file declares at the top level.
type declarations struct {
	pkg        string
	imports    []string
	types      []string
	interfaces []interfaceDecl
}

// record converts the interface named preferred, or the first one.
func (d *declarations) record(preferred string) (*secondary.InterfaceRecord, error) {
	if len(d.interfaces) == 0 {
		return nil, ErrNoInterface
	}
	iface := d.interfaces[0]
	for _, candidate := range d.interfaces {
		if candidate.name == preferred {
			iface = candidate
			break
		}
	}
	return &secondary.InterfaceRecord{
		Package:       d.pkg,
		Name:          iface.name,
		QualifiedName: qualify(d.pkg, iface.name),
		Imports:       d.imports,
		Methods:       iface.methods,
	}, nil
}

type interfaceDecl struct {
	name    string
	methods []secondary.MethodRecord
}

func (p *Parser) parse(src []byte) (*declarations, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(p.language); err != nil {
		return nil, errors.Wrap(err, "failed to load java grammar")
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, errors.New("java parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	out := &declarations{}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "package_declaration":
			out.pkg = packageName(child, src)
		case "import_declaration":
			out.imports = append(out.imports, importName(child, src))
		case "interface_declaration":
			name := fieldText(child, "name", src)
			out.types = append(out.types, name)
			out.interfaces = append(out.interfaces, interfaceDecl{
				name:    name,
				methods: interfaceMethods(child.ChildByFieldName("body"), src),
			})
		case "class_declaration", "enum_declaration", "record_declaration", "annotation_type_declaration":
			out.types = append(out.types, fieldText(child, "name", src))
		}
	}
	return out, nil
}

func packageName(node *tree_sitter.Node, src []byte) string {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "scoped_identifier", "identifier":
			return child.Utf8Text(src)
		}
	}
	return ""
}

// importName renders an import as written, "static a.b.C.m" or "a.b.*".
func importName(node *tree_sitter.Node, src []byte) string {
	var (
		name     string
		static   bool
		wildcard bool
	)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "static":
			static = true
		case "asterisk":
			wildcard = true
		case "scoped_identifier", "identifier":
			name = child.Utf8Text(src)
		}
	}
	if wildcard {
		name += ".*"
	}
	if static {
		name = "static " + name
	}
	return name
}

func interfaceMethods(body *tree_sitter.Node, src []byte) []secondary.MethodRecord {
	if body == nil {
		return nil
	}
	var methods []secondary.MethodRecord
	for i := uint(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(i)
		if child == nil || child.Kind() != "method_declaration" {
			continue
		}
		annotations, concrete := modifiers(child, src)
		if concrete {
			continue
		}
		methods = append(methods, secondary.MethodRecord{
			Name:        fieldText(child, "name", src),
			ReturnType:  methodReturnType(child, src),
			Annotations: annotations,
			Line:        int(child.StartPosition().Row) + 1,
		})
	}
	return methods
}

// modifiers returns the simple names of a method's annotations and whether
// the method has a body of its own (default, static or private).
func modifiers(method *tree_sitter.Node, src []byte) ([]string, bool) {
	var (
		annotations []string
		concrete    bool
	)
	for i := uint(0); i < method.ChildCount(); i++ {
		mods := method.Child(i)
		if mods == nil || mods.Kind() != "modifiers" {
			continue
		}
		for j := uint(0); j < mods.ChildCount(); j++ {
			m := mods.Child(j)
			switch m.Kind() {
			case "marker_annotation", "annotation":
				annotations = append(annotations, simpleName(fieldText(m, "name", src)))
			case "default", "static", "private":
				concrete = true
			}
		}
	}
	if method.ChildByFieldName("body") != nil {
		concrete = true
	}
	return annotations, concrete
}

// methodReturnType returns the declared return type with any type
// annotations and whitespace collapsed.
func methodReturnType(method *tree_sitter.Node, src []byte) string {
	typ := method.ChildByFieldName("type")
	if typ == nil {
		return ""
	}
	text := typ.Utf8Text(src)
	if dims := method.ChildByFieldName("dimensions"); dims != nil {
		text += dims.Utf8Text(src)
	}
	return strings.Join(strings.Fields(text), " ")
}

func fieldText(node *tree_sitter.Node, field string, src []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Utf8Text(src)
}

func simpleName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// sourceRoot returns the directory that contains the top of pkg's directory
// tree, or "" when path does not live under a directory matching pkg.
func sourceRoot(path, pkg string) string {
	dir := filepath.Dir(path)
	if pkg == "" {
		return dir
	}
	suffix := filepath.Join(strings.Split(pkg, ".")...)
	if !strings.HasSuffix(dir, string(filepath.Separator)+suffix) {
		return ""
	}
	return strings.TrimSuffix(dir, string(filepath.Separator)+suffix)
}
