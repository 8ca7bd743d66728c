package statement

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// TypeTag identifies the variant held by a TypeDescriptor.
type TypeTag uint8

const (
	TagVoid TypeTag = iota
	TagPrimitive
	TagReference
)

// TypeDescriptor describes a declared return type. It is a tagged union of
// Void, Primitive(name) and Reference(name, args).
type TypeDescriptor struct {
	Tag  TypeTag
	Name string
	Args []TypeDescriptor
}

// Void returns the descriptor of a method that returns nothing.
func Void() TypeDescriptor {
	return TypeDescriptor{Tag: TagVoid}
}

// Primitive returns the descriptor of a primitive type such as "int".
func Primitive(name string) TypeDescriptor {
	return TypeDescriptor{Tag: TagPrimitive, Name: name}
}

// Reference returns the descriptor of a class or interface type.
func Reference(name string, args ...TypeDescriptor) TypeDescriptor {
	if len(args) == 0 {
		args = nil
	}
	return TypeDescriptor{Tag: TagReference, Name: name, Args: args}
}

// IsVoid reports whether t is Void.
func (t TypeDescriptor) IsVoid() bool { return t.Tag == TagVoid }

// IsPrimitive reports whether t is a primitive.
func (t TypeDescriptor) IsPrimitive() bool { return t.Tag == TagPrimitive }

// IsReference reports whether t is a reference type.
func (t TypeDescriptor) IsReference() bool { return t.Tag == TagReference }

// Equal reports structural equality.
func (t TypeDescriptor) Equal(o TypeDescriptor) bool {
	if t.Tag != o.Tag || t.Name != o.Name || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// String renders the descriptor in Java syntax.
func (t TypeDescriptor) String() string {
	switch t.Tag {
	case TagVoid:
		return "void"
	case TagPrimitive:
		return t.Name
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return t.Name + "<" + strings.Join(parts, ", ") + ">"
}

// boxedNames maps each Java primitive to its wrapper class.
var boxedNames = map[string]string{
	"boolean": "Boolean",
	"byte":    "Byte",
	"char":    "Character",
	"short":   "Short",
	"int":     "Integer",
	"long":    "Long",
	"float":   "Float",
	"double":  "Double",
}

// BoxedName returns the wrapper class name of a primitive.
func BoxedName(primitive string) (string, bool) {
	name, ok := boxedNames[primitive]
	return name, ok
}

// ParseTypeDescriptor parses Java type text such as "List<User>", "int",
// "void" or "Map<String, ? extends Object>".
// Array types become references named with a "[]" suffix. Wildcards are
// replaced by their bound, a bare "?" by Object.
func ParseTypeDescriptor(text string) (TypeDescriptor, error) {
	p := &typeParser{src: text}
	p.skipSpace()
	if p.done() {
		return TypeDescriptor{}, errors.Wrap(ErrInvalidTypeDescriptor, "empty type")
	}
	t, err := p.parseType()
	if err != nil {
		return TypeDescriptor{}, errors.Wrapf(err, "parse %q", text)
	}
	p.skipSpace()
	if !p.done() {
		return TypeDescriptor{}, errors.Wrapf(ErrInvalidTypeDescriptor, "parse %q: unexpected %q at %d", text, p.src[p.pos:], p.pos)
	}
	return t, nil
}

// MustParseTypeDescriptor is ParseTypeDescriptor for literals known to be valid.
func MustParseTypeDescriptor(text string) TypeDescriptor {
	t, err := ParseTypeDescriptor(text)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) done() bool { return p.pos >= len(p.src) }

func (p *typeParser) peek() byte {
	if p.done() {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) skipSpace() {
	for !p.done() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *typeParser) parseType() (TypeDescriptor, error) {
	p.skipAnnotations()
	if p.peek() == '?' {
		p.pos++
		p.skipSpace()
		word := p.peekIdent()
		if word == "extends" || word == "super" {
			p.pos += len(word)
			p.skipSpace()
			return p.parseType()
		}
		return Reference("Object"), nil
	}

	name, err := p.parseQualifiedName()
	if err != nil {
		return TypeDescriptor{}, err
	}

	var args []TypeDescriptor
	p.skipSpace()
	if p.peek() == '<' {
		args, err = p.parseArgs()
		if err != nil {
			return TypeDescriptor{}, err
		}
	}

	dims := p.parseDims()
	if dims > 0 {
		return Reference(name + strings.Repeat("[]", dims)), nil
	}
	if name == "void" {
		if args != nil {
			return TypeDescriptor{}, errors.Wrap(ErrInvalidTypeDescriptor, "void cannot have type arguments")
		}
		return Void(), nil
	}
	if _, ok := boxedNames[name]; ok && args == nil {
		return Primitive(name), nil
	}
	return Reference(name, args...), nil
}

func (p *typeParser) skipAnnotations() {
	for {
		p.skipSpace()
		if p.peek() != '@' {
			return
		}
		p.pos++
		_, _ = p.parseQualifiedName()
		p.skipSpace()
	}
}

func (p *typeParser) peekIdent() string {
	end := p.pos
	for end < len(p.src) && isIdentByte(p.src[end], end == p.pos) {
		end++
	}
	return p.src[p.pos:end]
}

func (p *typeParser) parseIdent() (string, error) {
	id := p.peekIdent()
	if id == "" {
		return "", errors.Wrapf(ErrInvalidTypeDescriptor, "expected identifier at %d", p.pos)
	}
	p.pos += len(id)
	return id, nil
}

func (p *typeParser) parseQualifiedName() (string, error) {
	first, err := p.parseIdent()
	if err != nil {
		return "", err
	}
	parts := []string{first}
	for {
		p.skipSpace()
		if p.peek() != '.' {
			break
		}
		p.pos++
		p.skipSpace()
		next, err := p.parseIdent()
		if err != nil {
			return "", err
		}
		parts = append(parts, next)
	}
	return strings.Join(parts, "."), nil
}

func (p *typeParser) parseArgs() ([]TypeDescriptor, error) {
	p.pos++ // '<'
	p.skipSpace()
	if p.peek() == '>' {
		p.pos++
		return nil, nil
	}
	var args []TypeDescriptor
	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
		case '>':
			p.pos++
			return args, nil
		default:
			return nil, errors.Wrapf(ErrInvalidTypeDescriptor, "expected ',' or '>' at %d", p.pos)
		}
	}
}

func (p *typeParser) parseDims() int {
	dims := 0
	for {
		p.skipSpace()
		if !strings.HasPrefix(p.src[p.pos:], "[") {
			return dims
		}
		save := p.pos
		p.pos++
		p.skipSpace()
		if p.peek() != ']' {
			p.pos = save
			return dims
		}
		p.pos++
		dims++
	}
}

func isIdentByte(b byte, first bool) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b == '_', b == '$':
		return true
	case b >= '0' && b <= '9':
		return !first
	}
	return b >= 0x80
}
