package statement

// PlaceholderBody is the body of a new statement: valid XML that renders as
// an empty statement for the author to fill in.
const PlaceholderBody = " "

// Attribute is one XML attribute of a statement element, other than id.
type Attribute struct {
	Name  string
	Value string
}

// ElementSpec is the kind-specific structure of a statement to create.
type ElementSpec struct {
	Kind       OperationKind
	ID         string
	Attributes []Attribute
	Body       string
}

// TemplateOptions tunes element construction.
type TemplateOptions struct {
	// DefaultResultType is used for select statements whose result type
	// cannot be resolved. Empty means no resultType attribute.
	DefaultResultType string
}

type attributeTemplate func(method MethodSignature, resolver *ResultTypeResolver, opts TemplateOptions) []Attribute

var templates = map[OperationKind]attributeTemplate{
	KindSelect: selectAttributes,
	KindInsert: noAttributes,
	KindUpdate: noAttributes,
	KindDelete: noAttributes,
}

// BuildElement returns the element that def creates for method.
func BuildElement(def GeneratorDefinition, method MethodSignature, resolver *ResultTypeResolver, opts TemplateOptions) ElementSpec {
	attrs := templates[def.kind]
	spec := ElementSpec{
		Kind: def.kind,
		ID:   method.Name,
		Body: PlaceholderBody,
	}
	if attrs != nil {
		spec.Attributes = attrs(method, resolver, opts)
	}
	return spec
}

func selectAttributes(method MethodSignature, resolver *ResultTypeResolver, opts TemplateOptions) []Attribute {
	if resolver != nil {
		if rt, ok := resolver.Resolve(method); ok {
			return []Attribute{{Name: "resultType", Value: rt.Name}}
		}
	}
	if opts.DefaultResultType != "" {
		return []Attribute{{Name: "resultType", Value: opts.DefaultResultType}}
	}
	return nil
}

func noAttributes(MethodSignature, *ResultTypeResolver, TemplateOptions) []Attribute {
	return nil
}
