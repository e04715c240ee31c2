package graphdoc

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Special form keys.
const (
	KeyCall   = "$call"
	KeyArgs   = "args"
	KeyRef    = "$ref"
	KeyVar    = "$var"
	KeyLambda = "$lambda"
	KeyConst  = "$const"
)

// Header is the descriptive part of a document.
type Header struct {
	Version     int            `mapstructure:"version"`
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Params      map[string]any `mapstructure:"params"`
}

// Document is a parsed graph document.
type Document struct {
	Header
	// Root is the built expression: a *domain.Node, *domain.LambdaRef or a literal.
	Root any
	// Vars holds the built named expressions.
	Vars map[string]any
}

// Load reads and parses a document file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse builds a document from YAML or JSON.
func Parse(data []byte) (*Document, error) {
	var file yaml.Node
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid graph document: %w", err)
	}
	if len(file.Content) == 0 {
		return nil, domain.NewGraphError(domain.ErrMalformedValue, nil, "empty graph document")
	}
	top := file.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, domain.NewGraphError(domain.ErrMalformedValue, nil, "line %d: document must be a mapping", top.Line)
	}

	b := newBuilder()
	header := map[string]any{}
	var root *yaml.Node
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i].Value, top.Content[i+1]
		switch key {
		case "root":
			root = val
		case "vars":
			if err := b.declare(val); err != nil {
				return nil, err
			}
		default:
			var v any
			if err := val.Decode(&v); err != nil {
				return nil, fmt.Errorf("invalid %s: %w", key, err)
			}
			header[key] = v
		}
	}
	if root == nil {
		return nil, domain.NewGraphError(domain.ErrMalformedValue, []string{"root"}, "document has no root")
	}

	doc := &Document{Vars: map[string]any{}}
	if err := decodeHeader(header, &doc.Header); err != nil {
		return nil, err
	}

	for _, name := range b.order {
		v, err := b.resolve(name)
		if err != nil {
			return nil, err
		}
		doc.Vars[name] = v
	}

	var err error
	if doc.Root, err = b.build(root, []string{"root"}); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeHeader(raw map[string]any, out *Header) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return domain.NewGraphError(domain.ErrMalformedValue, nil, "invalid header: %v", err)
	}
	return nil
}

// builder converts yaml nodes, memoizing by yaml node so aliases share identity.
type builder struct {
	decls   map[string]*yaml.Node
	order   []string
	vars    map[string]any
	onStack map[string]bool
	built   map[*yaml.Node]any
}

func newBuilder() *builder {
	return &builder{
		decls:   map[string]*yaml.Node{},
		vars:    map[string]any{},
		onStack: map[string]bool{},
		built:   map[*yaml.Node]any{},
	}
}

func (b *builder) declare(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return domain.NewGraphError(domain.ErrMalformedValue, []string{"vars"}, "line %d: vars must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		if _, dup := b.decls[name]; dup {
			return domain.NewGraphError(domain.ErrMalformedValue, []string{"vars", name}, "line %d: duplicate var", n.Content[i].Line)
		}
		b.decls[name] = n.Content[i+1]
		b.order = append(b.order, name)
	}
	return nil
}

func (b *builder) resolve(name string) (any, error) {
	if v, ok := b.vars[name]; ok {
		return v, nil
	}
	decl, ok := b.decls[name]
	if !ok {
		return nil, domain.NewGraphError(domain.ErrMalformedValue, []string{"vars", name}, "undefined var")
	}
	if b.onStack[name] {
		return nil, domain.NewGraphError(domain.ErrCyclicGraph, []string{"vars", name}, "var refers to itself")
	}
	b.onStack[name] = true
	defer delete(b.onStack, name)

	v, err := b.build(decl, []string{"vars", name})
	if err != nil {
		return nil, err
	}
	b.vars[name] = v
	return v, nil
}

func (b *builder) build(n *yaml.Node, path []string) (any, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if v, ok := b.built[n]; ok {
		return v, nil
	}

	var (
		v   any
		err error
	)
	switch n.Kind {
	case yaml.ScalarNode:
		err = n.Decode(&v)
	case yaml.SequenceNode:
		v, err = b.sequence(n, path)
	case yaml.MappingNode:
		v, err = b.mapping(n, path)
	default:
		err = b.fail(n, path, "unsupported yaml node")
	}
	if err != nil {
		return nil, err
	}

	// Only graph values need a stable identity.
	switch v.(type) {
	case *domain.Node, *domain.LambdaRef:
		b.built[n] = v
	}
	return v, nil
}

func (b *builder) sequence(n *yaml.Node, path []string) ([]any, error) {
	out := make([]any, len(n.Content))
	for i, c := range n.Content {
		v, err := b.build(c, sub(path, fmt.Sprint(i)))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (b *builder) mapping(n *yaml.Node, path []string) (any, error) {
	keys := make(map[string]*yaml.Node, len(n.Content)/2)
	special := ""
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i].Value
		keys[k] = n.Content[i+1]
		if strings.HasPrefix(k, "$") {
			if special != "" {
				return nil, b.fail(n, path, "both %s and %s given", special, k)
			}
			special = k
		}
	}

	switch special {
	case "":
		return b.literalMapping(n, path)
	case KeyCall:
		return b.call(n, keys, path)
	case KeyRef, KeyVar:
		if len(keys) != 1 {
			return nil, b.fail(n, path, "%s takes no siblings", special)
		}
		name, err := scalarString(keys[special])
		if err != nil {
			return nil, b.fail(n, path, "%s: %v", special, err)
		}
		if special == KeyVar {
			return domain.Variable(name), nil
		}
		return b.resolve(name)
	case KeyLambda:
		if len(keys) != 1 {
			return nil, b.fail(n, path, "%s takes no siblings", special)
		}
		return b.lambda(keys[KeyLambda], sub(path, KeyLambda))
	case KeyConst:
		if len(keys) != 1 {
			return nil, b.fail(n, path, "%s takes no siblings", special)
		}
		v, err := b.build(keys[KeyConst], sub(path, KeyConst))
		if err != nil {
			return nil, err
		}
		return domain.Constant(v), nil
	}
	return nil, b.fail(n, path, "unknown form %s", special)
}

func (b *builder) call(n *yaml.Node, keys map[string]*yaml.Node, path []string) (*domain.Node, error) {
	name, err := scalarString(keys[KeyCall])
	if err != nil {
		return nil, b.fail(n, path, "%s: %v", KeyCall, err)
	}
	args := domain.NewArgs()
	for k, v := range keys {
		if k != KeyCall && k != KeyArgs {
			return nil, b.fail(v, path, "unexpected key %q next to %s", k, KeyCall)
		}
	}
	if raw, ok := keys[KeyArgs]; ok {
		if raw.Kind != yaml.MappingNode {
			return nil, b.fail(raw, sub(path, KeyArgs), "args must be a mapping")
		}
		for i := 0; i+1 < len(raw.Content); i += 2 {
			k := raw.Content[i].Value
			v, err := b.build(raw.Content[i+1], sub(path, k))
			if err != nil {
				return nil, err
			}
			args.Set(k, v)
		}
	}
	return registry.Function(name).Invoke(args), nil
}

func (b *builder) lambda(n *yaml.Node, path []string) (*domain.LambdaRef, error) {
	if n.Kind != yaml.MappingNode {
		return nil, b.fail(n, path, "lambda must be a mapping with params and body")
	}
	var params []string
	var body *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		switch n.Content[i].Value {
		case "params":
			if err := n.Content[i+1].Decode(&params); err != nil {
				return nil, b.fail(n.Content[i+1], path, "params: %v", err)
			}
		case "body":
			body = n.Content[i+1]
		default:
			return nil, b.fail(n.Content[i], path, "unexpected key %q in lambda", n.Content[i].Value)
		}
	}
	if body == nil {
		return nil, b.fail(n, path, "lambda has no body")
	}
	v, err := b.build(body, sub(path, "body"))
	if err != nil {
		return nil, err
	}
	return domain.NewLambda(params, v)
}

func (b *builder) literalMapping(n *yaml.Node, path []string) (*domain.Args, error) {
	out := domain.NewArgs()
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i].Value
		v, err := b.build(n.Content[i+1], sub(path, k))
		if err != nil {
			return nil, err
		}
		out.Set(k, v)
	}
	return out, nil
}

func (b *builder) fail(n *yaml.Node, path []string, format string, args ...any) error {
	return domain.NewGraphError(domain.ErrMalformedValue, path, "line %d: %s", n.Line, fmt.Sprintf(format, args...))
}

func scalarString(n *yaml.Node) (string, error) {
	if n == nil || n.Kind != yaml.ScalarNode || n.Value == "" {
		return "", fmt.Errorf("expected a non-empty name")
	}
	return n.Value, nil
}

func sub(path []string, elem string) []string {
	return append(slices.Clone(path), elem)
}
