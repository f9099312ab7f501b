package ruletree

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError reports a malformed tree document.
type ParseError struct {
	Path    string // dotted location inside the document, e.g. "children1.r1.properties"
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("ruletree: %s (line %d): %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("ruletree: %s: %s", e.Path, e.Message)
}

// Parse decodes a rule tree from JSON or YAML. JSON input is accepted
// because every JSON document is valid YAML 1.2.
func Parse(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: "$", Message: err.Error()}
	}
	return Decode(&doc)
}

// ParseFile reads and decodes a rule tree file.
func ParseFile(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree file: %w", err)
	}
	return Parse(data)
}

// Decode converts an already parsed YAML node into a tree. Callers that
// embed a tree inside a larger YAML document (scenario files) use this to
// keep child ordering intact.
func Decode(n *yaml.Node) (Node, error) {
	n = resolve(n)
	if n == nil {
		return nil, &ParseError{Path: "$", Message: "empty document"}
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil, &ParseError{Path: "$", Message: "empty document"}
		}
		n = resolve(n.Content[0])
	}
	return decodeNode(n, "$", "")
}

func decodeNode(n *yaml.Node, path, id string) (Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errAt(n, path, "node must be an object")
	}

	if idNode := lookup(n, "id"); idNode != nil && isScalar(idNode) {
		id = idNode.Value
	}

	props := lookup(n, "properties")
	if props != nil && !isNull(props) && props.Kind != yaml.MappingNode {
		return nil, errAt(props, path+".properties", "properties must be an object")
	}

	kind := NodeKind(scalarString(lookup(n, "type")))
	if kind == "" && lookup(n, "children1") != nil {
		kind = KindGroup
	}

	switch kind {
	case KindGroup, KindRuleGroup:
		return decodeGroup(n, props, path, id, kind)
	case KindRule:
		return decodeRule(props, path, id)
	case "":
		return nil, errAt(n, path, "missing node type")
	default:
		return nil, errAt(n, path, fmt.Sprintf("unknown node type %q", kind))
	}
}

func decodeGroup(n, props *yaml.Node, path, id string, kind NodeKind) (*Group, error) {
	g := &Group{ID: id, Kind: kind}

	if props != nil && props.Kind == yaml.MappingNode {
		g.Conjunction = strings.ToUpper(scalarString(lookup(props, "conjunction")))
		g.Field = scalarString(lookup(props, "field"))
		if notNode := lookup(props, "not"); notNode != nil && !isNull(notNode) {
			b, err := strconv.ParseBool(notNode.Value)
			if err != nil || notNode.Kind != yaml.ScalarNode {
				return nil, errAt(notNode, path+".properties.not", "not must be a boolean")
			}
			g.Not = b
		}
	}

	children := resolve(lookup(n, "children1"))
	if children == nil || isNull(children) {
		return g, nil
	}

	switch children.Kind {
	case yaml.MappingNode:
		// Ordered mapping: keys are child ids, in document order.
		for i := 0; i+1 < len(children.Content); i += 2 {
			key := children.Content[i].Value
			child, err := decodeNode(resolve(children.Content[i+1]), path+".children1."+key, key)
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, child)
		}
	case yaml.SequenceNode:
		for i, item := range children.Content {
			child, err := decodeNode(resolve(item), fmt.Sprintf("%s.children1[%d]", path, i), "")
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, child)
		}
	default:
		return nil, errAt(children, path+".children1", "children1 must be an object or a list")
	}

	return g, nil
}

func decodeRule(props *yaml.Node, path, id string) (*Rule, error) {
	r := &Rule{ID: id}
	if props == nil || props.Kind != yaml.MappingNode {
		// A freshly added rule has no properties yet.
		return r, nil
	}

	r.Field = scalarString(lookup(props, "field"))
	r.Operator = scalarString(lookup(props, "operator"))

	if valuesNode := resolve(lookup(props, "value")); valuesNode != nil && !isNull(valuesNode) {
		if valuesNode.Kind != yaml.SequenceNode {
			return nil, errAt(valuesNode, path+".properties.value", "value must be a list")
		}
		for i, item := range valuesNode.Content {
			v, err := decodeValue(resolve(item), fmt.Sprintf("%s.properties.value[%d]", path, i))
			if err != nil {
				return nil, err
			}
			r.Values = append(r.Values, v)
		}
	}

	var err error
	if r.ValueSrc, err = stringList(lookup(props, "valueSrc"), path+".properties.valueSrc"); err != nil {
		return nil, err
	}
	if r.ValueType, err = stringList(lookup(props, "valueType"), path+".properties.valueType"); err != nil {
		return nil, err
	}

	return r, nil
}

// decodeValue converts a YAML node into a Value.
func decodeValue(n *yaml.Node, path string) (Value, error) {
	if n == nil {
		return Null{}, nil
	}

	switch n.Kind {
	case yaml.ScalarNode:
		return decodeScalar(n, path)

	case yaml.SequenceNode:
		list := make(List, 0, len(n.Content))
		for i, item := range n.Content {
			v, err := decodeValue(resolve(item), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil

	case yaml.MappingNode:
		obj := make(Object, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			v, err := decodeValue(resolve(n.Content[i+1]), path+"."+key)
			if err != nil {
				return nil, err
			}
			obj[key] = v
		}
		// {func: NAME, args: {...}} is the builder's computed value placeholder.
		if name, ok := obj["func"].(String); ok {
			f := Func{Name: string(name), Args: map[string]Value{}}
			if args, ok := obj["args"].(Object); ok {
				for k, v := range args {
					f.Args[k] = v
				}
			}
			return f, nil
		}
		return obj, nil

	default:
		return nil, errAt(n, path, "unsupported value")
	}
}

func decodeScalar(n *yaml.Node, path string) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			// YAML 1.1 spellings (yes/no/on/off) are tagged !!bool too.
			return String(n.Value), nil
		}
		return Bool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(n.Value, 64)
			if ferr != nil {
				return nil, errAt(n, path, fmt.Sprintf("invalid number %q", n.Value))
			}
			return Float(f), nil
		}
		return Int(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, errAt(n, path, fmt.Sprintf("invalid number %q", n.Value))
		}
		if f == math.Trunc(f) && !strings.ContainsAny(n.Value, ".eE") {
			return Int(int64(f)), nil
		}
		return Float(f), nil
	default:
		return String(n.Value), nil
	}
}

func stringList(n *yaml.Node, path string) ([]string, error) {
	n = resolve(n)
	if n == nil || isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, errAt(n, path, "must be a list of strings")
	}
	out := make([]string, len(n.Content))
	for i, item := range n.Content {
		out[i] = scalarString(resolve(item))
	}
	return out, nil
}

// lookup returns the value node for key in a mapping node, or nil.
func lookup(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolve(n.Content[i+1])
		}
	}
	return nil
}

// resolve follows YAML aliases.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isScalar(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && !isNull(n)
}

func isNull(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// scalarString returns the scalar text of n, or "" for null and non-scalars.
func scalarString(n *yaml.Node) string {
	if !isScalar(n) {
		return ""
	}
	return n.Value
}

func errAt(n *yaml.Node, path, msg string) *ParseError {
	line := 0
	if n != nil {
		line = n.Line
	}
	return &ParseError{Path: path, Line: line, Message: msg}
}
