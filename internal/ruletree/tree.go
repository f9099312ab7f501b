package ruletree

// NodeKind is the `type` discriminator of a tree node.
type NodeKind string

const (
	KindGroup     NodeKind = "group"
	KindRuleGroup NodeKind = "rule_group"
	KindRule      NodeKind = "rule"
)

// Value source tags, one per rule value slot.
const (
	SrcValue = "value"
	SrcField = "field"
	SrcFunc  = "func"
)

// Conjunctions understood by the compiler.
const (
	ConjAnd = "AND"
	ConjOr  = "OR"
	ConjNot = "NOT"
)

// Node is a sealed interface over the two tree node kinds.
//
// Node types:
//   - *Group: conjunction over ordered children (group and rule_group)
//   - *Rule: a single field comparison
type Node interface {
	NodeID() string
	treeNode() // Marker method - seals interface to this package
}

// Group combines its children with a conjunction.
//
// Not negates the whole group. Children keep the order of the source
// document. A group without children compiles to nothing.
type Group struct {
	ID          string
	Kind        NodeKind // KindGroup or KindRuleGroup
	Conjunction string   // AND, OR, NOT; empty means AND
	Not         bool
	Field       string // rule_group only: the field the children are scoped to
	Children    []Node
}

func (g *Group) NodeID() string { return g.ID }
func (*Group) treeNode()        {}

// Rule is a single comparison of a field against one or more value slots.
//
// Values, ValueSrc and ValueType are index aligned. Field or Operator are
// empty while the rule is still being edited.
type Rule struct {
	ID        string
	Field     string
	Operator  string
	Values    []Value
	ValueSrc  []string
	ValueType []string
}

func (r *Rule) NodeID() string { return r.ID }
func (*Rule) treeNode()        {}

// Slot returns the value, its source and its declared type for slot i.
// A missing source defaults to SrcValue and a missing value to Null.
func (r *Rule) Slot(i int) (Value, string, string) {
	var (
		v   Value = Null{}
		src       = SrcValue
		typ string
	)
	if i < len(r.Values) && r.Values[i] != nil {
		v = r.Values[i]
	}
	if i < len(r.ValueSrc) && r.ValueSrc[i] != "" {
		src = r.ValueSrc[i]
	}
	if i < len(r.ValueType) {
		typ = r.ValueType[i]
	}
	return v, src, typ
}

// SlotCount returns the number of value slots, the longest of the three
// parallel sequences.
func (r *Rule) SlotCount() int {
	n := len(r.Values)
	if len(r.ValueSrc) > n {
		n = len(r.ValueSrc)
	}
	if len(r.ValueType) > n {
		n = len(r.ValueType)
	}
	return n
}

// HasFuncSource reports whether any slot is sourced from a computed
// expression, either by its source tag or by holding a Func placeholder.
func (r *Rule) HasFuncSource() bool {
	for i := 0; i < r.SlotCount(); i++ {
		v, src, _ := r.Slot(i)
		if src == SrcFunc {
			return true
		}
		if _, ok := v.(Func); ok {
			return true
		}
	}
	return false
}

// NewGroup builds a group node. Mostly useful in tests and for callers that
// assemble trees programmatically.
func NewGroup(conjunction string, children ...Node) *Group {
	return &Group{
		Kind:        KindGroup,
		Conjunction: conjunction,
		Children:    children,
	}
}

// Negate marks the group as negated and returns it.
func (g *Group) Negate() *Group {
	g.Not = true
	return g
}

// NewRule builds a rule whose slots are all literal values.
func NewRule(field, operator string, values ...Value) *Rule {
	src := make([]string, len(values))
	for i := range src {
		src[i] = SrcValue
	}
	return &Rule{
		Field:     field,
		Operator:  operator,
		Values:    values,
		ValueSrc:  src,
		ValueType: make([]string, len(values)),
	}
}

// Typed sets the declared type of every slot and returns the rule.
func (r *Rule) Typed(valueType string) *Rule {
	r.ValueType = make([]string, len(r.Values))
	for i := range r.ValueType {
		r.ValueType[i] = valueType
	}
	return r
}

// Stats counts the groups and rules in a tree.
type Stats struct {
	Groups int
	Rules  int
	Depth  int
}

// Count walks the tree and returns its Stats.
func Count(n Node) Stats {
	var s Stats
	count(n, 1, &s)
	return s
}

func count(n Node, depth int, s *Stats) {
	if n == nil {
		return
	}
	if depth > s.Depth {
		s.Depth = depth
	}
	switch node := n.(type) {
	case *Group:
		s.Groups++
		for _, child := range node.Children {
			count(child, depth+1, s)
		}
	case *Rule:
		s.Rules++
	}
}
