// Package query implements the filter expression language accepted by the notification
// listing endpoints, and quoting helpers for queries sent to remote modules.
//
// The language is a small CQL subset:
//
//	seen=false and (text=urgent or link=*users*)
//	recipientId==77777777-7777-7777-7777-777777777777
//	metadata.updatedDate<2024-01-01
//
// Parsing validates field names and value types against a Schema; compiling the
// resulting Expr into a storage predicate is left to the store.
package query

// FieldType decides which operators and values a field accepts.
type FieldType int

const (
	TypeText FieldType = iota
	TypeUUID
	TypeBool
	TypeDate
)

// Schema maps filterable field names to their types.
type Schema map[string]FieldType

// Op is a comparison operator.
type Op string

const (
	OpMatch Op = "="
	OpExact Op = "=="
	OpNotEq Op = "<>"
	OpLT    Op = "<"
	OpLE    Op = "<="
	OpGT    Op = ">"
	OpGE    Op = ">="
)

// BoolOp combines two expressions.
type BoolOp string

const (
	And BoolOp = "and"
	Or  BoolOp = "or"
	// Not is binary, as in CQL: "a not b" means a AND NOT b.
	Not BoolOp = "not"
)

// Expr is a node of a parsed filter.
type Expr interface {
	expr()
}

// Comparison is a single "field op value" clause. Value keeps CQL escapes
// (backslash sequences) so wildcard characters can be told apart from literals.
type Comparison struct {
	Field string
	Type  FieldType
	Op    Op
	Value string
}

// Binary joins two sub-expressions.
type Binary struct {
	Op    BoolOp
	Left  Expr
	Right Expr
}

func (*Comparison) expr() {}
func (*Binary) expr()     {}

// Cmp builds a Comparison for code-constructed filters. value is taken literally.
func Cmp(field string, typ FieldType, op Op, value string) Expr {
	return &Comparison{Field: field, Type: typ, Op: op, Value: Escape(value)}
}

// AllOf joins the non-nil expressions with "and". It returns nil when none remain.
func AllOf(exprs ...Expr) Expr {
	var out Expr
	for _, e := range exprs {
		if e == nil {
			continue
		}
		if out == nil {
			out = e
			continue
		}
		out = &Binary{Op: And, Left: out, Right: e}
	}
	return out
}
