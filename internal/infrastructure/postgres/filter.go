package postgres

import (
	"fmt"
	"strings"

	"vn.io.arda/notify/internal/query"
)

// columns maps filter fields to notifications columns.
var columns = map[string]string{
	"id":                       "id",
	"recipientId":              "recipient_id",
	"eventConfigName":          "event_config_name",
	"lang":                     "lang",
	"text":                     "text",
	"link":                     "link",
	"seen":                     "seen",
	"metadata.createdDate":     "created_date",
	"metadata.updatedDate":     "updated_date",
	"metadata.createdByUserId": "created_by_user_id",
	"metadata.updatedByUserId": "updated_by_user_id",
}

// predicate accumulates positional arguments while compiling a filter.
type predicate struct {
	args []any
}

func (p *predicate) bind(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

// where returns "tenant_key = $1" optionally AND-ed with the compiled filter.
func (p *predicate) where(tenant string, filter query.Expr) (string, error) {
	clause := "tenant_key = " + p.bind(tenant)
	if filter == nil {
		return clause, nil
	}
	compiled, err := p.compile(filter)
	if err != nil {
		return "", err
	}
	return clause + " AND " + compiled, nil
}

func (p *predicate) compile(e query.Expr) (string, error) {
	switch n := e.(type) {
	case *query.Binary:
		left, err := p.compile(n.Left)
		if err != nil {
			return "", err
		}
		right, err := p.compile(n.Right)
		if err != nil {
			return "", err
		}
		switch n.Op {
		case query.And:
			return "(" + left + " AND " + right + ")", nil
		case query.Or:
			return "(" + left + " OR " + right + ")", nil
		case query.Not:
			return "(" + left + " AND NOT " + right + ")", nil
		}
		return "", fmt.Errorf("unsupported boolean operator %q", n.Op)
	case *query.Comparison:
		return p.comparison(n)
	}
	return "", fmt.Errorf("unsupported filter node %T", e)
}

func (p *predicate) comparison(c *query.Comparison) (string, error) {
	col, ok := columns[c.Field]
	if !ok {
		return "", &query.FieldError{Field: c.Field, Reason: "unknown field"}
	}
	literal := query.Unescape(c.Value)

	switch c.Type {
	case query.TypeText:
		switch c.Op {
		case query.OpMatch:
			return col + " ILIKE " + p.bind(query.LikePattern(c.Value)), nil
		case query.OpExact:
			return col + " = " + p.bind(literal), nil
		case query.OpNotEq:
			return col + " IS DISTINCT FROM " + p.bind(literal), nil
		}
	case query.TypeUUID:
		switch c.Op {
		case query.OpMatch, query.OpExact:
			return col + " = " + p.bind(literal), nil
		case query.OpNotEq:
			return col + " <> " + p.bind(literal), nil
		}
	case query.TypeBool:
		v := strings.EqualFold(literal, "true")
		switch c.Op {
		case query.OpMatch, query.OpExact:
			return col + " = " + p.bind(v), nil
		case query.OpNotEq:
			return col + " <> " + p.bind(v), nil
		}
	case query.TypeDate:
		t, err := query.ParseDate(literal)
		if err != nil {
			return "", &query.FieldError{Field: c.Field, Reason: "invalid date"}
		}
		op := string(c.Op)
		if c.Op == query.OpMatch || c.Op == query.OpExact {
			op = "="
		}
		return col + " " + op + " " + p.bind(t), nil
	}
	return "", &query.FieldError{Field: c.Field, Reason: fmt.Sprintf("relation %s not supported", c.Op)}
}
