// Package filter translates AIP-160 card filters into SQL WHERE fragments.
package filter

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// CardDeclarations returns the identifiers a card filter may reference.
func CardDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("name", filtering.TypeString),
		filtering.DeclareIdent("name_en", filtering.TypeString),
		filtering.DeclareIdent("elixir_cost", filtering.TypeInt),
		filtering.DeclareIdent("type", filtering.TypeString),
		filtering.DeclareIdent("rarity", filtering.TypeString),
		filtering.DeclareIdent("hitpoints", filtering.TypeInt),
		filtering.DeclareIdent("damage", filtering.TypeInt),
	)
}

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "elixir_cost <= $1").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// Empty reports whether the condition filters nothing.
func (c SQLCondition) Empty() bool {
	return strings.TrimSpace(c.Clause) == ""
}

// Placeholder renders the n-th (1-based) bind parameter for a SQL dialect.
type Placeholder func(n int) string

// Question renders SQLite-style "?" placeholders.
func Question(int) string { return "?" }

// Dollar renders Postgres-style "$n" placeholders.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// cardColumns maps filter identifiers to card columns.
var cardColumns = map[string]string{
	"name":        "name",
	"name_en":     "name_en",
	"elixir_cost": "elixir_cost",
	"type":        "type",
	"rarity":      "rarity",
	"hitpoints":   "hitpoints",
	"damage":      "damage",
}

// ParseCardFilter parses an AIP-160 filter and returns a SQL condition whose
// placeholders are numbered from 1. An empty filter yields an empty
// condition. Failures carry CodeInvalidFilter.
func ParseCardFilter(filterStr string, placeholder Placeholder) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}
	if placeholder == nil {
		placeholder = Question
	}

	decls, err := CardDeclarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}

	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, invalid(err)
	}

	t := &translator{placeholder: placeholder}
	cond, err := t.translateExpr(parsed.CheckedExpr.GetExpr())
	if err != nil {
		return SQLCondition{}, invalid(err)
	}
	return cond, nil
}

func invalid(cause error) error {
	return &apperrors.Error{
		Code:     apperrors.CodeInvalidFilter,
		Message:  "invalid filter: " + cause.Error(),
		Metadata: map[string]string{"Detail": cause.Error()},
		Cause:    cause,
	}
}

type translator struct {
	placeholder Placeholder
	params      int
}

func (t *translator) translateExpr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return t.translateCall(kind.CallExpr)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func (t *translator) translateCall(call *expr.Expr_Call) (SQLCondition, error) {
	switch call.Function {
	case "_&&_", "AND":
		return t.translateJunction(call.Args, "AND")
	case "_||_", "OR":
		return t.translateJunction(call.Args, "OR")
	case "_==_", "=":
		return t.translateComparison(call.Args, "=")
	case "_!=_", "!=":
		return t.translateComparison(call.Args, "!=")
	case "_<_", "<":
		return t.translateComparison(call.Args, "<")
	case "_<=_", "<=":
		return t.translateComparison(call.Args, "<=")
	case "_>_", ">":
		return t.translateComparison(call.Args, ">")
	case "_>=_", ">=":
		return t.translateComparison(call.Args, ">=")
	default:
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func (t *translator) translateJunction(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) < 2 {
		return SQLCondition{}, fmt.Errorf("%s requires at least 2 arguments", op)
	}

	clauses := make([]string, 0, len(args))
	var params []any
	for _, arg := range args {
		cond, err := t.translateExpr(arg)
		if err != nil {
			return SQLCondition{}, err
		}
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}

	return SQLCondition{
		Clause: "(" + strings.Join(clauses, " "+op+" ") + ")",
		Params: params,
	}, nil
}

func (t *translator) translateComparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return SQLCondition{}, err
	}

	column, ok := cardColumns[field]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", field)
	}

	value, err := extractValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}

	t.params++
	return SQLCondition{
		Clause: fmt.Sprintf("%s %s %s", column, op, t.placeholder(t.params)),
		Params: []any{value},
	}, nil
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	kind, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return nil, fmt.Errorf("expected constant, got %T", e.ExprKind)
	}
	switch value := kind.ConstExpr.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return value.StringValue, nil
	case *expr.Constant_Int64Value:
		return value.Int64Value, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", value)
	}
}
