package query

import (
	"strings"
)

// Op is a comparison selected by the prefix of a filter value.
type Op int

// Filter operators.
const (
	OpEq Op = iota
	OpNe
	OpLe
	OpGe
	OpLt
	OpGt
	OpLike
	OpNotLike
)

var opSQL = map[Op]string{
	OpEq:      "=",
	OpNe:      "<>",
	OpLe:      "<=",
	OpGe:      ">=",
	OpLt:      "<",
	OpGt:      ">",
	OpLike:    "LIKE",
	OpNotLike: "NOT LIKE",
}

// Term is one operator and its operand.
type Term struct {
	Op      Op
	Operand string
}

// Negated reports whether the term excludes matches.
func (t Term) Negated() bool {
	return t.Op == OpNe || t.Op == OpNotLike
}

// Positive returns the term with negation removed.
func (t Term) Positive() Term {
	switch t.Op {
	case OpNe:
		return Term{Op: OpEq, Operand: t.Operand}
	case OpNotLike:
		return Term{Op: OpLike, Operand: t.Operand}
	}
	return t
}

// Condition renders the term against column with a single placeholder.
func (t Term) Condition(column string, bind func(string) any) (string, any) {
	return column + " " + opSQL[t.Op] + " ?", bind(t.Operand)
}

// Expr is a filter value: one or more terms joined by OR or AND.
type Expr struct {
	Or    bool
	Terms []Term
}

// ParseFilter reads a filter value. "a || b" matches either term and
// "a && b" matches both. Each term may carry one operator prefix:
// "!" (not equal), "<=", ">=", "<", ">". A term starting or ending with
// "%" is a pattern; "!%x%" is a negated pattern.
func ParseFilter(value string) Expr {
	var e Expr
	var parts []string
	switch {
	case strings.Contains(value, "||"):
		e.Or = true
		parts = strings.Split(value, "||")
	case strings.Contains(value, "&&"):
		parts = strings.Split(value, "&&")
	default:
		parts = []string{value}
	}
	for _, p := range parts {
		e.Terms = append(e.Terms, parseTerm(strings.TrimSpace(p)))
	}
	return e
}

func parseTerm(s string) Term {
	for _, pre := range []struct {
		prefix string
		op     Op
	}{
		{"<=", OpLe},
		{">=", OpGe},
		{"<", OpLt},
		{">", OpGt},
	} {
		if rest, ok := strings.CutPrefix(s, pre.prefix); ok {
			return Term{Op: pre.op, Operand: strings.TrimSpace(rest)}
		}
	}
	if rest, ok := strings.CutPrefix(s, "!"); ok {
		rest = strings.TrimSpace(rest)
		if isPattern(rest) {
			return Term{Op: OpNotLike, Operand: rest}
		}
		return Term{Op: OpNe, Operand: rest}
	}
	if isPattern(s) {
		return Term{Op: OpLike, Operand: s}
	}
	return Term{Op: OpEq, Operand: s}
}

func isPattern(s string) bool {
	return strings.HasPrefix(s, "%") || strings.HasSuffix(s, "%")
}

// predicate joins per-term conditions into one parenthesized predicate.
func (e Expr) predicate(render func(Term) (string, []any)) (string, []any) {
	conds := make([]string, 0, len(e.Terms))
	var args []any
	for _, t := range e.Terms {
		c, a := render(t)
		conds = append(conds, c)
		args = append(args, a...)
	}
	if len(conds) == 1 {
		return conds[0], args
	}
	sep := " AND "
	if e.Or {
		sep = " OR "
	}
	return "(" + strings.Join(conds, sep) + ")", args
}
