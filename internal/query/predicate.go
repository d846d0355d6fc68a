package query

import (
	"fmt"
	"strings"
)

// Predicate is a filter expression understood by the persistence layer.
// Implementations render themselves as PostgreSQL boolean expressions using
// positional parameters ($1, $2, ...).
type Predicate interface {
	appendSQL(args *Args) string
}

// Args accumulates positional parameters while a predicate is rendered.
type Args struct {
	values []interface{}
}

// NewArgs returns an Args pre-loaded with initial, so that placeholders
// produced afterwards continue from $len(initial)+1.
func NewArgs(initial ...interface{}) *Args {
	return &Args{values: append([]interface{}{}, initial...)}
}

// Add binds v and returns its placeholder.
func (a *Args) Add(v interface{}) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

// Values returns the bound parameters in placeholder order.
func (a *Args) Values() []interface{} {
	return a.values
}

// Len returns the number of bound parameters.
func (a *Args) Len() int {
	return len(a.values)
}

// Eq matches rows whose Field equals Value.
type Eq struct {
	Field string
	Value interface{}
}

func (p Eq) appendSQL(args *Args) string {
	return fmt.Sprintf("%s = %s", p.Field, args.Add(p.Value))
}

// Ne matches rows whose Field differs from Value.
type Ne struct {
	Field string
	Value interface{}
}

func (p Ne) appendSQL(args *Args) string {
	return fmt.Sprintf("%s <> %s", p.Field, args.Add(p.Value))
}

// Range matches rows whose Field lies in the closed interval [Min, Max].
// Bounds are passed through as given; an inverted range simply matches nothing.
type Range struct {
	Field string
	Min   float64
	Max   float64
}

func (p Range) appendSQL(args *Args) string {
	return fmt.Sprintf("(%s >= %s AND %s <= %s)", p.Field, args.Add(p.Min), p.Field, args.Add(p.Max))
}

// Regex matches rows whose Field matches Pattern, ignoring case.
type Regex struct {
	Field   string
	Pattern string
}

func (p Regex) appendSQL(args *Args) string {
	return fmt.Sprintf("%s ~* %s", p.Field, args.Add(p.Pattern))
}

// And matches rows satisfying every child. An empty And matches everything.
type And []Predicate

func (p And) appendSQL(args *Args) string {
	if len(p) == 0 {
		return "TRUE"
	}
	return join(p, " AND ", args)
}

// Or matches rows satisfying at least one child. An empty Or matches nothing.
type Or []Predicate

func (p Or) appendSQL(args *Args) string {
	if len(p) == 0 {
		return "FALSE"
	}
	return join(p, " OR ", args)
}

func join(children []Predicate, sep string, args *Args) string {
	if len(children) == 1 {
		return children[0].appendSQL(args)
	}
	parts := make([]string, 0, len(children))
	for _, child := range children {
		parts = append(parts, child.appendSQL(args))
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Where renders p as a WHERE clause (including the keyword), binding its
// parameters into args. A nil predicate renders as an empty string.
func Where(p Predicate, args *Args) string {
	if p == nil {
		return ""
	}
	if and, ok := p.(And); ok && len(and) == 0 {
		return ""
	}
	return "WHERE " + p.appendSQL(args)
}

// SQL renders p on its own, starting parameters at $1.
func SQL(p Predicate) (string, []interface{}) {
	args := NewArgs()
	if p == nil {
		return "TRUE", nil
	}
	return p.appendSQL(args), args.Values()
}
