// Package query turns catalog filters and sort orders into parameterized SQL.
// Columns and operators come from closed sets defined here; every filter
// value travels as a bind parameter.
package query

import (
	"strings"
)

// Column is a filterable or sortable catalog column. Values can only be
// obtained from the package-level variables below.
type Column struct {
	name string
}

func (c Column) String() string {
	return c.name
}

var (
	ProductID       = Column{"product.id"}
	Title           = Column{"product.title"}
	Vendor          = Column{"product.vendor"}
	Price           = Column{"product.price"}
	GroundClearance = Column{"product.ground_clearance"}
	WeightCapacity  = Column{"product.weight_capacity"}
	TurningRadius   = Column{"product.turning_radius"}
	TravelRange     = Column{"product.travel_range"}
	MaxSpeed        = Column{"product.max_speed"}
	Wheels          = Column{"product.wheels"}
	PublishedAt     = Column{"product.published_at_unix_ms"}
	SalesRank       = Column{"product.sales_rank"}
	CategoryID      = Column{"product_category.category_id"}
	ColorValue      = Column{"color.color"}
)

type operator string

const (
	opEq    operator = "="
	opNotEq operator = "<>"
	opGte   operator = ">="
	opLte   operator = "<="
)

// Predicate is a node of a boolean expression tree.
type Predicate interface {
	// render appends SQL to sb and returns args extended with the node's
	// parameters, in placeholder order.
	render(sb *strings.Builder, args []any, d Dialect) []any
	empty() bool
}

type comparison struct {
	col   Column
	op    operator
	value any
}

func (c comparison) render(sb *strings.Builder, args []any, _ Dialect) []any {
	sb.WriteString(c.col.name)
	sb.WriteByte(' ')
	sb.WriteString(string(c.op))
	sb.WriteString(" ?")
	return append(args, c.value)
}

func (comparison) empty() bool { return false }

func Eq(col Column, value any) Predicate    { return comparison{col, opEq, value} }
func NotEq(col Column, value any) Predicate { return comparison{col, opNotEq, value} }
func Gte(col Column, value any) Predicate   { return comparison{col, opGte, value} }
func Lte(col Column, value any) Predicate   { return comparison{col, opLte, value} }

type membership struct {
	col    Column
	values []any
}

// In matches rows whose column equals any of values. No values yields an
// empty predicate.
func In[T any](col Column, values []T) Predicate {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return membership{col: col, values: out}
}

func (m membership) render(sb *strings.Builder, args []any, _ Dialect) []any {
	sb.WriteString(m.col.name)
	sb.WriteString(" IN (")
	for i := range m.values {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('?')
	}
	sb.WriteByte(')')
	return append(args, m.values...)
}

func (m membership) empty() bool { return len(m.values) == 0 }

type containsFold struct {
	col    Column
	needle string
}

// ContainsFold is a case-insensitive substring match. LIKE wildcards in
// needle match literally.
func ContainsFold(col Column, needle string) Predicate {
	return containsFold{col: col, needle: needle}
}

func (c containsFold) render(sb *strings.Builder, args []any, _ Dialect) []any {
	sb.WriteString("LOWER(")
	sb.WriteString(c.col.name)
	sb.WriteString(") LIKE LOWER(?) ESCAPE '\\'")
	return append(args, "%"+escapeLike(c.needle)+"%")
}

func (c containsFold) empty() bool { return c.needle == "" }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type aggregateContainsAny struct {
	col     Column
	needles []string
}

// AggregateContainsAny matches groups whose concatenated column values
// contain any of needles as a case-sensitive substring. It belongs in a
// HAVING clause.
func AggregateContainsAny(col Column, needles []string) Predicate {
	return aggregateContainsAny{col: col, needles: needles}
}

func (a aggregateContainsAny) render(sb *strings.Builder, args []any, d Dialect) []any {
	agg := d.concatAggregate(a.col)
	sb.WriteByte('(')
	for i, needle := range a.needles {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString(d.containsExpr(agg))
		args = append(args, needle)
	}
	sb.WriteByte(')')
	return args
}

func (a aggregateContainsAny) empty() bool { return len(a.needles) == 0 }

type junction struct {
	glue  string
	nodes []Predicate
}

// And joins the non-empty predicates with AND.
func And(nodes ...Predicate) Predicate {
	return junction{glue: " AND ", nodes: nodes}
}

// Or joins the non-empty predicates with OR.
func Or(nodes ...Predicate) Predicate {
	return junction{glue: " OR ", nodes: nodes}
}

func (j junction) live() []Predicate {
	out := make([]Predicate, 0, len(j.nodes))
	for _, n := range j.nodes {
		if n != nil && !n.empty() {
			out = append(out, n)
		}
	}
	return out
}

func (j junction) render(sb *strings.Builder, args []any, d Dialect) []any {
	nodes := j.live()
	if len(nodes) == 1 {
		return nodes[0].render(sb, args, d)
	}
	sb.WriteByte('(')
	for i, n := range nodes {
		if i > 0 {
			sb.WriteString(j.glue)
		}
		args = n.render(sb, args, d)
	}
	sb.WriteByte(')')
	return args
}

func (j junction) empty() bool { return len(j.live()) == 0 }

// Render returns the SQL text of p and its parameters. An empty predicate
// renders as "".
func Render(p Predicate, d Dialect) (string, []any) {
	if p == nil || p.empty() {
		return "", nil
	}
	var sb strings.Builder
	args := p.render(&sb, nil, d)
	return sb.String(), args
}

func clause(keyword string, p Predicate, d Dialect) (string, []any) {
	text, args := Render(p, d)
	if text == "" {
		return "", nil
	}
	return " " + keyword + " " + text, args
}
