package query

import "strings"

// Dialect selects the SQL flavor for the few expressions that differ
// between the supported stores.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// DialectFor maps a GORM dialector name to a Dialect. Unknown names fall
// back to SQLite.
func DialectFor(name string) Dialect {
	if strings.EqualFold(name, "postgres") {
		return Postgres
	}
	return SQLite
}

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// concatAggregate joins the distinct values of col within a group with commas.
func (d Dialect) concatAggregate(col Column) string {
	if d == Postgres {
		return "string_agg(DISTINCT " + col.name + ", ',')"
	}
	return "group_concat(DISTINCT " + col.name + ")"
}

// containsExpr tests whether expr contains the next bind parameter.
func (d Dialect) containsExpr(expr string) string {
	if d == Postgres {
		return "strpos(" + expr + ", ?) > 0"
	}
	return "instr(" + expr + ", ?) > 0"
}
