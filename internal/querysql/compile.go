// Package querysql compiles condition trees to parameterized SQLite SQL.
//
// This is the preview backend: it lets the console run a filter against a
// local event table. All values are bound as parameters, never
// interpolated, and identifiers are always quoted.
package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
)

// SQLCompiler compiles condition trees to SQLite WHERE clauses.
type SQLCompiler struct {
	// QualifyColumns prefixes columns with the field's table when set.
	QualifyColumns bool
}

// NewSQLCompiler creates a compiler that emits unqualified column names.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// CompileError reports a condition the backend cannot express.
type CompileError struct {
	NodeID   filter.NodeID
	Operator filter.OperatorID
	Message  string
}

func (e *CompileError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("compile %s (node=%s): %s", e.Operator, e.NodeID, e.Message)
	}
	return fmt.Sprintf("compile %s: %s", e.Operator, e.Message)
}

// CompileWhere converts root into a WHERE fragment and its parameters.
// An empty group matches everything.
func (c *SQLCompiler) CompileWhere(root *filter.Group) (string, []any, error) {
	if root == nil {
		return "1 = 1", nil, nil
	}
	return c.compileGroup(root)
}

// CompileSelect builds a full preview query over table.
// MANDATORY: results are ordered by rowid so previews are stable.
// A limit of zero or less means no limit.
func (c *SQLCompiler) CompileSelect(table string, root *filter.Group, limit int) (string, []any, error) {
	if table == "" {
		return "", nil, fmt.Errorf("table name is required")
	}

	where, params, err := c.CompileWhere(root)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY rowid ASC", quoteIdent(table), where)
	if limit > 0 {
		sql += " LIMIT ?"
		params = append(params, limit)
	}
	return sql, params, nil
}

func (c *SQLCompiler) compileGroup(g *filter.Group) (string, []any, error) {
	if len(g.Children) == 0 {
		return "1 = 1", nil, nil
	}

	joiner := " AND "
	if g.Connector == filter.Or {
		joiner = " OR "
	}

	var sqlParts []string
	var allParams []any
	for _, child := range g.Children {
		var sql string
		var params []any
		var err error

		switch n := child.(type) {
		case *filter.Group:
			sql, params, err = c.compileGroup(n)
			sql = "(" + sql + ")"
		case *filter.Condition:
			sql, params, err = c.compileCondition(n)
		default:
			err = fmt.Errorf("unsupported node type: %T", child)
		}
		if err != nil {
			return "", nil, err
		}

		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, joiner), allParams, nil
}

func (c *SQLCompiler) compileCondition(cond *filter.Condition) (string, []any, error) {
	if cond.Field.RawName == "" {
		return "", nil, c.errorf(cond, "condition has no field")
	}
	col := c.column(cond.Field)
	v := cond.Value()

	switch cond.Operator {
	case filter.OpIsNull:
		return col + " IS NULL", nil, nil
	case filter.OpNotNull:
		return col + " IS NOT NULL", nil, nil

	case filter.OpInclude, filter.OpExclude:
		if len(v.Multi) == 0 {
			// Nothing is in the empty set; everything is outside it.
			if cond.Operator == filter.OpInclude {
				return "1 = 0", nil, nil
			}
			return "1 = 1", nil, nil
		}
		params, err := c.params(cond, v.Multi...)
		if err != nil {
			return "", nil, err
		}
		keyword := " IN ("
		if cond.Operator == filter.OpExclude {
			keyword = " NOT IN ("
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
		return col + keyword + placeholders + ")", params, nil

	case filter.OpBetween:
		if len(v.Multi) != 2 {
			return "", nil, c.errorf(cond, fmt.Sprintf("between needs exactly 2 values, got %d", len(v.Multi)))
		}
		params, err := c.params(cond, v.Multi...)
		if err != nil {
			return "", nil, err
		}
		return col + " BETWEEN ? AND ?", params, nil

	case filter.OpLike, filter.OpNotLike:
		keyword := " LIKE ? ESCAPE '\\'"
		if cond.Operator == filter.OpNotLike {
			keyword = " NOT LIKE ? ESCAPE '\\'"
		}
		return col + keyword, []any{"%" + escapeLike(v.Single) + "%"}, nil
	}

	op, ok := comparisons[cond.Operator]
	if !ok {
		return "", nil, c.errorf(cond, "unsupported operator")
	}
	params, err := c.params(cond, v.Single)
	if err != nil {
		return "", nil, err
	}
	return col + " " + op + " ?", params, nil
}

var comparisons = map[filter.OperatorID]string{
	filter.OpEqual:     "=",
	filter.OpNotEqual:  "!=",
	filter.OpLess:      "<",
	filter.OpLessEq:    "<=",
	filter.OpGreater:   ">",
	filter.OpGreaterEq: ">=",
}

// params converts value text to SQL parameters using the field type.
// Integer and float fields bind numbers; everything else binds text.
func (c *SQLCompiler) params(cond *filter.Condition, values ...string) ([]any, error) {
	out := make([]any, 0, len(values))
	for _, s := range values {
		switch strings.ToLower(cond.Field.FieldType) {
		case "int", "integer", "long", "bigint":
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, c.errorf(cond, fmt.Sprintf("%q is not an integer", s))
			}
			out = append(out, n)
		case "float", "double", "decimal":
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, c.errorf(cond, fmt.Sprintf("%q is not a number", s))
			}
			out = append(out, f)
		default:
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *SQLCompiler) column(f filter.FieldRef) string {
	if c.QualifyColumns && f.Table != "" {
		return quoteIdent(f.Table) + "." + quoteIdent(f.RawName)
	}
	return quoteIdent(f.RawName)
}

func (c *SQLCompiler) errorf(cond *filter.Condition, msg string) error {
	return &CompileError{NodeID: cond.ID, Operator: cond.Operator, Message: msg}
}

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// escapeLike escapes LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
