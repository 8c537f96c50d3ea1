package sqlexpr

import (
	"fmt"
	"strconv"
	"strings"
)

// Render converts an expression node to SQL text.
//
// Output is deterministic: binary nodes are fully parenthesized and order
// keys always spell out direction and null placement, so equal trees render
// to equal strings.
func Render(e Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("cannot render nil expression")
	}

	switch expr := e.(type) {
	case *ColumnRef:
		return renderColumnRef(expr), nil
	case *Literal:
		return renderLiteral(expr)
	case *Binary:
		return renderBinary(expr)
	case *Func:
		return renderCall(expr.Name, expr.Args)
	case *Agg:
		return renderAgg(expr)
	case *Case:
		return renderCase(expr)
	case *Cast:
		return renderCast(expr)
	case *Window:
		return renderWindow(expr)
	case *Tuple:
		return renderTuple(expr)
	default:
		return "", fmt.Errorf("unsupported expression type: %T", e)
	}
}

func renderColumnRef(c *ColumnRef) string {
	if c.Rel != "" {
		return quoteIdent(c.Rel) + "." + quoteIdent(c.Name)
	}
	return quoteIdent(c.Name)
}

func renderLiteral(l *Literal) (string, error) {
	if l.Val == nil {
		if l.Typ == TypeUnknown {
			return "NULL", nil
		}
		// Typed NULL so masking and outer joins keep column types stable.
		return fmt.Sprintf("CAST(NULL AS %s)", l.Typ), nil
	}
	switch v := l.Val.(type) {
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return formatFloat(v), nil
	case string:
		return quoteString(v), nil
	default:
		return "", fmt.Errorf("unsupported literal value type: %T", l.Val)
	}
}

// formatFloat renders a float with a decimal point or exponent so the text
// keeps REAL affinity (plain "2" would read back as an integer).
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && s != "NaN" {
		s += ".0"
	}
	return s
}

func renderBinary(b *Binary) (string, error) {
	left, err := Render(b.Left)
	if err != nil {
		return "", err
	}
	right, err := Render(b.Right)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", left, b.Op, right), nil
}

func renderCall(name string, args []Expr) (string, error) {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		s, err := Render(arg)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", ")), nil
}

func renderAgg(a *Agg) (string, error) {
	if a.Arg == nil {
		return a.Name + "(*)", nil
	}
	arg, err := Render(a.Arg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", a.Name, arg), nil
}

func renderCase(c *Case) (string, error) {
	if len(c.Whens) == 0 {
		return "", fmt.Errorf("CASE expression requires at least one WHEN branch")
	}
	var sb strings.Builder
	sb.WriteString("CASE")
	for _, w := range c.Whens {
		cond, err := Render(w.Cond)
		if err != nil {
			return "", err
		}
		result, err := Render(w.Result)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, " WHEN %s THEN %s", cond, result)
	}
	if c.Else != nil {
		elseSQL, err := Render(c.Else)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, " ELSE %s", elseSQL)
	}
	sb.WriteString(" END")
	return sb.String(), nil
}

func renderTuple(t *Tuple) (string, error) {
	if len(t.Elems) == 0 {
		return "", fmt.Errorf("tuple requires at least one element")
	}
	parts := make([]string, 0, len(t.Elems))
	for _, e := range t.Elems {
		s, err := Render(e)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, ", ") + ")", nil
}

func renderCast(c *Cast) (string, error) {
	arg, err := Render(c.Arg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CAST(%s AS %s)", arg, c.To), nil
}

func renderWindow(w *Window) (string, error) {
	fn, err := Render(w.Fn)
	if err != nil {
		return "", err
	}
	if w.Filter != nil {
		filterSQL, err := Render(w.Filter)
		if err != nil {
			return "", err
		}
		fn = fmt.Sprintf("%s FILTER (WHERE %s)", fn, filterSQL)
	}
	var clauses []string
	if len(w.PartitionBy) > 0 {
		parts := make([]string, 0, len(w.PartitionBy))
		for _, p := range w.PartitionBy {
			s, err := Render(p)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		clauses = append(clauses, "PARTITION BY "+strings.Join(parts, ", "))
	}
	if len(w.OrderBy) > 0 {
		keys, err := renderOrderKeys(w.OrderBy)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "ORDER BY "+keys)
	}
	if w.Frame != nil {
		clauses = append(clauses, renderFrame(w.Frame))
	}
	return fmt.Sprintf("%s OVER (%s)", fn, strings.Join(clauses, " ")), nil
}

func renderFrame(f *Frame) string {
	return fmt.Sprintf("ROWS BETWEEN %s AND %s",
		renderBound(f.Preceding, "PRECEDING"),
		renderBound(f.Following, "FOLLOWING"))
}

func renderBound(offset *int64, direction string) string {
	if offset == nil {
		return "UNBOUNDED " + direction
	}
	if *offset == 0 {
		return "CURRENT ROW"
	}
	return fmt.Sprintf("%d %s", *offset, direction)
}

func renderOrderKeys(keys []OrderKey) (string, error) {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		s, err := Render(k.Expr)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		nulls := "NULLS FIRST"
		if k.NullsLast {
			nulls = "NULLS LAST"
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", s, dir, nulls))
	}
	return strings.Join(parts, ", "), nil
}

// RenderRelation converts a relation node to a SQL statement or table
// reference. A Table renders to its (quoted) name; use it only inside a
// FROM clause. Select and Join render to full statements.
func RenderRelation(r Relation) (string, error) {
	if r == nil {
		return "", fmt.Errorf("cannot render nil relation")
	}

	switch rel := r.(type) {
	case *Table:
		return quoteIdent(rel.Name), nil
	case *Select:
		return renderSelect(rel)
	case *Join:
		return renderJoin(rel)
	default:
		return "", fmt.Errorf("unsupported relation type: %T", r)
	}
}

func renderSelect(s *Select) (string, error) {
	if len(s.Columns) == 0 {
		return "", fmt.Errorf("SELECT requires at least one output column")
	}

	cols := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		exprSQL, err := Render(c.Expr)
		if err != nil {
			return "", fmt.Errorf("render column %q: %w", c.Alias, err)
		}
		if c.Alias == "" {
			return "", fmt.Errorf("SELECT column has no alias: %s", exprSQL)
		}
		cols = append(cols, fmt.Sprintf("%s AS %s", exprSQL, quoteIdent(c.Alias)))
	}

	from, err := renderFromOperand(s.From)
	if err != nil {
		return "", err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), from)

	if s.Where != nil {
		whereSQL, err := Render(s.Where)
		if err != nil {
			return "", fmt.Errorf("render where: %w", err)
		}
		sql += " WHERE " + whereSQL
	}
	if len(s.GroupBy) > 0 {
		parts := make([]string, 0, len(s.GroupBy))
		for _, g := range s.GroupBy {
			gs, err := Render(g)
			if err != nil {
				return "", fmt.Errorf("render group by: %w", err)
			}
			parts = append(parts, gs)
		}
		sql += " GROUP BY " + strings.Join(parts, ", ")
	}
	if len(s.OrderBy) > 0 {
		keys, err := renderOrderKeys(s.OrderBy)
		if err != nil {
			return "", fmt.Errorf("render order by: %w", err)
		}
		sql += " ORDER BY " + keys
	}
	return sql, nil
}

func renderJoin(j *Join) (string, error) {
	left, err := renderFromOperand(j.Left)
	if err != nil {
		return "", err
	}
	right, err := renderFromOperand(j.Right)
	if err != nil {
		return "", err
	}
	if j.Kind == JoinCross {
		return fmt.Sprintf("%s CROSS JOIN %s", left, right), nil
	}
	if j.On == nil {
		return "", fmt.Errorf("%s join requires an ON condition", j.Kind)
	}
	on, err := Render(j.On)
	if err != nil {
		return "", fmt.Errorf("render join condition: %w", err)
	}
	return fmt.Sprintf("%s %s JOIN %s ON %s", left, j.Kind, right, on), nil
}

// renderFromOperand renders a relation for use inside a FROM clause.
// Derived relations become parenthesized subqueries with their alias.
func renderFromOperand(r Relation) (string, error) {
	switch rel := r.(type) {
	case *Table:
		return quoteIdent(rel.Name), nil
	case *Select:
		inner, err := renderSelect(rel)
		if err != nil {
			return "", err
		}
		if rel.Alias != "" {
			return fmt.Sprintf("(%s) AS %s", inner, quoteIdent(rel.Alias)), nil
		}
		return fmt.Sprintf("(%s)", inner), nil
	case *Join:
		return renderJoin(rel)
	case nil:
		return "", fmt.Errorf("cannot render nil relation")
	default:
		return "", fmt.Errorf("unsupported relation type: %T", r)
	}
}

// quoteIdent quotes an identifier unless it is a plain lower_snake name.
func quoteIdent(name string) string {
	plain := name != ""
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			continue
		}
		plain = false
		break
	}
	if plain && (name[0] < '0' || name[0] > '9') {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteString renders a string literal with single-quote doubling.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
