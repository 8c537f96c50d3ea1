package cli

import (
	"fmt"

	"github.com/roach88/sqlframe/internal/core"
	"github.com/roach88/sqlframe/internal/dtypes"
	"github.com/roach88/sqlframe/internal/ops"
	"github.com/roach88/sqlframe/internal/ordering"
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// Operator registries, keyed by the names jobs use.
var (
	unaryOps = map[string]ops.UnaryOp{
		"abs":     ops.AbsOp{},
		"neg":     ops.NegOp{},
		"not":     ops.NotOp{},
		"isnull":  ops.IsNullOp{},
		"notnull": ops.NotNullOp{},
		"len":     ops.LenOp{},
		"reverse": ops.ReverseOp{},
		"lower":   ops.LowerOp{},
		"upper":   ops.UpperOp{},
		"strip":   ops.StripOp{},
	}

	binaryOps = map[string]ops.BinaryOp{
		"add":      ops.AddOp{},
		"sub":      ops.SubOp{},
		"mul":      ops.MulOp{},
		"div":      ops.DivOp{},
		"floordiv": ops.FloorDivOp{},
		"mod":      ops.ModOp{},
		"and":      ops.AndOp{},
		"or":       ops.OrOp{},
		"lt":       ops.LtOp{},
		"le":       ops.LeOp{},
		"gt":       ops.GtOp{},
		"ge":       ops.GeOp{},
		"eq":       ops.EqOp{},
		"ne":       ops.NeOp{},
		"fillna":   ops.FillNaOp{},
	}

	aggregateOps = map[string]ops.AggregateOp{
		"sum":     ops.SumOp{},
		"mean":    ops.MeanOp{},
		"product": ops.ProductOp{},
		"max":     ops.MaxOp{},
		"min":     ops.MinOp{},
		"std":     ops.StdOp{},
		"var":     ops.VarOp{},
		"count":   ops.CountOp{},
		"all":     ops.AllOp{},
		"any":     ops.AnyOp{},
	}
)

// declaredTable builds the base relation from the schema declared in the
// job file. compile uses this; run introspects the database instead.
func declaredTable(spec TableSpec) (*sqlexpr.Table, error) {
	if len(spec.Columns) == 0 {
		return nil, &LoadError{
			Code:    ErrCodeNoSchema,
			Message: fmt.Sprintf("table %q declares no columns; compile requires a declared schema", spec.Name),
		}
	}
	cols := make([]sqlexpr.Column, 0, len(spec.Columns))
	for _, c := range spec.Columns {
		typ, err := backendTypeByName(c.Type)
		if err != nil {
			return nil, err
		}
		cols = append(cols, sqlexpr.Column{Name: c.Name, Typ: typ})
	}
	return &sqlexpr.Table{Name: spec.Name, Columns: cols}, nil
}

func backendTypeByName(name string) (sqlexpr.Type, error) {
	for _, t := range []sqlexpr.Type{
		sqlexpr.TypeBool, sqlexpr.TypeInt64, sqlexpr.TypeFloat64,
		sqlexpr.TypeString, sqlexpr.TypeBytes, sqlexpr.TypeDate,
		sqlexpr.TypeTime, sqlexpr.TypeTimestamp, sqlexpr.TypeTimestampTZ,
		sqlexpr.TypeNumeric,
	} {
		if t.String() == name {
			return t, nil
		}
	}
	return sqlexpr.TypeUnknown, &LoadError{
		Code:    ErrCodeBadType,
		Message: fmt.Sprintf("unknown column type %q", name),
	}
}

// applyJob runs the job's pipeline over the base table: derive, filter,
// select, aggregate, order.
func applyJob(job *Job, t *core.TableExpression) (*core.TableExpression, error) {
	var err error
	for _, d := range job.Derive {
		t, err = applyDerive(d, t)
		if err != nil {
			return nil, err
		}
	}
	for _, col := range job.Filter {
		t, err = t.Filter(col)
		if err != nil {
			return nil, err
		}
	}
	if len(job.Select) > 0 {
		t, err = t.Project(job.Select...)
		if err != nil {
			return nil, err
		}
	}
	if job.Aggregate != nil {
		t, err = applyAggregate(*job.Aggregate, t)
		if err != nil {
			return nil, err
		}
	}
	if len(job.OrderBy) > 0 {
		refs := make([]ordering.ColumnReference, 0, len(job.OrderBy))
		for _, o := range job.OrderBy {
			if o.Desc {
				refs = append(refs, ordering.Desc(o.Column))
			} else {
				refs = append(refs, ordering.Asc(o.Column))
			}
		}
		t, err = t.WithOrdering(t.Ordering().WithOrderingColumns(refs))
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func applyDerive(d DeriveSpec, t *core.TableExpression) (*core.TableExpression, error) {
	if op, ok := unaryOps[d.Op]; ok {
		if d.Column == "" {
			return nil, &LoadError{
				Code:    ErrCodePlanFailed,
				Message: fmt.Sprintf("derive %q: operator %q requires column", d.ID, d.Op),
			}
		}
		return t.ApplyUnary(op, d.Column, d.ID)
	}
	if op, ok := binaryOps[d.Op]; ok {
		if d.Left == "" {
			return nil, &LoadError{
				Code:    ErrCodePlanFailed,
				Message: fmt.Sprintf("derive %q: operator %q requires left", d.ID, d.Op),
			}
		}
		right, err := rightOperand(d)
		if err != nil {
			return nil, err
		}
		return t.ApplyBinary(op, core.ColOperand(d.Left), right, d.ID)
	}
	return nil, &LoadError{
		Code:    ErrCodeBadOp,
		Message: fmt.Sprintf("derive %q: unknown operator %q", d.ID, d.Op),
	}
}

func rightOperand(d DeriveSpec) (core.Operand, error) {
	if d.RightColumn != "" {
		return core.ColOperand(d.RightColumn), nil
	}
	scalar, err := dtypes.LiteralToScalar(d.RightValue, dtypes.Invalid, true)
	if err != nil {
		return core.Operand{}, &LoadError{
			Code:    ErrCodeBadLiteral,
			Message: fmt.Sprintf("derive %q: %v", d.ID, err),
		}
	}
	return core.ScalarOperand(scalar), nil
}

func applyAggregate(a AggregateSpec, t *core.TableExpression) (*core.TableExpression, error) {
	op, ok := aggregateOps[a.Op]
	if !ok {
		return nil, &LoadError{
			Code:    ErrCodeBadOp,
			Message: fmt.Sprintf("unknown aggregate operator %q", a.Op),
		}
	}
	resultID := a.As
	if resultID == "" {
		resultID = fmt.Sprintf("%s_%s", a.Column, a.Op)
	}
	return t.ApplyAggregate(op, a.Column, resultID, a.GroupBy...)
}
