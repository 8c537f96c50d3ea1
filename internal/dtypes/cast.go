package dtypes

import (
	"fmt"

	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// goodCasts is the allow-list of verified backend casts. Anything not listed
// here (or handled by a special case below) is rejected rather than passed
// through to the backend, where behavior is unverified.
var goodCasts = map[sqlexpr.Type][]sqlexpr.Type{
	sqlexpr.TypeBool:        {sqlexpr.TypeInt64},
	sqlexpr.TypeInt64:       {sqlexpr.TypeBool, sqlexpr.TypeFloat64, sqlexpr.TypeString},
	sqlexpr.TypeFloat64:     {sqlexpr.TypeString},
	sqlexpr.TypeString:      {},
	sqlexpr.TypeDate:        {},
	sqlexpr.TypeTime:        {},
	sqlexpr.TypeTimestamp:   {sqlexpr.TypeTimestampTZ},
	sqlexpr.TypeTimestampTZ: {sqlexpr.TypeTimestamp},
}

// Cast converts a value expression to another backend type, enumerating only
// casts whose backend behavior matches the dataframe surface.
func Cast(value sqlexpr.Expr, to sqlexpr.Type) (sqlexpr.Expr, error) {
	from := value.ExprType()
	if from == to {
		return value, nil
	}

	allowed, known := goodCasts[from]
	if !known {
		return nil, &TypeError{
			Code:    ErrCodeUnsupportedBackendType,
			Message: fmt.Sprintf("cannot cast from unsupported backend type %s", from),
			From:    from.String(),
			To:      to.String(),
		}
	}
	for _, t := range allowed {
		if t == to {
			return sqlexpr.NewCast(value, to), nil
		}
	}

	// The backend renders booleans as bare integers. Capitalized True/False
	// matches how the dataframe surface prints boolean values.
	if from == sqlexpr.TypeBool && to == sqlexpr.TypeString {
		return boolToString(value), nil
	}

	return nil, &TypeError{
		Code:    ErrCodeUnsupportedCast,
		Message: "cast is not in the supported allow-list",
		From:    from.String(),
		To:      to.String(),
	}
}

func boolToString(value sqlexpr.Expr) sqlexpr.Expr {
	return sqlexpr.NewCase(sqlexpr.TypeString,
		[]sqlexpr.When{
			{
				Cond:   sqlexpr.NewBinary(sqlexpr.OpIs, value, sqlexpr.Null(sqlexpr.TypeUnknown), sqlexpr.TypeBool),
				Result: sqlexpr.Null(sqlexpr.TypeString),
			},
			{Cond: value, Result: sqlexpr.Str("True")},
		},
		sqlexpr.Str("False"),
	)
}
