package dtypes

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// LiteralToScalar converts a Go value to a backend scalar expression.
//
// Numeric literals widen to the 64-bit supported types when no type is
// forced. List-like values are rejected unless validate is false, in which
// case they become a Tuple usable on the right-hand side of IN.
//
// force may be Invalid to infer the type from the value. When validate is
// true the resulting type must be in the supported enumeration.
func LiteralToScalar(value any, force UserType, validate bool) (sqlexpr.Expr, error) {
	if isListLike(value) {
		if validate {
			return nil, &TypeError{
				Code:    ErrCodeUnsupportedLiteral,
				Message: fmt.Sprintf("list-like value %T cannot be stored as a scalar", value),
			}
		}
		return listToTuple(value)
	}

	forcedBackend := sqlexpr.TypeUnknown
	if force != Invalid {
		backend, err := ToBackendType(force)
		if err != nil {
			return nil, err
		}
		forcedBackend = backend
	}

	if isNullish(value) {
		if forcedBackend != sqlexpr.TypeUnknown {
			return sqlexpr.Null(forcedBackend), nil
		}
		return sqlexpr.Null(sqlexpr.TypeUnknown), nil
	}

	lit, err := inferLiteral(value)
	if err != nil {
		return nil, err
	}
	if forcedBackend != sqlexpr.TypeUnknown && forcedBackend != lit.Typ {
		return Cast(lit, forcedBackend)
	}
	if validate {
		if _, err := ToUserType(lit.Typ); err != nil {
			return nil, &TypeError{
				Code:    ErrCodeUnsupportedLiteral,
				Message: fmt.Sprintf("literal %v did not coerce to a supported type", value),
			}
		}
	}
	return lit, nil
}

// inferLiteral widens native numeric types to the 64-bit supported forms.
func inferLiteral(value any) (*sqlexpr.Literal, error) {
	switch v := value.(type) {
	case bool:
		return sqlexpr.Bool(v), nil
	case int:
		return sqlexpr.Int(int64(v)), nil
	case int8:
		return sqlexpr.Int(int64(v)), nil
	case int16:
		return sqlexpr.Int(int64(v)), nil
	case int32:
		return sqlexpr.Int(int64(v)), nil
	case int64:
		return sqlexpr.Int(v), nil
	case uint8:
		return sqlexpr.Int(int64(v)), nil
	case uint16:
		return sqlexpr.Int(int64(v)), nil
	case uint32:
		return sqlexpr.Int(int64(v)), nil
	case float32:
		return sqlexpr.Float(float64(v)), nil
	case float64:
		return sqlexpr.Float(v), nil
	case string:
		return sqlexpr.Str(v), nil
	case time.Time:
		typ := sqlexpr.TypeTimestamp
		if v.Location() == time.UTC {
			typ = sqlexpr.TypeTimestampTZ
		}
		return &sqlexpr.Literal{Val: v.Format(time.RFC3339Nano), Typ: typ}, nil
	default:
		return nil, &TypeError{
			Code:    ErrCodeUnsupportedLiteral,
			Message: fmt.Sprintf("unsupported literal value type %T", value),
		}
	}
}

func listToTuple(value any) (sqlexpr.Expr, error) {
	rv := reflect.ValueOf(value)
	elems := make([]sqlexpr.Expr, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem, err := LiteralToScalar(rv.Index(i).Interface(), Invalid, false)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
	}
	if len(elems) == 0 {
		return nil, &TypeError{
			Code:    ErrCodeUnsupportedLiteral,
			Message: "empty list cannot become a value tuple",
		}
	}
	return &sqlexpr.Tuple{Elems: elems}, nil
}

func isListLike(value any) bool {
	if value == nil {
		return false
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

// isNullish treats nil and NaN as missing, matching dataframe semantics
// where NaN stands in for null in float data.
func isNullish(value any) bool {
	if value == nil {
		return true
	}
	if f, ok := value.(float64); ok {
		return math.IsNaN(f)
	}
	if f, ok := value.(float32); ok {
		return math.IsNaN(float64(f))
	}
	return false
}
