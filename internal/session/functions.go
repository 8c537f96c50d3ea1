package session

import (
	"database/sql"
	"fmt"
	"math"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// driverName is the sql driver every Session opens. It is the stock
// go-sqlite3 driver plus the functions the operator library compiles to
// that a default SQLite build does not ship: the math set (floor, log2,
// pow, sign) is behind a compile flag upstream, and reverse, stdev and
// variance do not exist there at all.
const driverName = "sqlite3_sqlframe"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: registerFunctions,
	})
}

func registerFunctions(conn *sqlite3.SQLiteConn) error {
	scalars := []struct {
		name string
		impl any
	}{
		{"floor", sqlFloor},
		{"log2", sqlLog2},
		{"pow", sqlPow},
		{"sign", sqlSign},
		{"reverse", sqlReverse},
	}
	for _, fn := range scalars {
		if err := conn.RegisterFunc(fn.name, fn.impl, true); err != nil {
			return fmt.Errorf("failed to register function %q: %w", fn.name, err)
		}
	}
	aggregates := []struct {
		name string
		impl any
	}{
		{"variance", newVarianceState},
		{"stdev", newStdevState},
	}
	for _, agg := range aggregates {
		if err := conn.RegisterAggregator(agg.name, agg.impl, true); err != nil {
			return fmt.Errorf("failed to register aggregate %q: %w", agg.name, err)
		}
	}
	return nil
}

// asFloat widens a backend numeric value. Anything else, null included,
// reports false so callers can propagate null.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func sqlFloor(v any) any {
	x, ok := asFloat(v)
	if !ok {
		return nil
	}
	return math.Floor(x)
}

func sqlLog2(v any) any {
	x, ok := asFloat(v)
	if !ok || x <= 0 {
		return nil
	}
	return math.Log2(x)
}

func sqlPow(base, exp any) any {
	b, bok := asFloat(base)
	e, eok := asFloat(exp)
	if !bok || !eok {
		return nil
	}
	return math.Pow(b, e)
}

func sqlSign(v any) any {
	x, ok := asFloat(v)
	if !ok {
		return nil
	}
	switch {
	case x > 0:
		return int64(1)
	case x < 0:
		return int64(-1)
	}
	return int64(0)
}

func sqlReverse(v any) any {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return nil
	}
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// varianceState accumulates sample variance (Welford). Nulls and non-numeric
// values are skipped, matching the built-in aggregates.
type varianceState struct {
	n    int64
	mean float64
	m2   float64
}

func newVarianceState() *varianceState { return &varianceState{} }

func (a *varianceState) Step(v any) {
	x, ok := asFloat(v)
	if !ok {
		return
	}
	a.n++
	delta := x - a.mean
	a.mean += delta / float64(a.n)
	a.m2 += delta * (x - a.mean)
}

// Done yields the sample variance, null when fewer than two values stepped.
func (a *varianceState) Done() any {
	if a.n < 2 {
		return nil
	}
	return a.m2 / float64(a.n-1)
}

type stdevState struct {
	varianceState
}

func newStdevState() *stdevState { return &stdevState{} }

func (a *stdevState) Done() any {
	v := a.varianceState.Done()
	if v == nil {
		return nil
	}
	return math.Sqrt(v.(float64))
}
