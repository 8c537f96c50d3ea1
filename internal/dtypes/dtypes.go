// Package dtypes maps between backend column types and the user-facing value
// types of the dataframe surface, and owns literal and cast coercion rules.
package dtypes

import (
	"fmt"

	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// UserType is a user-facing value type.
type UserType uint8

const (
	Invalid UserType = iota
	Boolean
	Int64
	Float64
	String
	Date
	Time
	Timestamp
	TimestampTZ
)

// String returns the canonical type name accepted by ParseUserType.
func (t UserType) String() string {
	switch t {
	case Boolean:
		return "boolean"
	case Int64:
		return "Int64"
	case Float64:
		return "Float64"
	case String:
		return "string"
	case Date:
		return "date"
	case Time:
		return "time"
	case Timestamp:
		return "timestamp"
	case TimestampTZ:
		return "timestamp[utc]"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(t))
	}
}

// IsNumeric reports whether the type is accepted by numeric operators.
// Booleans count: they coerce to integers before arithmetic.
func (t UserType) IsNumeric() bool {
	switch t {
	case Boolean, Int64, Float64:
		return true
	default:
		return false
	}
}

// mapping is one row of the bidirectional type table.
type mapping struct {
	backend sqlexpr.Type
	user    UserType
}

// bidirectionalMappings is the closed table of supported types. Both lookup
// directions are derived from it so the round trip is correct by
// construction.
var bidirectionalMappings = []mapping{
	{sqlexpr.TypeBool, Boolean},
	{sqlexpr.TypeInt64, Int64},
	{sqlexpr.TypeFloat64, Float64},
	{sqlexpr.TypeString, String},
	{sqlexpr.TypeDate, Date},
	{sqlexpr.TypeTime, Time},
	{sqlexpr.TypeTimestamp, Timestamp},
	{sqlexpr.TypeTimestampTZ, TimestampTZ},
}

var backendToUser = func() map[sqlexpr.Type]UserType {
	m := make(map[sqlexpr.Type]UserType, len(bidirectionalMappings))
	for _, row := range bidirectionalMappings {
		m[row.backend] = row.user
	}
	return m
}()

var userToBackend = func() map[UserType]sqlexpr.Type {
	m := make(map[UserType]sqlexpr.Type, len(bidirectionalMappings))
	for _, row := range bidirectionalMappings {
		m[row.user] = row.backend
	}
	return m
}()

var nameToUser = func() map[string]UserType {
	m := make(map[string]UserType, len(bidirectionalMappings))
	for _, row := range bidirectionalMappings {
		m[row.user.String()] = row.user
	}
	// Accepted alias: plain "str" from users used to other dataframe APIs.
	m["str"] = String
	return m
}()

// SupportedBackendTypes returns the closed backend type enumeration, in
// table order.
func SupportedBackendTypes() []sqlexpr.Type {
	types := make([]sqlexpr.Type, 0, len(bidirectionalMappings))
	for _, row := range bidirectionalMappings {
		types = append(types, row.backend)
	}
	return types
}

// ToUserType converts a backend type to its user-facing type.
func ToUserType(t sqlexpr.Type) (UserType, error) {
	if user, ok := backendToUser[t]; ok {
		return user, nil
	}
	return Invalid, &TypeError{
		Code:    ErrCodeUnsupportedBackendType,
		Message: fmt.Sprintf("backend type %s has no user-facing mapping", t),
		From:    t.String(),
	}
}

// ToBackendType converts a user-facing type to its backend type.
func ToBackendType(t UserType) (sqlexpr.Type, error) {
	if backend, ok := userToBackend[t]; ok {
		return backend, nil
	}
	return sqlexpr.TypeUnknown, &TypeError{
		Code:    ErrCodeUnsupportedUserType,
		Message: fmt.Sprintf("user type %s has no backend mapping", t),
		From:    t.String(),
	}
}

// ParseUserType resolves a user-supplied type name.
func ParseUserType(name string) (UserType, error) {
	if t, ok := nameToUser[name]; ok {
		return t, nil
	}
	return Invalid, &TypeError{
		Code:    ErrCodeUnsupportedUserType,
		Message: fmt.Sprintf("unknown type name %q", name),
		From:    name,
	}
}
