// Package coltype defines the closed set of column types the engine
// understands, their cast groups, and the assignability rules used by
// INSERT validation and CREATE TABLE AS SELECT CAST validation.
package coltype

import "fmt"

// Type is one of the fixed column types. The numeric values are the
// wire/disk identifiers and must never be renumbered.
type Type uint8

const (
	Boolean Type = iota
	Byte
	Short
	Char
	Int
	Long
	Float
	Double
	Date
	Timestamp
	String
	Symbol
	Binary
	Long256
)

var names = [...]string{
	Boolean:   "BOOLEAN",
	Byte:      "BYTE",
	Short:     "SHORT",
	Char:      "CHAR",
	Int:       "INT",
	Long:      "LONG",
	Float:     "FLOAT",
	Double:    "DOUBLE",
	Date:      "DATE",
	Timestamp: "TIMESTAMP",
	String:    "STRING",
	Symbol:    "SYMBOL",
	Binary:    "BINARY",
	Long256:   "LONG256",
}

func (t Type) String() string {
	if int(t) < len(names) && names[t] != "" {
		return names[t]
	}
	return fmt.Sprintf("coltype.Type(%d)", uint8(t))
}

// ParseName resolves a case-insensitive type keyword to a Type. It is
// used by the parser when building column specs for CREATE TABLE and by
// CAST(col AS <type>) clauses.
func ParseName(name string) (Type, bool) {
	t, ok := byName[upper(name)]
	return t, ok
}

var byName map[string]Type

func init() {
	byName = make(map[string]Type, len(names))
	for i, n := range names {
		byName[n] = Type(i)
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// CastGroup is the equivalence class used by CAST(col AS type) in
// CREATE TABLE AS SELECT (spec §3). Two types may appear on either side
// of a CAST iff CastGroup(a) == CastGroup(b).
type CastGroup int

const (
	groupNumericLike CastGroup = iota + 1
	groupBoolean
	groupTextual
	groupBinary
	groupLong256
)

var castGroups = map[Type]CastGroup{
	Byte:      groupNumericLike,
	Short:     groupNumericLike,
	Char:      groupNumericLike,
	Int:       groupNumericLike,
	Long:      groupNumericLike,
	Float:     groupNumericLike,
	Double:    groupNumericLike,
	Date:      groupNumericLike,
	Timestamp: groupNumericLike,

	Boolean: groupBoolean,

	String: groupTextual,
	Symbol: groupTextual,

	Binary: groupBinary,

	Long256: groupLong256,
}

// CastGroupOf returns the cast group of t. Every Type has exactly one
// group; the map is an immutable, package-level table (spec §9 "global
// mutable state" note).
func CastGroupOf(t Type) CastGroup {
	return castGroups[t]
}

// CastCompatible reports whether values of type `from` may be CAST to
// type `to` in a CREATE TABLE AS SELECT ... CAST(col AS to) clause.
func CastCompatible(from, to Type) bool {
	return CastGroupOf(from) == CastGroupOf(to)
}

// numericRank orders the BYTE..DOUBLE widening chain used by
// IsAssignable. Lower rank casts (widens) into any higher rank.
var numericRank = map[Type]int{
	Byte:   0,
	Short:  1,
	Int:    2,
	Long:   3,
	Float:  4,
	Double: 5,
}

// IsAssignable reports whether a value of type `source` may be used
// where a column of type `target` is expected (spec §3 "Assignability").
// It is broader than CastCompatible: identity, numeric widening within
// BYTE..DOUBLE, integer (BYTE..LONG) into DATE/TIMESTAMP, STRING<->SYMBOL,
// and CHAR->STRING all qualify.
func IsAssignable(target, source Type) bool {
	if target == source {
		return true
	}
	if sr, sok := numericRank[source]; sok {
		if tr, tok := numericRank[target]; tok {
			return sr <= tr
		}
		if target == Date || target == Timestamp {
			return sr <= numericRank[Long]
		}
	}
	switch {
	case target == String && source == Symbol:
		return true
	case target == Symbol && source == String:
		return true
	case target == String && source == Char:
		return true
	}
	return false
}

// NumericRank returns t's position in the BYTE..DOUBLE widening chain
// and whether t participates in it at all. Callers outside this package
// (funcreg's arithmetic overload resolution) use it to pick the wider of
// two numeric operand types without duplicating the ranking table.
func NumericRank(t Type) (int, bool) {
	r, ok := numericRank[t]
	return r, ok
}

// IsNumeric reports whether t is one of the BYTE..DOUBLE types or
// DATE/TIMESTAMP, which are long-backed epoch types for the purposes of
// the row copier's conversion table (spec §4.2). DATE/TIMESTAMP have no
// NumericRank: they are not part of the widening chain itself.
func IsNumeric(t Type) bool {
	switch t {
	case Byte, Short, Int, Long, Float, Double, Date, Timestamp:
		return true
	default:
		return false
	}
}
