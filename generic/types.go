/*
Package generic holds the shared kernel of the HR dashboard.

PURPOSE:
  Domain packages (employees, tracking, documents, timeoff, recruitment,
  users) share a handful of primitives: calendar days, day ranges, decimal
  day quantities, error categories, and the audit trail. They live here so
  that no domain package imports another one just for a type.

KEY CONCEPTS:
  - TimePoint: A calendar day (time.go)
  - Period: An inclusive range of days, leave-year boundaries (period.go)
  - Amount: A decimal quantity with a unit, e.g. 2.5 days (this file)
  - Errors: Sentinel categories mapped to HTTP status codes (errors.go)
  - AuditEntry: Who did what when (store.go)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so half-day leave never drifts
  2. Type Safety: Dedicated types for days and amounts
  3. Auditability: Every mutation in a service writes an AuditEntry

SEE ALSO:
  - compliance/: The pure compliance-period calculator
  - store/sqldb: Persistence of everything declared here
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays Unit = "days"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

// ParseAmount reads a stored decimal string. Malformed input yields zero.
func ParseAmount(value string, unit Unit) Amount {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{Value: decimal.Zero, Unit: unit}
	}
	return Amount{Value: d, Unit: unit}
}

func (a Amount) Zero() Amount              { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Neg() Amount               { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool    { return a.Value.LessThan(b.Value) }

// Float returns the value as float64 for JSON responses.
func (a Amount) Float() float64 {
	f, _ := a.Value.Float64()
	return f
}

func (a Amount) String() string { return a.Value.String() + " " + string(a.Unit) }
