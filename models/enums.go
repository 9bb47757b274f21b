package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type JournalType string

const (
	JournalTypeBank     JournalType = "bank"
	JournalTypeCash     JournalType = "cash"
	JournalTypeSale     JournalType = "sale"
	JournalTypePurchase JournalType = "purchase"
	JournalTypeGeneral  JournalType = "general"
)

func (t JournalType) IsValid() bool {
	switch t {
	case JournalTypeBank, JournalTypeCash, JournalTypeSale, JournalTypePurchase, JournalTypeGeneral:
		return true
	}
	return false
}

// MoveState mirrors the host posting workflow. Only posted moves are ever reported on.
type MoveState string

const (
	MoveStateDraft     MoveState = "draft"
	MoveStatePosted    MoveState = "posted"
	MoveStateCancelled MoveState = "cancel"
)

// LineKind selects one side of the bank account for detail listings.
type LineKind string

const (
	LineKindDebit  LineKind = "debit"
	LineKindCredit LineKind = "credit"
)

const dateLayout = "2006-01-02"

// MyDate is a calendar date (no clock, no zone). It is stored at UTC midnight.
type MyDate time.Time

func NewDate(year int, month time.Month, day int) MyDate {
	return MyDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf keeps the calendar date of t and drops the clock.
func DateOf(t time.Time) MyDate {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func ParseDate(s string) (MyDate, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return MyDate{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func (d MyDate) Time() time.Time {
	return time.Time(d)
}

func (d MyDate) IsZero() bool {
	return time.Time(d).IsZero()
}

func (d MyDate) String() string {
	return time.Time(d).Format(dateLayout)
}

func (d MyDate) AddDays(n int) MyDate {
	return MyDate(time.Time(d).AddDate(0, 0, n))
}

func (d MyDate) Before(o MyDate) bool {
	return time.Time(d).Before(time.Time(o))
}

func (d MyDate) After(o MyDate) bool {
	return time.Time(d).After(time.Time(o))
}

func (d MyDate) Equal(o MyDate) bool {
	return time.Time(d).Equal(time.Time(o))
}

func (d MyDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *MyDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("date must be a string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements the driver.Valuer interface
func (d MyDate) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements the sql.Scanner interface
func (d *MyDate) Scan(value interface{}) error {
	if value == nil {
		*d = MyDate(time.Time{})
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		*d = DateOf(v)
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("cannot convert %T to MyDate", value)
	}
	return nil
}

func (d *MyDate) scanString(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
