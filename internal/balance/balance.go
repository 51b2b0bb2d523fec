// Package balance keeps the (total, used, balance) triples of the four
// benefit categories consistent. An unset amount is distinct from zero.
package balance

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is an optional number. The zero value is unset.
type Amount struct {
	Float64 float64
	Valid   bool
}

func Of(v float64) Amount { return Amount{Float64: v, Valid: true} }

// Parse accepts a finite numeric string; blank input yields an unset amount.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	return Of(v), nil
}

// String renders the shortest numeric form ("9", "2.5"), or "" when unset.
func (a Amount) String() string {
	if !a.Valid {
		return ""
	}
	return strconv.FormatFloat(a.Float64, 'f', -1, 64)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.String()), nil
}

// UnmarshalJSON treats null and "" as unset and accepts numbers or numeric strings.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = Amount{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil || math.IsInf(v, 0) {
		return fmt.Errorf("invalid amount %s", b)
	}
	*a = Of(v)
	return nil
}

// Scan reads numeric columns regardless of how the driver reports them.
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
	case float64:
		*a = Of(v)
	case float32:
		*a = Of(float64(v))
	case int64:
		*a = Of(float64(v))
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*a = parsed
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*a = parsed
	default:
		return fmt.Errorf("balance: cannot scan %T into Amount", src)
	}
	return nil
}

func (a Amount) Value() (driver.Value, error) {
	if !a.Valid {
		return nil, nil
	}
	return a.Float64, nil
}

// Compute returns total - used. Both unset gives unset; otherwise an unset
// side counts as zero. A non-finite result is unset.
func Compute(total, used Amount) Amount {
	if !total.Valid && !used.Valid {
		return Amount{}
	}
	result := total.Float64 - used.Float64
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return Amount{}
	}
	return Of(result)
}

// Category is one of the four independent benefit ledgers.
type Category string

const (
	Leave     Category = "leave"
	ClaimOff  Category = "claimoff"
	Childcare Category = "childcare"
	MC        Category = "mc"
)

var Categories = []Category{Leave, ClaimOff, Childcare, MC}

// Triple is the ledger of one category.
type Triple struct {
	Total   Amount `json:"total"`
	Used    Amount `json:"used"`
	Balance Amount `json:"balance"`
}

// Recompute replaces Balance with Total - Used.
func (t Triple) Recompute() Triple {
	t.Balance = Compute(t.Total, t.Used)
	return t
}

// Sheet holds the triples of all categories, keyed by category.
type Sheet map[Category]Triple

// RecomputeAll recomputes each category on its own.
func RecomputeAll(s Sheet) Sheet {
	out := make(Sheet, len(s))
	for cat, t := range s {
		out[cat] = t.Recompute()
	}
	return out
}
