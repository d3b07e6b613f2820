package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Transfer rules
// ============================================================

// Frequency controls how often a transfer rule fires.
type Frequency string

const (
	FreqOneTime     Frequency = "one_time"
	FreqMonthly     Frequency = "monthly"
	FreqAnnual      Frequency = "annual"
	FreqEveryXYears Frequency = "every_x_years"
)

// Valid reports whether the frequency is one of the known values.
func (f Frequency) Valid() bool {
	switch f {
	case FreqOneTime, FreqMonthly, FreqAnnual, FreqEveryXYears:
		return true
	}
	return false
}

// AmountType selects how a rule's amount is interpreted.
type AmountType string

const (
	AmountFixed           AmountType = "fixed"
	AmountEarningsPercent AmountType = "earnings_percent"
)

// YearMonth is a calendar month, the granularity at which transfer rules
// are scheduled. Serialized as "YYYY-MM".
type YearMonth struct {
	Year  int
	Month int
}

// ParseYearMonth parses a "YYYY-MM" string.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year-month %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: int(t.Month())}, nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// Cmp returns -1, 0 or 1 comparing ym against other chronologically.
func (ym YearMonth) Cmp(other YearMonth) int {
	a := ym.Year*12 + ym.Month
	b := other.Year*12 + other.Month
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (ym YearMonth) MarshalJSON() ([]byte, error) {
	return json.Marshal(ym.String())
}

func (ym *YearMonth) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseYearMonth(s)
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// TransferRule describes an automated money movement. An empty SourceID or
// DestinationID means the external world (income and expenses respectively);
// at least one side must be a real account. Rules belong to a projection,
// not to the shared portfolio.
type TransferRule struct {
	ID             string          `json:"id"`
	SourceID       string          `json:"source_id,omitempty"`
	DestinationID  string          `json:"destination_id,omitempty"`
	ExternalLabel  string          `json:"external_label,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	AmountType     AmountType      `json:"amount_type"`
	AmountCurrency string          `json:"amount_currency,omitempty"`
	Frequency      Frequency       `json:"frequency"`
	IntervalYears  int             `json:"interval_years,omitempty"` // every_x_years only
	Start          *YearMonth      `json:"start,omitempty"`
	End            *YearMonth      `json:"end,omitempty"` // ignored for one_time
}

// Clone returns a deep copy of the rule.
func (r TransferRule) Clone() TransferRule {
	out := r
	if r.Start != nil {
		s := *r.Start
		out.Start = &s
	}
	if r.End != nil {
		e := *r.End
		out.End = &e
	}
	return out
}

// RuleRequest is the payload for creating or updating a transfer rule.
type RuleRequest struct {
	SourceID       string          `json:"source_id,omitempty"`
	DestinationID  string          `json:"destination_id,omitempty"`
	ExternalLabel  string          `json:"external_label,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	AmountType     AmountType      `json:"amount_type"`
	AmountCurrency string          `json:"amount_currency,omitempty"`
	Frequency      Frequency       `json:"frequency"`
	IntervalYears  int             `json:"interval_years,omitempty"`
	Start          *YearMonth      `json:"start,omitempty"`
	End            *YearMonth      `json:"end,omitempty"`
}
