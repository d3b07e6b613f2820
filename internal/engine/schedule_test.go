package engine_test

import (
	"testing"

	"github.com/arassch/networth-planner/internal/domain"
	"github.com/arassch/networth-planner/internal/engine"
)

func ym(year, month int) *domain.YearMonth {
	return &domain.YearMonth{Year: year, Month: month}
}

func TestShouldFire_OneTime(t *testing.T) {
	rule := domain.TransferRule{
		Frequency: domain.FreqOneTime,
		Start:     ym(2030, 6),
	}

	if !engine.ShouldFire(rule, 2030, 6, true) {
		t.Error("expected one_time rule to fire at its exact start month")
	}
	if engine.ShouldFire(rule, 2030, 7, true) {
		t.Error("one_time rule fired outside its start month")
	}
	if engine.ShouldFire(rule, 2031, 6, true) {
		t.Error("one_time rule fired in a later year")
	}
	if engine.ShouldFire(rule, 2030, 6, false) {
		t.Error("one_time rule fired in the annual phase")
	}
}

func TestShouldFire_Monthly(t *testing.T) {
	rule := domain.TransferRule{
		Frequency: domain.FreqMonthly,
		Start:     ym(2030, 3),
		End:       ym(2030, 10),
	}

	if engine.ShouldFire(rule, 2030, 2, true) {
		t.Error("monthly rule fired before its start")
	}
	if !engine.ShouldFire(rule, 2030, 3, true) {
		t.Error("monthly rule did not fire at its start month")
	}
	if !engine.ShouldFire(rule, 2030, 10, true) {
		t.Error("monthly rule did not fire at its inclusive end month")
	}
	if engine.ShouldFire(rule, 2030, 11, true) {
		t.Error("monthly rule fired after its end")
	}
	if engine.ShouldFire(rule, 2030, 5, false) {
		t.Error("monthly rule fired in the annual phase")
	}
}

func TestShouldFire_Annual(t *testing.T) {
	rule := domain.TransferRule{
		Frequency: domain.FreqAnnual,
		Start:     ym(2030, 1),
	}

	if !engine.ShouldFire(rule, 2031, 12, false) {
		t.Error("annual rule did not fire in the annual phase")
	}
	if engine.ShouldFire(rule, 2031, 12, true) {
		t.Error("annual rule fired in the monthly phase")
	}
	if engine.ShouldFire(rule, 2029, 12, false) {
		t.Error("annual rule fired before its start year")
	}
}

func TestShouldFire_EveryXYears(t *testing.T) {
	rule := domain.TransferRule{
		Frequency:     domain.FreqEveryXYears,
		IntervalYears: 3,
		Start:         ym(2030, 1),
	}

	for year, want := range map[int]bool{
		2030: true,
		2031: false,
		2032: false,
		2033: true,
		2036: true,
	} {
		if got := engine.ShouldFire(rule, year, 12, false); got != want {
			t.Errorf("year %d: got %v, want %v", year, got, want)
		}
	}
}

func TestShouldFire_MissingStartNeverFires(t *testing.T) {
	for _, freq := range []domain.Frequency{
		domain.FreqOneTime, domain.FreqMonthly, domain.FreqAnnual, domain.FreqEveryXYears,
	} {
		rule := domain.TransferRule{Frequency: freq, IntervalYears: 1}
		if engine.ShouldFire(rule, 2030, 6, true) || engine.ShouldFire(rule, 2030, 12, false) {
			t.Errorf("%s rule without a start date fired", freq)
		}
	}
}
