package engine_test

import (
	"testing"
	"time"

	"github.com/arassch/networth-planner/internal/domain"
	"github.com/arassch/networth-planner/internal/engine"
	"github.com/arassch/networth-planner/internal/infra/fx"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2030, time.January, 15, 12, 0, 0, 0, time.UTC)

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func newView(accounts []domain.Account, rules []domain.TransferRule) *domain.ProjectionView {
	return &domain.ProjectionView{
		ProjectionID:    "proj-1",
		ProjectionName:  "Default",
		Accounts:        accounts,
		Rules:           rules,
		BaseCurrency:    "USD",
		ProjectionYears: 2,
	}
}

func calc(t *testing.T, view *domain.ProjectionView, opts engine.Options) []domain.YearPoint {
	t.Helper()
	if opts.Now.IsZero() {
		opts.Now = testNow
	}
	return engine.New(fx.Identity("USD")).Calculate(view, opts)
}

// pointForYear finds the series point for an absolute year.
func pointForYear(t *testing.T, points []domain.YearPoint, year int) domain.YearPoint {
	t.Helper()
	for _, pt := range points {
		if pt.Year == year {
			return pt
		}
	}
	t.Fatalf("no point for year %d", year)
	return domain.YearPoint{}
}

func TestCalculate_YearZeroIsPureSnapshot(t *testing.T) {
	view := newView(
		[]domain.Account{
			{ID: "a", Balance: dec(1000), Currency: "USD", ReturnRate: dec(8), TaxTreatment: domain.TaxTaxable, CostBasis: dec(1000)},
			{ID: "b", Balance: dec(500), Currency: "USD", ReturnRate: dec(5), TaxTreatment: domain.TaxRoth, CostBasis: dec(500)},
		},
		// Income active from before year zero must still not touch it.
		[]domain.TransferRule{
			{ID: "r1", DestinationID: "a", Amount: dec(100), AmountType: domain.AmountFixed, AmountCurrency: "USD", Frequency: domain.FreqMonthly, Start: ym(2029, 1)},
		},
	)

	points := calc(t, view, engine.Options{})
	pt := pointForYear(t, points, 2030)

	if pt.Projected == nil || !pt.Projected.Equal(dec(1500)) {
		t.Fatalf("year zero projected = %v, want 1500", pt.Projected)
	}
	if !pt.TotalEarnings.IsZero() {
		t.Errorf("year zero earnings = %s, want 0", pt.TotalEarnings)
	}
	if pt.ProjectedAfterTax != nil {
		t.Errorf("year zero must not carry an after-tax value, got %s", pt.ProjectedAfterTax)
	}
}

func TestCalculate_GrowthCompoundsToNominalRate(t *testing.T) {
	view := newView(
		[]domain.Account{
			{ID: "a", Balance: dec(1000), Currency: "USD", ReturnRate: dec(12), TaxTreatment: domain.TaxRoth, CostBasis: dec(1000)},
		},
		nil,
	)

	points := calc(t, view, engine.Options{})
	pt := pointForYear(t, points, 2031)

	// Twelve months at the twelfth root of 1.12 lands back on 12% annually.
	if pt.Projected == nil || !pt.Projected.Equal(dec(1120)) {
		t.Fatalf("year one projected = %v, want 1120", pt.Projected)
	}
	if !pt.TotalEarnings.Equal(dec(120)) {
		t.Errorf("year one earnings = %s, want 120", pt.TotalEarnings)
	}
}

func TestCalculate_InflationOffsetsNominalReturn(t *testing.T) {
	view := newView(
		[]domain.Account{
			{ID: "a", Balance: dec(1000), Currency: "USD", ReturnRate: dec(5), TaxTreatment: domain.TaxRoth, CostBasis: dec(1000)},
		},
		nil,
	)
	view.InflationRate = dec(5)

	points := calc(t, view, engine.Options{})
	for _, year := range []int{2030, 2031, 2032} {
		pt := pointForYear(t, points, year)
		if pt.Projected == nil || !pt.Projected.Equal(dec(1000)) {
			t.Errorf("year %d: real value = %v, want flat 1000", year, pt.Projected)
		}
	}
}

func TestCalculate_ExternalIncomeAndExpense(t *testing.T) {
	view := newView(
		[]domain.Account{
			{ID: "a", Balance: dec(1000), Currency: "USD", TaxTreatment: domain.TaxTaxable, CostBasis: dec(1000)},
		},
		[]domain.TransferRule{
			{ID: "income", DestinationID: "a", ExternalLabel: "salary", Amount: dec(100), AmountType: domain.AmountFixed, AmountCurrency: "USD", Frequency: domain.FreqMonthly, Start: ym(2031, 1)},
			{ID: "expense", SourceID: "a", ExternalLabel: "rent", Amount: dec(40), AmountType: domain.AmountFixed, Frequency: domain.FreqMonthly, Start: ym(2031, 1)},
		},
	)

	points := calc(t, view, engine.Options{})
	pt := pointForYear(t, points, 2031)

	// +12*100 income, -12*40 expense.
	if pt.Projected == nil || !pt.Projected.Equal(dec(1720)) {
		t.Fatalf("year one projected = %v, want 1720", pt.Projected)
	}
	// External income arrives as fresh principal, so no taxable gain builds up.
	if pt.ProjectedAfterTax != nil {
		t.Errorf("after-tax should be omitted when no gain is embedded, got %s", pt.ProjectedAfterTax)
	}
}

func TestCalculate_TransferMovesProportionalBasisAndTaxesGain(t *testing.T) {
	view := newView(
		[]domain.Account{
			{ID: "src", Balance: dec(1000), Currency: "USD", TaxTreatment: domain.TaxTaxable, CostBasis: dec(500)},
			{ID: "dst", Balance: dec(0), Currency: "USD", TaxTreatment: domain.TaxRoth, CostBasis: dec(0)},
		},
		[]domain.TransferRule{
			{ID: "move", SourceID: "src", DestinationID: "dst", Amount: dec(100), AmountType: domain.AmountFixed, Frequency: domain.FreqOneTime, Start: ym(2031, 1)},
		},
	)
	view.TaxRate = dec(20)

	points := calc(t, view, engine.Options{IncludeAccounts: true})
	pt := pointForYear(t, points, 2031)

	// 100 leaves src; basis moved = 500 * (100/1000) = 50; gain 50 taxed at
	// 20% = 10; dst receives the 90 net.
	if got := pt.Accounts["src"].Balance; !got.Equal(dec(900)) {
		t.Errorf("src balance = %s, want 900", got)
	}
	if got := pt.Accounts["dst"].Balance; !got.Equal(dec(90)) {
		t.Errorf("dst balance = %s, want 90", got)
	}
	if pt.Projected == nil || !pt.Projected.Equal(dec(990)) {
		t.Fatalf("projected = %v, want 990", pt.Projected)
	}

	// src keeps 450 basis on a 900 balance: 450 gain, 90 tax. dst is roth.
	if pt.ProjectedAfterTax == nil || !pt.ProjectedAfterTax.Equal(dec(900)) {
		t.Errorf("after-tax = %v, want 900", pt.ProjectedAfterTax)
	}
}

func TestCalculate_ConservationWithoutTax(t *testing.T) {
	view := newView(
		[]domain.Account{
			{ID: "a", Balance: dec(1000), Currency: "USD", TaxTreatment: domain.TaxTaxable, CostBasis: dec(200)},
			{ID: "b", Balance: dec(0), Currency: "USD", TaxTreatment: domain.TaxTaxable, CostBasis: dec(0)},
		},
		[]domain.TransferRule{
			{ID: "shift", SourceID: "a", DestinationID: "b", Amount: dec(50), AmountType: domain.AmountFixed, Frequency: domain.FreqMonthly, Start: ym(2031, 1)},
		},
	)

	points := calc(t, view, engine.Options{IncludeAccounts: true})
	pt := pointForYear(t, points, 2031)

	// Zero growth, zero tax rate: internal moves must conserve the total.
	if pt.Projected == nil || !pt.Projected.Equal(dec(1000)) {
		t.Fatalf("projected = %v, want 1000", pt.Projected)
	}
	if got := pt.Accounts["a"].Transfers; !got.Equal(dec(-600)) {
		t.Errorf("a transfers = %s, want -600", got)
	}
	if got := pt.Accounts["b"].Transfers; !got.Equal(dec(600)) {
		t.Errorf("b transfers = %s, want 600", got)
	}
}

func TestCalculate_FullEarningsSweepStopsCompounding(t *testing.T) {
	view := newView(
		[]domain.Account{
			{ID: "src", Balance: dec(1200), Currency: "USD", ReturnRate: dec(12), TaxTreatment: domain.TaxRoth, CostBasis: dec(1200)},
			{ID: "dst", Balance: dec(0), Currency: "USD", TaxTreatment: domain.TaxRoth, CostBasis: dec(0)},
		},
		[]domain.TransferRule{
			{ID: "sweep", SourceID: "src", DestinationID: "dst", Amount: dec(100), AmountType: domain.AmountEarningsPercent, Frequency: domain.FreqMonthly, Start: ym(2030, 1)},
		},
	)

	points := calc(t, view, engine.Options{IncludeAccounts: true})
	pt := pointForYear(t, points, 2031)

	// Every month's growth leaves immediately, so the principal stays put
	// and the destination collects exactly the year's earnings.
	if got := pt.Accounts["src"].Balance; !got.Equal(dec(1200)) {
		t.Errorf("src balance = %s, want 1200", got)
	}
	if got := pt.Accounts["dst"].Balance; !got.Equal(pt.TotalEarnings) {
		t.Errorf("dst balance = %s, want total earnings %s", got, pt.TotalEarnings)
	}
	if pt.TotalEarnings.IsZero() {
		t.Error("expected non-zero earnings")
	}
}

func TestCalculate_RepeatedSweepCannotMoveSameEarningsTwice(t *testing.T) {
	accounts := []domain.Account{
		{ID: "src", Balance: dec(1200), Currency: "USD", ReturnRate: dec(12), TaxTreatment: domain.TaxRoth, CostBasis: dec(1200)},
		{ID: "dst", Balance: dec(0), Currency: "USD", TaxTreatment: domain.TaxRoth, CostBasis: dec(0)},
	}
	sweep := domain.TransferRule{
		ID: "sweep", SourceID: "src", DestinationID: "dst",
		Amount: dec(100), AmountType: domain.AmountEarningsPercent,
		Frequency: domain.FreqMonthly, Start: ym(2030, 1),
	}
	second := sweep
	second.ID = "sweep-2"

	single := calc(t, newView(accounts, []domain.TransferRule{sweep}), engine.Options{IncludeAccounts: true})
	double := calc(t, newView(accounts, []domain.TransferRule{sweep, second}), engine.Options{IncludeAccounts: true})

	a := pointForYear(t, single, 2031)
	b := pointForYear(t, double, 2031)
	if !a.Accounts["dst"].Balance.Equal(b.Accounts["dst"].Balance) {
		t.Errorf("duplicate sweep moved extra money: %s vs %s",
			a.Accounts["dst"].Balance, b.Accounts["dst"].Balance)
	}
}

func TestCalculate_RuleWithUnknownAccountIsSkipped(t *testing.T) {
	view := newView(
		[]domain.Account{
			{ID: "a", Balance: dec(1000), Currency: "USD", TaxTreatment: domain.TaxTaxable, CostBasis: dec(1000)},
		},
		[]domain.TransferRule{
			{ID: "ghost", SourceID: "deleted", DestinationID: "a", Amount: dec(100), AmountType: domain.AmountFixed, Frequency: domain.FreqMonthly, Start: ym(2030, 1)},
		},
	)

	points := calc(t, view, engine.Options{})
	pt := pointForYear(t, points, 2031)
	if pt.Projected == nil || !pt.Projected.Equal(dec(1000)) {
		t.Errorf("projected = %v, want 1000 (ghost rule must be a no-op)", pt.Projected)
	}
}

func TestCalculate_HistoricalActualsPrecedeProjection(t *testing.T) {
	view := newView(
		[]domain.Account{
			{ID: "a", Balance: dec(1000), Currency: "USD", TaxTreatment: domain.TaxTaxable, CostBasis: dec(1000)},
		},
		nil,
	)
	view.Actuals = map[string]map[int]decimal.Decimal{
		"a": {2028: dec(700), 2026: dec(500), 2031: dec(1050)},
	}

	points := calc(t, view, engine.Options{})

	if points[0].Year != 2026 || points[1].Year != 2028 {
		t.Fatalf("historical years out of order: %d, %d", points[0].Year, points[1].Year)
	}
	for _, pt := range points[:2] {
		if pt.Projected != nil {
			t.Errorf("historical year %d carries a projected value", pt.Year)
		}
		if pt.Actual == nil {
			t.Errorf("historical year %d missing its actual", pt.Year)
		}
	}
	if points[0].Actual.Equal(dec(700)) || !points[0].Actual.Equal(dec(500)) {
		t.Errorf("2026 actual = %s, want 500", points[0].Actual)
	}

	// A future-year observation overlays the projected point.
	pt := pointForYear(t, points, 2031)
	if pt.Projected == nil {
		t.Fatal("projected missing on overlaid year")
	}
	if pt.Actual == nil || !pt.Actual.Equal(dec(1050)) {
		t.Errorf("2031 actual = %v, want 1050", pt.Actual)
	}
}

func TestCalculate_SelectionLimitsOutput(t *testing.T) {
	view := newView(
		[]domain.Account{
			{ID: "a", Balance: dec(1000), Currency: "USD", TaxTreatment: domain.TaxTaxable, CostBasis: dec(1000)},
			{ID: "b", Balance: dec(500), Currency: "USD", TaxTreatment: domain.TaxTaxable, CostBasis: dec(500)},
		},
		nil,
	)

	points := calc(t, view, engine.Options{
		Selection:       map[string]bool{"b": true},
		IncludeAccounts: true,
	})
	pt := pointForYear(t, points, 2030)

	if pt.Projected == nil || !pt.Projected.Equal(dec(500)) {
		t.Fatalf("projected = %v, want 500", pt.Projected)
	}
	if _, ok := pt.Accounts["a"]; ok {
		t.Error("unselected account leaked into the breakdown")
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	view := newView(
		[]domain.Account{
			{ID: "a", Balance: dec(1000), Currency: "USD", ReturnRate: dec(7), TaxTreatment: domain.TaxTaxable, CostBasis: dec(600)},
			{ID: "b", Balance: dec(2500), Currency: "USD", ReturnRate: dec(3), TaxTreatment: domain.TaxDeferred, CostBasis: dec(2500)},
		},
		[]domain.TransferRule{
			{ID: "r1", SourceID: "a", DestinationID: "b", Amount: dec(25), AmountType: domain.AmountFixed, Frequency: domain.FreqMonthly, Start: ym(2030, 6)},
		},
	)
	view.TaxRate = dec(15)

	first := calc(t, view, engine.Options{})
	second := calc(t, view, engine.Options{})

	if len(first) != len(second) {
		t.Fatalf("point counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.Year != b.Year || !a.Projected.Equal(*b.Projected) || !a.TotalEarnings.Equal(b.TotalEarnings) {
			t.Errorf("year %d differs between runs", a.Year)
		}
	}
}

func TestCalculate_FractionalBalancesShowNoPhantomHaircut(t *testing.T) {
	// Conversion at 1.005 leaves each balance at 100.5 in base currency, so
	// the pre-tax and after-tax sums only agree when both sides round the
	// same way. A fully tax-free portfolio must never report a haircut.
	table := fx.NewTable("USD", map[string]decimal.Decimal{
		"EUR": decimal.NewFromFloat(1.005),
	})
	view := newView(
		[]domain.Account{
			{ID: "r1", Balance: dec(100), Currency: "EUR", TaxTreatment: domain.TaxRoth, CostBasis: dec(100)},
			{ID: "r2", Balance: dec(100), Currency: "EUR", TaxTreatment: domain.TaxRoth, CostBasis: dec(100)},
		},
		nil,
	)
	view.TaxRate = dec(20)

	points := engine.New(table).Calculate(view, engine.Options{Now: testNow})
	pt := pointForYear(t, points, 2031)

	if pt.Projected == nil || !pt.Projected.Equal(dec(202)) {
		t.Fatalf("projected = %v, want 202", pt.Projected)
	}
	if pt.ProjectedAfterTax != nil {
		t.Errorf("after-tax total = %v on a tax-free portfolio, want nil", pt.ProjectedAfterTax)
	}
}

func TestCalculate_CurrencyConversion(t *testing.T) {
	table := fx.NewTable("USD", map[string]decimal.Decimal{
		"EUR": decimal.NewFromFloat(1.25),
	})
	view := newView(
		[]domain.Account{
			{ID: "eur", Balance: dec(400), Currency: "EUR", TaxTreatment: domain.TaxTaxable, CostBasis: dec(400)},
			{ID: "usd", Balance: dec(100), Currency: "USD", TaxTreatment: domain.TaxTaxable, CostBasis: dec(100)},
		},
		nil,
	)

	points := engine.New(table).Calculate(view, engine.Options{Now: testNow})
	pt := pointForYear(t, points, 2030)

	// 400 EUR * 1.25 + 100 USD.
	if pt.Projected == nil || !pt.Projected.Equal(dec(600)) {
		t.Errorf("projected = %v, want 600", pt.Projected)
	}
}
