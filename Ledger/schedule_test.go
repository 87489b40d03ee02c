package Ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestGenerateScheduleSumInvariant(t *testing.T) {
	cases := []struct {
		amount string
		days   int
	}{
		{"12000", 30},
		{"10000", 3},
		{"57500", 90},
		{"0.05", 7},
		{"99999.97", 13},
	}
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, c := range cases {
		rows := GenerateSchedule(1, dec(c.amount), c.days, start)
		if len(rows) != c.days {
			t.Errorf("%s/%d: rows = %d", c.amount, c.days, len(rows))
			continue
		}
		sum := decimal.Zero
		for _, row := range rows {
			sum = sum.Add(row.ExpectedAmount)
		}
		if !sum.Equal(dec(c.amount)) {
			t.Errorf("%s/%d: schedule sums to %s, must equal the total exactly", c.amount, c.days, sum)
		}
	}
}

func TestGenerateScheduleDueDates(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := GenerateSchedule(1, dec("300"), 3, start)

	for i, row := range rows {
		if row.DayNumber != i+1 {
			t.Errorf("row %d: day_number = %d", i, row.DayNumber)
		}
		want := start.AddDate(0, 0, i+1)
		if !row.DueDate.Equal(want) {
			t.Errorf("day %d: due_date = %v, want %v", row.DayNumber, row.DueDate, want)
		}
	}
}

func TestGenerateScheduleFinalDayAbsorbsRemainder(t *testing.T) {
	rows := GenerateSchedule(1, dec("10000"), 3, time.Now())
	if !rows[0].ExpectedAmount.Equal(dec("3333.33")) {
		t.Errorf("non-final day = %s, want 3333.33", rows[0].ExpectedAmount)
	}
	if !rows[2].ExpectedAmount.Equal(dec("3333.34")) {
		t.Errorf("final day = %s, want 3333.34", rows[2].ExpectedAmount)
	}
}

func TestAdjustedDuration(t *testing.T) {
	cases := []struct {
		total   string
		deposit string
		days    int
		want    int
	}{
		{"3000", "0", 30, 30},
		{"3000", "500", 30, 25},   // daily 100, deposit funds 5 days
		{"3000", "250", 30, 28},   // partial day does not count
		{"3000", "2999", 30, 1},   // never below one day
		{"3000", "10000", 30, 1},
	}
	for _, c := range cases {
		got := adjustedDuration(dec(c.total), dec(c.deposit), c.days)
		if got != c.want {
			t.Errorf("adjustedDuration(%s, %s, %d) = %d, want %d", c.total, c.deposit, c.days, got, c.want)
		}
	}
}
