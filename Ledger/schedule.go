package Ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"Kopa/Models"
	"Kopa/Money"
)

// GenerateSchedule produces one row per repayment day. Every row except
// the last expects the same amount; the last absorbs the rounding
// remainder so the rows always sum back to amount exactly.
func GenerateSchedule(loanID uint, amount decimal.Decimal, days int, disbursement time.Time) []Models.PaymentSchedule {
	if days < 1 {
		days = 1
	}
	part, last := Money.SplitEvenly(amount, days)

	rows := make([]Models.PaymentSchedule, 0, days)
	for day := 1; day <= days; day++ {
		expected := part
		if day == days {
			expected = last
		}
		rows = append(rows, Models.PaymentSchedule{
			LoanID:         loanID,
			DayNumber:      day,
			DueDate:        dateOnly(disbursement).AddDate(0, 0, day),
			ExpectedAmount: expected,
			PaidAmount:     decimal.Zero,
			PenaltyAmount:  decimal.Zero,
			Status:         Models.SchedulePending,
		})
	}
	return rows
}

// adjustedDuration shortens the standard window by the whole days already
// funded by the verified deposit, never below a single day.
func adjustedDuration(total, depositPaid decimal.Decimal, days int) int {
	if days < 1 {
		days = 1
	}
	if !depositPaid.GreaterThan(decimal.Zero) {
		return days
	}
	baseDaily, _ := Money.SplitEvenly(total, days)
	if !baseDaily.GreaterThan(decimal.Zero) {
		return days
	}
	funded := int(depositPaid.Div(baseDaily).IntPart())
	adjusted := days - funded
	if adjusted < 1 {
		adjusted = 1
	}
	return adjusted
}
