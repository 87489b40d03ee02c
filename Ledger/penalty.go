package Ledger

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"Kopa/Models"
	"Kopa/Money"
)

// PenaltyReport summarizes one daily run.
type PenaltyReport struct {
	LoansChecked      int             `json:"loans_checked"`
	RowsMarkedOverdue int             `json:"rows_marked_overdue"`
	PenaltiesApplied  int             `json:"penalties_applied"`
	PenaltyTotal      decimal.Decimal `json:"penalty_total"`
	LoansDefaulted    int             `json:"loans_defaulted"`
}

// RunDailyCheck is the once-per-day batch over every disbursed loan:
// restate schedule rows, accrue the daily penalty on overdue rows that
// have not been penalized today, and default loans past the missed-days
// threshold. Each loan is processed independently, so a failure on one
// loan does not stop the run.
func (l *Ledger) RunDailyCheck(today time.Time) (*PenaltyReport, error) {
	today = dateOnly(today)

	var loans []Models.Loan
	err := l.DB.Where("status IN ?", []string{Models.LoanApproved, Models.LoanActive}).Find(&loans).Error
	if err != nil {
		return nil, err
	}

	report := &PenaltyReport{PenaltyTotal: decimal.Zero}
	for i := range loans {
		if err := l.checkLoan(&loans[i], today, report); err != nil {
			log.Printf("Daily check failed for loan %s: %v\n", loans[i].LoanNumber, err)
			continue
		}
		report.LoansChecked++
	}
	return report, nil
}

func (l *Ledger) checkLoan(loan *Models.Loan, today time.Time, report *PenaltyReport) error {
	unlock := l.locks.lockLoan(loan.ID)
	defer unlock()

	return l.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(loan, loan.ID).Error; err != nil {
			return notFoundOr(err)
		}
		var rows []Models.PaymentSchedule
		if err := tx.Where("loan_id = ?", loan.ID).Order("day_number asc").Find(&rows).Error; err != nil {
			return err
		}

		missed := 0
		overdueAmount := decimal.Zero
		penaltyAccrued := decimal.Zero

		for i := range rows {
			row := &rows[i]
			before := row.Status
			row.Restate(today)
			if row.Status == Models.ScheduleOverdue && before != Models.ScheduleOverdue {
				report.RowsMarkedOverdue++
			}

			if row.Status == Models.ScheduleOverdue {
				missed++
				overdueAmount = overdueAmount.Add(row.Shortfall())

				if !penalizedToday(row, today) {
					penalty := Money.Percent(row.Shortfall(), l.Policy.DailyPenaltyRate)
					if penalty.GreaterThan(decimal.Zero) {
						row.PenaltyAmount = row.PenaltyAmount.Add(penalty)
						row.PenaltyApplied = true
						applied := today
						row.PenaltyAppliedDate = &applied
						penaltyAccrued = penaltyAccrued.Add(penalty)
						report.PenaltiesApplied++
					}
				}
			}

			if row.Status != before || penalizedToday(row, today) {
				if err := tx.Save(row).Error; err != nil {
					return err
				}
			}
		}

		if penaltyAccrued.GreaterThan(decimal.Zero) {
			loan.TotalPenaltyAmount = loan.TotalPenaltyAmount.Add(penaltyAccrued)
			report.PenaltyTotal = report.PenaltyTotal.Add(penaltyAccrued)
			if err := tx.Save(loan).Error; err != nil {
				return err
			}
		}

		if missed >= l.Policy.DefaultThresholdDays {
			reason := fmt.Sprintf("%d missed payments, %s overdue", missed, overdueAmount.StringFixed(2))
			if err := markAsDefaulted(tx, loan, reason); err != nil {
				return err
			}
			report.LoansDefaulted++
		}
		return nil
	})
}

// penalizedToday guards against charging the same row twice in one day.
func penalizedToday(row *Models.PaymentSchedule, today time.Time) bool {
	return row.PenaltyApplied && row.PenaltyAppliedDate != nil && dateOnly(*row.PenaltyAppliedDate).Equal(today)
}
