package CronJobs

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"Kopa/Ledger"
)

// PenaltyChecker runs the Penalty & Default pass once per day. The ledger
// does the actual work; this only owns the schedule.
type PenaltyChecker struct {
	cronScheduler  *cron.Cron
	ledger         *Ledger.Ledger
	runImmediately bool
	jobID          cron.EntryID
}

// NewPenaltyChecker creates the daily checker.
func NewPenaltyChecker(ledger *Ledger.Ledger, runImmediately bool) *PenaltyChecker {
	return &PenaltyChecker{
		cronScheduler:  cron.New(cron.WithSeconds()),
		ledger:         ledger,
		runImmediately: runImmediately,
	}
}

// Start schedules the daily run at 01:00 AM.
func (p *PenaltyChecker) Start() error {
	var err error
	p.jobID, err = p.cronScheduler.AddFunc("0 0 1 * * *", func() {
		log.Println("Running scheduled daily penalty check")
		p.runCheck()
	})
	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	p.cronScheduler.Start()
	log.Println("Penalty check scheduler started - will run daily at 1:00 AM")

	if p.runImmediately {
		log.Println("Running initial penalty check")
		p.runCheck()
	}
	return nil
}

// Stop terminates the scheduler.
func (p *PenaltyChecker) Stop() {
	if p.cronScheduler != nil {
		p.cronScheduler.Stop()
		log.Println("Penalty check scheduler stopped")
	}
}

// UpdateSchedule changes when the daily check fires.
// Format: "0 0 1 * * *" = At 01:00:00 AM every day
func (p *PenaltyChecker) UpdateSchedule(schedule string) error {
	p.cronScheduler.Remove(p.jobID)

	var err error
	p.jobID, err = p.cronScheduler.AddFunc(schedule, func() {
		log.Println("Running scheduled penalty check")
		p.runCheck()
	})
	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}

	log.Printf("Penalty check schedule updated to: %s\n", schedule)
	return nil
}

// RunManualCheck executes a check outside the schedule.
func (p *PenaltyChecker) RunManualCheck() {
	log.Println("Running manual penalty check")
	p.runCheck()
}

func (p *PenaltyChecker) runCheck() {
	report, err := p.ledger.RunDailyCheck(time.Now())
	if err != nil {
		log.Printf("Error in penalty check: %v\n", err)
		return
	}
	log.Printf("Penalty check completed: %d loans checked, %d rows overdue, %d penalties (%s), %d loans defaulted\n",
		report.LoansChecked, report.RowsMarkedOverdue, report.PenaltiesApplied,
		report.PenaltyTotal.StringFixed(2), report.LoansDefaulted)
}
