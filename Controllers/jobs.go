package Controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"Kopa/Ledger"
)

// JobController exposes a manual trigger for the daily penalty run.
type JobController struct {
	Ledger *Ledger.Ledger
}

func NewJobController(ledger *Ledger.Ledger) *JobController {
	return &JobController{Ledger: ledger}
}

func (c *JobController) RunPenaltyCheck(ctx *fiber.Ctx) error {
	report, err := c.Ledger.RunDailyCheck(time.Now())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(report)
}
