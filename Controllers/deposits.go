package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Kopa/Ledger"
	"Kopa/Models"
)

// DepositController exposes the deposit sub-ledger.
type DepositController struct {
	DB     *gorm.DB
	Ledger *Ledger.Ledger
}

func NewDepositController(db *gorm.DB, ledger *Ledger.Ledger) *DepositController {
	return &DepositController{DB: db, Ledger: ledger}
}

func (c *DepositController) SubmitDeposit(ctx *fiber.Ctx) error {
	var input Ledger.SubmitDepositInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	deposit, err := c.Ledger.SubmitDeposit(input)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(deposit)
}

func (c *DepositController) VerifyDeposit(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid deposit ID"})
	}
	deposit, err := c.Ledger.VerifyDeposit(uint(id), "")
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(deposit)
}

func (c *DepositController) RejectDeposit(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid deposit ID"})
	}
	var input ReasonInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	deposit, err := c.Ledger.RejectDeposit(uint(id), input.Reason)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(deposit)
}

func (c *DepositController) GetLoanDeposits(ctx *fiber.Ctx) error {
	loanID, err := strconv.Atoi(ctx.Params("loan_id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}
	var deposits []Models.Deposit
	result := c.DB.Where("loan_id = ?", loanID).Order("created_at DESC").Find(&deposits)
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve deposits"})
	}
	return ctx.JSON(deposits)
}
