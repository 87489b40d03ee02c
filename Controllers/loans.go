package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Kopa/Ledger"
	"Kopa/Models"
)

// LoanController exposes the loan lifecycle. All mutations delegate to
// the ledger; the controller only parses, validates and maps errors.
type LoanController struct {
	DB     *gorm.DB
	Ledger *Ledger.Ledger
}

func NewLoanController(db *gorm.DB, ledger *Ledger.Ledger) *LoanController {
	return &LoanController{DB: db, Ledger: ledger}
}

func (c *LoanController) CreateLoan(ctx *fiber.Ctx) error {
	var input Ledger.CreateLoanInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	loan, err := c.Ledger.CreateLoan(input)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(loan)
}

func (c *LoanController) GetLoans(ctx *fiber.Ctx) error {
	query := c.DB.Preload("Items")
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := ctx.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	var loans []Models.Loan
	if result := query.Order("created_at DESC").Find(&loans); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve loans"})
	}
	return ctx.JSON(loans)
}

func (c *LoanController) GetLoan(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}
	var loan Models.Loan
	result := c.DB.Preload("Items").Preload("Schedule").Preload("Customer").First(&loan, id)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Loan not found"})
	}
	return ctx.JSON(loan)
}

func (c *LoanController) ApproveLoan(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}
	actor, ok := ctx.Locals("user").(Models.User)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "No acting user"})
	}

	loan, err := c.Ledger.ApproveLoan(uint(id), &actor)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(loan)
}

type ReasonInput struct {
	Reason string `json:"reason"`
}

func (c *LoanController) RejectLoan(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}
	var input ReasonInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	loan, err := c.Ledger.RejectLoan(uint(id), input.Reason)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(loan)
}

func (c *LoanController) CancelLoan(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}
	var input ReasonInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	loan, err := c.Ledger.CancelLoan(uint(id), input.Reason)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(loan)
}

func (c *LoanController) MarkDefaulted(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}
	var input ReasonInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	loan, err := c.Ledger.MarkAsDefaulted(uint(id), input.Reason)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(loan)
}

// ConfirmRegistrationFee advances a gated application once the external
// fee collaborator confirms payment.
func (c *LoanController) ConfirmRegistrationFee(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}
	loan, err := c.Ledger.ConfirmRegistrationFee(uint(id))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(loan)
}

func (c *LoanController) GetSchedule(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}
	var rows []Models.PaymentSchedule
	result := c.DB.Where("loan_id = ?", id).Order("day_number ASC").Find(&rows)
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve schedule"})
	}
	return ctx.JSON(rows)
}
