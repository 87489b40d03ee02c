package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Kopa/Ledger"
	"Kopa/Models"
)

// PaymentController exposes the payment lifecycle.
type PaymentController struct {
	DB     *gorm.DB
	Ledger *Ledger.Ledger
}

func NewPaymentController(db *gorm.DB, ledger *Ledger.Ledger) *PaymentController {
	return &PaymentController{DB: db, Ledger: ledger}
}

// SubmitPayment files a customer payment; it stays pending until a staff
// approval or a gateway callback settles it.
func (c *PaymentController) SubmitPayment(ctx *fiber.Ctx) error {
	var input Ledger.SubmitPaymentInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	payment, err := c.Ledger.SubmitPayment(input)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(payment)
}

// CollectPayment records an in-person collection; it settles immediately.
func (c *PaymentController) CollectPayment(ctx *fiber.Ctx) error {
	var input Ledger.SubmitPaymentInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}
	input.AdminOriginated = true

	payment, err := c.Ledger.SubmitPayment(input)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(payment)
}

func (c *PaymentController) ApprovePayment(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}
	payment, err := c.Ledger.ApprovePayment(uint(id))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(payment)
}

func (c *PaymentController) RejectPayment(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}
	var input ReasonInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	payment, err := c.Ledger.RejectPayment(uint(id), input.Reason)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(payment)
}

func (c *PaymentController) ReversePayment(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}
	payment, err := c.Ledger.ReversePayment(uint(id))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(payment)
}

func (c *PaymentController) GetLoanPayments(ctx *fiber.Ctx) error {
	loanID, err := strconv.Atoi(ctx.Params("loan_id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}
	var payments []Models.Payment
	result := c.DB.Where("loan_id = ?", loanID).Order("created_at DESC").Find(&payments)
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve payments"})
	}
	return ctx.JSON(payments)
}
