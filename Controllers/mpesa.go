package Controllers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Kopa/Ledger"
	"Kopa/Models"
	"Kopa/Mpesa"
)

// MpesaController bridges the payment gateway: it fires STK pushes for
// pending payments and receives the asynchronous results.
type MpesaController struct {
	DB     *gorm.DB
	Ledger *Ledger.Ledger
	Client *Mpesa.Client
}

func NewMpesaController(db *gorm.DB, ledger *Ledger.Ledger, client *Mpesa.Client) *MpesaController {
	return &MpesaController{DB: db, Ledger: ledger, Client: client}
}

type InitiateInput struct {
	Phone string `json:"phone" validate:"required"`
}

// InitiatePush sends the mobile-money prompt for a pending M-PESA payment.
// Settlement happens later through Callback, never in this request.
func (c *MpesaController) InitiatePush(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("payment_id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}
	var input InitiateInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	var payment Models.Payment
	if result := c.DB.First(&payment, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	}
	if payment.Status != Models.PaymentPending {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment is not pending"})
	}
	if payment.Method != Models.MethodMpesa {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Payment method is not mpesa"})
	}

	response, err := c.Client.InitiateSTKPush(input.Phone, payment.Amount, payment.TransactionID, "Loan repayment")
	if err != nil {
		log.Printf("STK push failed for payment %s: %v\n", payment.TransactionID, err)
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to initiate payment prompt"})
	}
	return ctx.JSON(response)
}

// Callback receives the gateway result. It is tolerant of duplicate
// deliveries: a transaction that already settled is acknowledged again
// without being re-applied.
func (c *MpesaController) Callback(ctx *fiber.Ctx) error {
	var payload Mpesa.CallbackPayload
	if err := ctx.BodyParser(&payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	err := c.Ledger.HandleGatewayResult(payload.TransactionID, payload.Success, payload.MpesaReceiptNumber, payload.FailureReason)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Callback processed"})
}
