package Controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"Kopa/Models"
)

var validate = validator.New()

// respondError maps ledger errors onto HTTP statuses. Business-rule
// payloads carry the numbers an operator needs, so no re-query is needed
// on the client side.
func respondError(ctx *fiber.Ctx, err error) error {
	var validationErr *Models.ValidationError
	var creditErr *Models.CreditLimitError
	var stockErr *Models.InsufficientStockError
	var transitionErr *Models.InvalidTransitionError
	var balanceErr *Models.AmountExceedsBalanceError
	var depositErr *Models.AmountExceedsDepositError

	switch {
	case errors.As(err, &validationErr), errors.Is(err, Models.ErrRejectionReasonEmpty):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, Models.ErrNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, Models.ErrUnauthorized):
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})

	case errors.As(err, &stockErr):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":       stockErr.Error(),
			"short_items": stockErr.Items,
		})

	case errors.As(err, &creditErr):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":        creditErr.Error(),
			"credit_limit": creditErr.CreditLimit,
			"outstanding":  creditErr.Outstanding,
			"requested":    creditErr.Requested,
		})

	case errors.As(err, &balanceErr), errors.As(err, &depositErr):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})

	case errors.As(err, &transitionErr),
		errors.Is(err, Models.ErrCustomerBlacklisted),
		errors.Is(err, Models.ErrCustomerInactive),
		errors.Is(err, Models.ErrPaymentNotPending),
		errors.Is(err, Models.ErrPaymentNotCompleted),
		errors.Is(err, Models.ErrDepositNotPending),
		errors.Is(err, Models.ErrRejectionLimit):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})

	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// validationMessage flattens validator errors into one readable line.
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		first := errs[0]
		return "invalid field " + first.Field() + ": failed " + first.Tag() + " check"
	}
	return err.Error()
}
