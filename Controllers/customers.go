package Controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Kopa/Models"
	"Kopa/Money"
)

// CustomerController handles customer accounts. Balance counters on the
// customer are owned by the ledger; this controller never touches them.
type CustomerController struct {
	DB *gorm.DB
}

func NewCustomerController(db *gorm.DB) *CustomerController {
	return &CustomerController{DB: db}
}

type CreateCustomerInput struct {
	Name           string  `json:"name" validate:"required"`
	Phone          string  `json:"phone" validate:"required"`
	CreditLimit    float64 `json:"credit_limit" validate:"gte=0"`
	PhotoPath      string  `json:"photo_path"`
	NationalIDPath string  `json:"national_id_path"`
}

func (c *CustomerController) CreateCustomer(ctx *fiber.Ctx) error {
	var input CreateCustomerInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	customer := Models.Customer{
		Name:           input.Name,
		Phone:          input.Phone,
		CreditLimit:    Money.FromFloat(input.CreditLimit),
		Status:         Models.CustomerActive,
		PhotoPath:      input.PhotoPath,
		NationalIDPath: input.NationalIDPath,
	}
	if result := c.DB.Create(&customer); result.Error != nil {
		if strings.Contains(result.Error.Error(), "UNIQUE") || strings.Contains(result.Error.Error(), "Duplicate entry") {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A customer with this phone already exists"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create customer"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(customer)
}

func (c *CustomerController) GetCustomers(ctx *fiber.Ctx) error {
	var customers []Models.Customer
	if result := c.DB.Find(&customers); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve customers"})
	}
	return ctx.JSON(customers)
}

func (c *CustomerController) GetCustomer(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}
	var customer Models.Customer
	if result := c.DB.Preload("Loans").First(&customer, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}
	return ctx.JSON(customer)
}

type UpdateStandingInput struct {
	Status      string   `json:"status" validate:"required,oneof=active inactive blacklisted"`
	CreditLimit *float64 `json:"credit_limit" validate:"omitempty,gte=0"`
}

// UpdateStanding changes account status and, optionally, the credit limit.
func (c *CustomerController) UpdateStanding(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}
	var input UpdateStandingInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	var customer Models.Customer
	if result := c.DB.First(&customer, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}
	customer.Status = input.Status
	if input.CreditLimit != nil {
		customer.CreditLimit = Money.FromFloat(*input.CreditLimit)
	}
	if result := c.DB.Save(&customer); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update customer"})
	}
	return ctx.JSON(customer)
}
