package Controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Kopa/Ledger"
	"Kopa/Models"
	"Kopa/Money"
)

// ProductController handles the product catalog. Stock mutations go
// through the ledger so availability flips stay consistent.
type ProductController struct {
	DB     *gorm.DB
	Ledger *Ledger.Ledger
}

func NewProductController(db *gorm.DB, ledger *Ledger.Ledger) *ProductController {
	return &ProductController{DB: db, Ledger: ledger}
}

type CreateProductInput struct {
	Name          string  `json:"name" validate:"required"`
	Price         float64 `json:"price" validate:"required,gt=0"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
}

func (c *ProductController) CreateProduct(ctx *fiber.Ctx) error {
	var input CreateProductInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	product := Models.Product{
		Name:          input.Name,
		Price:         Money.FromFloat(input.Price),
		StockQuantity: input.StockQuantity,
		IsAvailable:   input.StockQuantity > 0,
	}
	if result := c.DB.Create(&product); result.Error != nil {
		if strings.Contains(result.Error.Error(), "UNIQUE") || strings.Contains(result.Error.Error(), "Duplicate entry") {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A product with this name already exists"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create product"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(product)
}

func (c *ProductController) GetProducts(ctx *fiber.Ctx) error {
	var products []Models.Product
	if result := c.DB.Find(&products); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve products"})
	}
	return ctx.JSON(products)
}

type RestockInput struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func (c *ProductController) Restock(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID"})
	}
	var input RestockInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	product, err := c.Ledger.RestoreStock(uint(id), input.Quantity)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(product)
}

type AvailabilityInput struct {
	IsAvailable bool `json:"is_available"`
}

func (c *ProductController) SetAvailability(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID"})
	}
	var input AvailabilityInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	product, err := c.Ledger.SetAvailability(uint(id), input.IsAvailable)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(product)
}
