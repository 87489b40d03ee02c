package FiberConfig

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"

	"Kopa/Controllers"
	"Kopa/Ledger"
	"Kopa/Models"
	"Kopa/Mpesa"
	"Kopa/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, ledger *Ledger.Ledger, mpesaClient *Mpesa.Client) {
	// Initialize handlers
	authController := Controllers.NewAuthController(db)
	customerController := Controllers.NewCustomerController(db)
	productController := Controllers.NewProductController(db, ledger)
	loanController := Controllers.NewLoanController(db, ledger)
	paymentController := Controllers.NewPaymentController(db, ledger)
	depositController := Controllers.NewDepositController(db, ledger)
	mpesaController := Controllers.NewMpesaController(db, ledger, mpesaClient)
	jobController := Controllers.NewJobController(ledger)

	// API group
	api := app.Group("/api")

	// Auth routes
	api.Post("/login", authController.Login)
	api.Post("/logout", authController.Logout)
	api.Post("/users", middleware.Verify(Models.PermissionSuperAdmin), authController.Register)

	// Customer routes
	customers := api.Group("/customers", middleware.Verify(Models.PermissionCollector))
	customers.Get("/", customerController.GetCustomers)
	customers.Post("/", middleware.Verify(Models.PermissionManager), customerController.CreateCustomer)
	customers.Get("/:id", customerController.GetCustomer)
	customers.Put("/:id/standing", middleware.Verify(Models.PermissionAdmin), customerController.UpdateStanding)

	// Product routes
	products := api.Group("/products", middleware.Verify(Models.PermissionCollector))
	products.Get("/", productController.GetProducts)
	products.Post("/", middleware.Verify(Models.PermissionAdmin), productController.CreateProduct)
	products.Post("/:id/restock", middleware.Verify(Models.PermissionAdmin), productController.Restock)
	products.Put("/:id/availability", middleware.Verify(Models.PermissionAdmin), productController.SetAvailability)

	// Loan lifecycle
	loans := api.Group("/loans", middleware.Verify(Models.PermissionCollector))
	loans.Get("/", loanController.GetLoans)
	loans.Post("/", loanController.CreateLoan)
	loans.Get("/:id", loanController.GetLoan)
	loans.Get("/:id/schedule", loanController.GetSchedule)
	loans.Post("/:id/approve", middleware.Verify(Models.PermissionManager), loanController.ApproveLoan)
	loans.Post("/:id/reject", middleware.Verify(Models.PermissionManager), loanController.RejectLoan)
	loans.Post("/:id/cancel", loanController.CancelLoan)
	loans.Post("/:id/default", middleware.Verify(Models.PermissionAdmin), loanController.MarkDefaulted)
	loans.Post("/:id/registration-fee", loanController.ConfirmRegistrationFee)

	// Payment lifecycle
	loans.Get("/:loan_id/payments", paymentController.GetLoanPayments)
	loans.Get("/:loan_id/deposits", depositController.GetLoanDeposits)

	payments := api.Group("/payments", middleware.Verify(Models.PermissionCollector))
	payments.Post("/", paymentController.SubmitPayment)
	payments.Post("/collect", paymentController.CollectPayment)
	payments.Post("/:id/approve", middleware.Verify(Models.PermissionManager), paymentController.ApprovePayment)
	payments.Post("/:id/reject", middleware.Verify(Models.PermissionManager), paymentController.RejectPayment)
	payments.Post("/:id/reverse", middleware.Verify(Models.PermissionAdmin), paymentController.ReversePayment)

	// Deposit sub-ledger
	deposits := api.Group("/deposits", middleware.Verify(Models.PermissionCollector))
	deposits.Post("/", depositController.SubmitDeposit)
	deposits.Post("/:id/verify", middleware.Verify(Models.PermissionManager), depositController.VerifyDeposit)
	deposits.Post("/:id/reject", middleware.Verify(Models.PermissionManager), depositController.RejectDeposit)

	// M-PESA gateway bridge. The callback has no auth middleware: the
	// gateway posts to it without a session cookie.
	api.Post("/payments/:payment_id/stkpush", middleware.Verify(Models.PermissionCollector), mpesaController.InitiatePush)
	api.Post("/mpesa/callback", mpesaController.Callback)

	// Batch jobs
	api.Post("/jobs/penalty-run", middleware.Verify(Models.PermissionAdmin), jobController.RunPenaltyCheck)
}

func FiberConfig(db *gorm.DB, ledger *Ledger.Ledger, mpesaClient *Mpesa.Client, port string) {
	app := fiber.New(fiber.Config{
		AppName: "Kopa",
	})

	app.Use(cors.New(cors.Config{
		AllowCredentials: true,
	}))
	app.Use(compress.New())
	app.Use(middleware.Logger())

	SetupRoutes(app, db, ledger, mpesaClient)

	if err := app.Listen(port); err != nil {
		log.Fatal(err)
	}
}
