package Models

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect(databasePath string) {
	connection, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	DB = connection

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}

// Migrate creates the schema in dependency order.
func Migrate(db *gorm.DB) error {
	// 1. Base entities with no foreign keys
	if err := db.AutoMigrate(
		&User{},
		&Customer{},
		&Product{},
	); err != nil {
		return err
	}

	// 2. Loans depend on customers
	if err := db.AutoMigrate(&Loan{}); err != nil {
		return err
	}

	// 3. Everything hanging off a loan
	return db.AutoMigrate(
		&LoanItem{},
		&PaymentSchedule{},
		&Payment{},
		&Deposit{},
	)
}
