package Config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Settings carries the tunable business knobs. Everything has a working
// default so the service boots without an .env file in development.
type Settings struct {
	DatabasePath string
	Port         string
	JWTSecret    string

	// Loan terms
	LoanDurationDays int

	// Penalty & default policy
	DailyPenaltyRate     decimal.Decimal // percent per day on overdue amounts
	DefaultThresholdDays int             // missed schedule days before a loan defaults

	// M-PESA gateway
	MpesaBaseURL      string
	MpesaCallbackURL  string
	MpesaPasskey      string
	MpesaShortCode    string
	GatewayDisabled   bool
}

var Current Settings

// Load reads .env (if present) and environment variables into Current.
func Load() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	Current = Settings{
		DatabasePath:         getEnv("DB_PATH", "database.db"),
		Port:                 getEnv("PORT", ":8000"),
		JWTSecret:            getEnv("JWT_SECRET", "secret"),
		LoanDurationDays:     getEnvInt("LOAN_DURATION_DAYS", 90),
		DailyPenaltyRate:     getEnvDecimal("DAILY_PENALTY_RATE", "1"),
		DefaultThresholdDays: getEnvInt("DEFAULT_THRESHOLD_DAYS", 14),
		MpesaBaseURL:         getEnv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
		MpesaCallbackURL:     getEnv("MPESA_CALLBACK_URL", ""),
		MpesaPasskey:         getEnv("MPESA_PASSKEY", ""),
		MpesaShortCode:       getEnv("MPESA_SHORTCODE", ""),
		GatewayDisabled:      getEnv("MPESA_DISABLED", "") == "1",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("Invalid value for %s: %v, using default %d\n", key, err, fallback)
			return fallback
		}
		return n
	}
	return fallback
}

func getEnvDecimal(key, fallback string) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Printf("Invalid value for %s: %v, using default %s\n", key, err, fallback)
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}
