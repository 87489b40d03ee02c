package main

import (
	"log"

	"Kopa/Config"
	"Kopa/CronJobs"
	"Kopa/FiberConfig"
	"Kopa/Ledger"
	"Kopa/Models"
	"Kopa/Mpesa"
)

func main() {
	Config.Load()
	Models.Connect(Config.Current.DatabasePath)

	ledger := Ledger.NewLedger(Models.DB, Ledger.Policy{
		LoanDurationDays:     Config.Current.LoanDurationDays,
		DailyPenaltyRate:     Config.Current.DailyPenaltyRate,
		DefaultThresholdDays: Config.Current.DefaultThresholdDays,
	})

	penaltyChecker := CronJobs.NewPenaltyChecker(ledger, false)
	if err := penaltyChecker.Start(); err != nil {
		log.Fatal("Failed to start penalty checker:", err)
	}
	defer penaltyChecker.Stop()

	mpesaClient := Mpesa.NewClient(
		Config.Current.MpesaBaseURL,
		Config.Current.MpesaShortCode,
		Config.Current.MpesaPasskey,
		Config.Current.MpesaCallbackURL,
		Config.Current.GatewayDisabled,
	)

	FiberConfig.FiberConfig(Models.DB, ledger, mpesaClient, Config.Current.Port)
}
