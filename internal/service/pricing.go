package service

import (
	"strings"

	"kelatic/internal/db"
)

// Category whose services always take a deposit, regardless of the
// service-level flag.
const categoryBarber = "barber"

// Deposit defaults in dollars when the service does not set its own amount.
const (
	depositDefault = 25
	depositBarber  = 10
	depositRockal  = 50
)

func NeedsDeposit(svc *db.Service) bool {
	return svc.DepositRequired || svc.Category == categoryBarber
}

// DepositAmount resolves the deposit in dollars: the service-level amount
// when set, otherwise category and stylist defaults. Rockal books out weeks
// ahead and takes a higher deposit.
func DepositAmount(svc *db.Service, stylist *db.Profile) int {
	if svc.DepositAmount > 0 {
		return svc.DepositAmount
	}
	if svc.Category == categoryBarber {
		return depositBarber
	}
	if stylist != nil && strings.EqualFold(strings.TrimSpace(stylist.FirstName), "rockal") {
		return depositRockal
	}
	return depositDefault
}

// ToCents converts a dollar amount to the integer cents Stripe expects.
func ToCents(dollars int) int64 {
	return int64(dollars) * 100
}

// Quote sums the base service with its add-ons.
func Quote(svc *db.Service, addons []db.Service) (durationMin, price int) {
	durationMin = svc.Duration
	price = svc.BasePrice
	for _, addon := range addons {
		durationMin += addon.Duration
		price += addon.BasePrice
	}
	return durationMin, price
}
