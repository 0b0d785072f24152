package service

import (
	"testing"

	"kelatic/internal/db"
)

func TestNeedsDeposit(t *testing.T) {
	if NeedsDeposit(&db.Service{Category: "locs"}) {
		t.Errorf("plain service should not need a deposit")
	}
	if !NeedsDeposit(&db.Service{Category: "locs", DepositRequired: true}) {
		t.Errorf("deposit_required service should need a deposit")
	}
	if !NeedsDeposit(&db.Service{Category: "barber"}) {
		t.Errorf("barber services always take a deposit")
	}
}

func TestDepositAmount(t *testing.T) {
	stylist := &db.Profile{FirstName: "Amara"}
	rockal := &db.Profile{FirstName: "Rockal"}

	cases := []struct {
		name    string
		svc     db.Service
		stylist *db.Profile
		want    int
	}{
		{"service-level amount wins", db.Service{DepositAmount: 40, Category: "barber"}, rockal, 40},
		{"barber default", db.Service{Category: "barber"}, stylist, 10},
		{"rockal default", db.Service{Category: "locs", DepositRequired: true}, rockal, 50},
		{"rockal case-insensitive", db.Service{Category: "locs", DepositRequired: true}, &db.Profile{FirstName: " ROCKAL "}, 50},
		{"standard default", db.Service{Category: "locs", DepositRequired: true}, stylist, 25},
		{"no stylist", db.Service{Category: "locs", DepositRequired: true}, nil, 25},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DepositAmount(&c.svc, c.stylist); got != c.want {
				t.Fatalf("DepositAmount = %d, want %d", got, c.want)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	svc := &db.Service{Duration: 90, BasePrice: 120}
	addons := []db.Service{
		{Duration: 30, BasePrice: 25},
		{Duration: 15, BasePrice: 15},
	}
	duration, price := Quote(svc, addons)
	if duration != 135 {
		t.Errorf("duration = %d, want 135", duration)
	}
	if price != 160 {
		t.Errorf("price = %d, want 160", price)
	}

	duration, price = Quote(svc, nil)
	if duration != 90 || price != 120 {
		t.Errorf("bare quote = (%d, %d), want (90, 120)", duration, price)
	}
}
