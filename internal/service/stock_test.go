package service

import (
	"errors"
	"testing"

	"github.com/urbanharvest/vending-api/internal/database"
	"github.com/urbanharvest/vending-api/internal/enum"
)

func TestStockSeverity(t *testing.T) {
	tests := []struct {
		qty, threshold int32
		want           string
	}{
		{0, 500, enum.SeverityCritical},
		{0, 0, enum.SeverityCritical},
		{250, 500, enum.SeverityCritical},
		{251, 500, enum.SeverityWarning},
		{500, 500, enum.SeverityWarning},
		{501, 500, ""},
		{4500, 500, ""},
	}
	for _, tt := range tests {
		if got := StockSeverity(tt.qty, tt.threshold); got != tt.want {
			t.Errorf("StockSeverity(%d, %d) = %q, want %q", tt.qty, tt.threshold, got, tt.want)
		}
	}
}

func TestCrossedThreshold(t *testing.T) {
	if !crossedThreshold(450, 150, 500) {
		t.Error("600 -> 450 with threshold 500 should cross")
	}
	if crossedThreshold(400, 50, 500) {
		t.Error("already below threshold should not cross again")
	}
	if crossedThreshold(4350, 150, 500) {
		t.Error("staying above threshold should not cross")
	}
	if !crossedThreshold(500, 1, 500) {
		t.Error("landing exactly on the threshold should cross")
	}
}

func TestCheckIngredientConstraints(t *testing.T) {
	ginger := database.GetIngredientForOrderRow{Name: "Ginger", MinQtyG: 20, MaxPercentLimit: 30}

	if err := checkIngredientConstraints(ginger, 30, 100); err != nil {
		t.Fatalf("expected 30g of 100g to pass, got: %v", err)
	}
	if err := checkIngredientConstraints(ginger, 19, 1000); !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected minimum violation, got: %v", err)
	}
	if err := checkIngredientConstraints(ginger, 31, 100); !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected percent violation, got: %v", err)
	}
}

func TestDecimalNumericRoundTrip(t *testing.T) {
	n := makeNumeric("8.50")
	if got := numericToDecimal(n).StringFixed(2); got != "8.50" {
		t.Fatalf("expected 8.50, got %s", got)
	}
	if !numericEquals(decimalToNumeric(numericToDecimal(n)), "8.5") {
		t.Fatalf("expected round trip to preserve value")
	}
}
