package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/config"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
	pkgerrors "github.com/JohnnyHuang0515/ecommerce-backend/pkg/errors"
)

// PricingPolicy computes the money lines of an order from its subtotal.
// Implementations must be pure; the coordinator calls them inside the
// checkout transaction.
type PricingPolicy interface {
	Price(subtotalCents int64, method enums.ShippingMethod) (Quote, error)
}

// Quote is the priced breakdown returned by a policy.
type Quote struct {
	SubtotalCents int64
	TaxCents      int64
	ShippingCents int64
	TotalCents    int64
}

// FlatRatePolicy taxes the subtotal at a fixed rate and charges a flat
// shipping fee per method, optionally waived above a threshold.
type FlatRatePolicy struct {
	taxRate               decimal.Decimal
	standardCents         int64
	expressCents          int64
	pickupCents           int64
	freeShippingOverCents int64
}

// NewFlatRatePolicy parses the configured tax rate once at startup.
func NewFlatRatePolicy(cfg config.PricingConfig) (*FlatRatePolicy, error) {
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rate %q: %w", cfg.TaxRate, err)
	}
	if rate.IsNegative() {
		return nil, fmt.Errorf("tax rate must be non-negative, got %s", cfg.TaxRate)
	}
	return &FlatRatePolicy{
		taxRate:               rate,
		standardCents:         cfg.ShippingStandardCents,
		expressCents:          cfg.ShippingExpressCents,
		pickupCents:           cfg.ShippingPickupFeeCents,
		freeShippingOverCents: cfg.FreeShippingOverCents,
	}, nil
}

func (p *FlatRatePolicy) Price(subtotalCents int64, method enums.ShippingMethod) (Quote, error) {
	if subtotalCents < 0 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must be non-negative")
	}

	var shipping int64
	switch method {
	case enums.ShippingMethodStandard:
		shipping = p.standardCents
	case enums.ShippingMethodExpress:
		shipping = p.expressCents
	case enums.ShippingMethodPickup:
		shipping = p.pickupCents
	default:
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown shipping method %q", method))
	}
	if p.freeShippingOverCents > 0 && subtotalCents >= p.freeShippingOverCents {
		shipping = 0
	}

	// Round half up on the cent, the way receipts do.
	tax := decimal.NewFromInt(subtotalCents).
		Mul(p.taxRate).
		Round(0).
		IntPart()

	return Quote{
		SubtotalCents: subtotalCents,
		TaxCents:      tax,
		ShippingCents: shipping,
		TotalCents:    subtotalCents + tax + shipping,
	}, nil
}
