package domain

import "github.com/shopspring/decimal"

// TotalPolicy decides whether CreateOrder trusts the caller's total
type TotalPolicy string

const (
	// TotalPolicyTrust accepts the declared total as-is
	TotalPolicyTrust TotalPolicy = "trust"
	// TotalPolicyVerify reconciles the declared total against the items
	TotalPolicyVerify TotalPolicy = "verify"
)

// CalculateTotal sums price × quantity over items with exact decimal arithmetic
func CalculateTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

// ReconcileTotal returns the total to persist. A declared total must equal
// the calculated one; without a declared total the calculated one is used.
func ReconcileTotal(items []OrderItem, declared *float64) (float64, error) {
	calculated := CalculateTotal(items)
	if declared == nil {
		return calculated.InexactFloat64(), nil
	}

	d := decimal.NewFromFloat(*declared)
	if !d.Equal(calculated) {
		return 0, NewTotalMismatch(d.String(), calculated.String())
	}
	return *declared, nil
}
