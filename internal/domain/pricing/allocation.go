package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

var centsPerUnit = decimal.NewFromInt(100)

// toCents converts an amount to whole cents, rounding half away from zero
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(centsPerUnit).Round(0).IntPart()
}

// fromCents converts whole cents back to an amount
func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// allocateCents splits amount across weights proportionally. Cents left over
// after flooring go to the largest fractional remainders, ties to the lower
// index. Non-positive weights receive nothing unless every weight is zero, in
// which case the amount is spread evenly.
func allocateCents(amount int64, weights []int64) []int64 {
	if len(weights) == 0 {
		return nil
	}
	allocations := make([]int64, len(weights))
	if amount <= 0 {
		return allocations
	}

	var totalWeight int64
	for _, w := range weights {
		if w > 0 {
			totalWeight += w
		}
	}
	if totalWeight == 0 {
		base := amount / int64(len(weights))
		remainder := amount % int64(len(weights))
		for i := range allocations {
			allocations[i] = base
			if remainder > 0 {
				allocations[i]++
				remainder--
			}
		}
		return allocations
	}

	type fraction struct {
		idx       int
		remainder decimal.Decimal
	}
	fractions := make([]fraction, len(weights))

	// decimal products keep amount*weight from overflowing int64
	total := decimal.NewFromInt(totalWeight)
	distributed := int64(0)
	for i, w := range weights {
		if w < 0 {
			w = 0
		}
		product := decimal.NewFromInt(amount).Mul(decimal.NewFromInt(w))
		share, rest := product.QuoRem(total, 0)
		allocations[i] = share.IntPart()
		distributed += allocations[i]
		fractions[i] = fraction{idx: i, remainder: rest}
	}

	remainder := amount - distributed
	if remainder <= 0 {
		return allocations
	}

	sort.SliceStable(fractions, func(i, j int) bool {
		if fractions[i].remainder.Equal(fractions[j].remainder) {
			return fractions[i].idx < fractions[j].idx
		}
		return fractions[i].remainder.GreaterThan(fractions[j].remainder)
	})

	for _, f := range fractions {
		if remainder == 0 {
			break
		}
		allocations[f.idx]++
		remainder--
	}
	return allocations
}
