package services

import (
	"github.com/shopspring/decimal"

	"github.com/taskbridge/taskbridge-gobackend/internal/apperr"
)

// Payout split policy: short engagements get front-loaded shares, longer
// ones an even split.
//
//	1 milestone:  100%
//	2 milestones: 30% / 70%
//	3 milestones: 30% / 30% / 40%
//	4+:           finalAmount / count, uniform
var payoutWeights = map[int][]int64{
	1: {100},
	2: {30, 70},
	3: {30, 30, 40},
}

// PayoutAmountFor computes the releasable amount for the milestone at the
// given position. Shares are rounded half-even to 2 minor units; the last
// position absorbs the rounding remainder so the shares always sum to
// finalAmount exactly.
func PayoutAmountFor(index, count int, finalAmount float64) (float64, error) {
	if count <= 0 {
		return 0, apperr.InvalidArgument("milestone count must be positive")
	}
	if index < 0 || index >= count {
		return 0, apperr.InvalidArgument("milestone position %d out of range [0,%d)", index, count)
	}
	if finalAmount <= 0 {
		return 0, apperr.InvalidArgument("final project amount must be positive")
	}
	return payoutShares(decimal.NewFromFloat(finalAmount), count)[index].InexactFloat64(), nil
}

func payoutShares(total decimal.Decimal, count int) []decimal.Decimal {
	weights := payoutWeights[count]
	hundred := decimal.NewFromInt(100)
	n := decimal.NewFromInt(int64(count))

	shares := make([]decimal.Decimal, count)
	sum := decimal.Zero
	for i := 0; i < count-1; i++ {
		var share decimal.Decimal
		if weights != nil {
			share = total.Mul(decimal.NewFromInt(weights[i])).Div(hundred).RoundBank(2)
		} else {
			share = total.Div(n).RoundBank(2)
		}
		shares[i] = share
		sum = sum.Add(share)
	}
	shares[count-1] = total.Sub(sum)
	return shares
}
