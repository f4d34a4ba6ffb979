package domain

import "github.com/shopspring/decimal"

// Point conversion policy: points convert only in whole lots.
const PointLotSize int64 = 1000

// PointLotValue is the currency credited per converted lot.
var PointLotValue = decimal.NewFromInt(10)

// ConvertiblePoints returns how many whole lots the balance covers, the
// points those lots consume and the currency they are worth. A sub-lot
// remainder stays un-converted.
func ConvertiblePoints(points int64) (lots int64, consumed int64, value decimal.Decimal) {
	if points < PointLotSize {
		return 0, 0, decimal.Zero
	}

	lots = points / PointLotSize
	consumed = lots * PointLotSize
	value = PointLotValue.Mul(decimal.NewFromInt(lots))

	return lots, consumed, value
}
