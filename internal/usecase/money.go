package usecase

import (
	"math"
	"strconv"
	"strings"
)

// MaxMoneyAmount is the largest value a NUMERIC(14, 2) column holds.
const MaxMoneyAmount = 999_999_999_999.99

// validateMoney rejects amounts the store would refuse or silently round.
func validateMoney(field string, v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return validationf("%s must be a finite number", field)
	case v < 0:
		return validationf("%s must not be negative", field)
	case v > MaxMoneyAmount:
		return validationf("%s must not exceed %.2f", field, MaxMoneyAmount)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > 2 {
		return validationf("%s must have at most 2 decimal places", field)
	}
	return nil
}
