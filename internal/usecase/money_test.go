package usecase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMoney(t *testing.T) {
	cases := []struct {
		v     float64
		valid bool
	}{
		{0, true},
		{0.07, true},
		{10.5, true},
		{450, true},
		{MaxMoneyAmount, true},
		{-0.01, false},
		{10.005, false},
		{0.0000001, false},
		{1e13, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for _, tc := range cases {
		err := validateMoney("amount", tc.v)
		if tc.valid {
			assert.NoError(t, err, "%v", tc.v)
			continue
		}
		assert.ErrorIs(t, err, ErrValidation, "%v", tc.v)
	}
}
