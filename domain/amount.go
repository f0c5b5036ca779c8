package domain

import "github.com/shopspring/decimal"

// AmountPrecision is the number of fractional digits of the native currency (wei)
const AmountPrecision = 18

const (
	// maxWeiBits is the width of an on-chain amount in wei
	maxWeiBits = 256
	// maxCoefficientBits keeps parsed coefficients to a size a uint256 amount can be written with
	maxCoefficientBits = 2 * maxWeiBits
	// a uint256 has 78 digits, wider exponents are either out of range or below one wei
	maxExponent = 78
	minExponent = -(AmountPrecision + 2*maxExponent)
)

// InRange reports whether the amount in wei fits in a uint256. The coefficient and exponent
// are bounded before the amount is rescaled, so huge exponents are rejected cheaply.
func InRange(amount decimal.Decimal) bool {
	if exp := amount.Exponent(); exp > maxExponent || exp < minExponent {
		return false
	}
	if amount.Coefficient().BitLen() > maxCoefficientBits {
		return false
	}
	return amount.Shift(AmountPrecision).BigInt().BitLen() <= maxWeiBits
}

// IsExact reports whether the amount is in range and fits in the native currency precision
func IsExact(amount decimal.Decimal) bool {
	return InRange(amount) && amount.Truncate(AmountPrecision).Equal(amount)
}

// ValidatePrice checks a listing price or reserve price
func ValidatePrice(price decimal.Decimal, invalid error) error {
	if !price.IsPositive() {
		return invalid
	}
	if !IsExact(price) {
		return ErrInvalidAmount
	}
	return nil
}
