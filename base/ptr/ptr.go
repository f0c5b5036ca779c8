package ptr

import "github.com/x-xyz/nftmarket/domain"

// String return a pointer to the input value
func String(value string) *string {
	return &value
}

// Int return a pointer to the input value
func Int(value int) *int {
	return &value
}

// Bool return a pointer to the input value
func Bool(value bool) *bool {
	return &value
}

// Address returns a pointer to the lowercased address, as filters expect
func Address(value domain.Address) *domain.Address {
	value = value.ToLower()
	return &value
}

func TokenId(value domain.TokenId) *domain.TokenId {
	return &value
}
