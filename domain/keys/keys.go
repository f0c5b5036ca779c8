package keys

import (
	"strings"
)

const (
	// PfxHealthCheck is used for prefixing health check redis key
	PfxHealthCheck = "healthcheck"
	// PfxNonce is used for prefixing sign-in nonce key
	PfxNonce = "nonce"
	// PfxLock is used for prefixing distributed lock key
	PfxLock = "lock"
	// PfxListing is used for prefixing closed listing cache
	PfxListing = "listing"
	// PfxAuction is used for prefixing closed auction cache
	PfxAuction = "auction"
)

// CustomKey is used to join the customized key by componets with specified delimiter
func CustomKey(delimiter string, components ...string) string {
	return strings.Join(components, delimiter)
}

// RedisKey is used to join the redis key by componets
func RedisKey(components ...string) string {
	return CustomKey(":", components...)
}

// GetPrefix extracts the prefix of a key for metric tagging.
// Keys with more than two components keep the first two.
func GetPrefix(key string) string {
	s := strings.Split(key, ":")
	if len(s) > 2 {
		return strings.Join(s[:2], ":")
	} else if len(s) > 1 {
		return s[0]
	}
	return ""
}
