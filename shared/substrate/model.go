package substrate

import (
	"errors"
)

const (
	AddressTypeAccountId    = "AccountId"
	AddressTypeMultiAddress = "MultiAddress"
)

var (
	ErrNoKey       = errors.New("no signing key")
	ErrKeyNotFound = errors.New("key not found")
	ErrNoSubkey    = errors.New("subkey binary not found in PATH, it is required for signing")

	errSubscriptionClosed = errors.New("extrinsic subscription closed")
)
