package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedEventType is returned when a record of a kind other than
	// sale or transfer reaches the classifier
	ErrUnsupportedEventType = errors.New("unsupported event type")

	// ErrWalletNotFound is returned when an ENS name has no associated wallet
	ErrWalletNotFound = errors.New("no wallet associated with this name")

	// ErrInvalidCriteria is returned for malformed search criteria
	ErrInvalidCriteria = errors.New("invalid search criteria")

	// ErrENSDisabled is returned for name lookups when no RPC endpoint is configured
	ErrENSDisabled = errors.New("ens resolution is not configured")
)

// MalformedPriceError reports a sale whose total price is not a base-10 integer
type MalformedPriceError struct {
	Key string
	Raw string
	Err error
}

func (e *MalformedPriceError) Error() string {
	return fmt.Sprintf("malformed price %q for event %s: %v", e.Raw, e.Key, e.Err)
}

func (e *MalformedPriceError) Unwrap() error {
	return e.Err
}

// NetworkError reports a failed call to an upstream collaborator
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
