package pumpfun

import "errors"

var (
	// ErrInvalidAddress is returned for malformed base58 or wrong-length addresses.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrDecode is returned when account data is not a bonding curve.
	ErrDecode = errors.New("bonding curve decode failed")

	// ErrFetch is returned when the chain could not be read.
	ErrFetch = errors.New("bonding curve fetch failed")

	// ErrValuationUnavailable means the mint has no readable bonding curve.
	// Callers treat it as a normal "no curve" state.
	ErrValuationUnavailable = errors.New("bonding curve unavailable")

	// ErrInvalidAmount is returned by simulations for zero input amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)
