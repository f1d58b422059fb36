// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across codec/crypto/delivery layers.
var (
	// ErrMalformedInput indicates a decoding failure (base64url, key material).
	ErrMalformedInput = errors.New("malformed input")

	// ErrPayloadTooLarge indicates the plaintext does not fit a single
	// aes128gcm record and the message must be rejected.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrInvalidSignatureEncoding indicates an ECDSA signature whose DER
	// structure cannot be parsed.
	ErrInvalidSignatureEncoding = errors.New("invalid signature encoding")

	// ErrSubscriptionExpired indicates the push service answered 404/410;
	// the subscription must be deleted.
	ErrSubscriptionExpired = errors.New("subscription expired")

	// ErrTransientDelivery indicates a network failure, timeout or
	// unexpected status; no retry within the run.
	ErrTransientDelivery = errors.New("transient delivery failure")

	// ErrConfigurationMissing indicates absent or undecodable VAPID
	// material at startup; fatal for the subsystem.
	ErrConfigurationMissing = errors.New("configuration missing")
)
