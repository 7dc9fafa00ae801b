package config

import "time"

const (
	// HeaderIdempotencyKey carries the client supplied idempotency key for
	// unsafe operations such as checkout and coupon application.
	HeaderIdempotencyKey = "Idempotency-Key"

	// HeaderRequestID echoes the request id assigned by the middleware.
	HeaderRequestID = "X-Request-Id"

	// IdempotencyTTL bounds how long a recorded response is replayed.
	IdempotencyTTL = 24 * time.Hour

	// MaxCartItems caps line items accepted in a single checkout.
	MaxCartItems = 50

	// MaxRequestBodyBytes bounds JSON request bodies.
	MaxRequestBodyBytes = 1 << 20
)
