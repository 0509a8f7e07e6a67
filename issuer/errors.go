package issuer

import (
	"github.com/pkg/errors"
)

// Error kinds; every failure wraps one of these with the failing step, so
// callers distinguish kinds with errors.Is()
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrCrypto               = errors.New("crypto failure")
	ErrMalformedCertificate = errors.New("malformed certificate")
	ErrChainVerification    = errors.New("chain verification failed")
)
