package status

import "errors"

var (
	ErrUnauthenticated      = errors.New("checkout: no authenticated session")
	ErrOrderRejected        = errors.New("checkout: order creation rejected")
	ErrUserCancelled        = errors.New("checkout: payment cancelled by user")
	ErrCaptureTimeout       = errors.New("checkout: payment capture timed out")
	ErrVerificationRejected = errors.New("checkout: payment verification failed")
)
