package keypair

import "errors"

var (
	// ErrInvalidArgument is returned for caller supplied values of the wrong size or shape.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedAlgorithm is returned when an algorithm is not usable for the operation, key or backend.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrMissingRequiredKeyComponent is returned when an operation needs the private half of a public-only key pair.
	ErrMissingRequiredKeyComponent = errors.New("missing required key component")

	// ErrBufferTooLargeForAlgorithm is returned when a plaintext exceeds the algorithm's maximum.
	ErrBufferTooLargeForAlgorithm = errors.New("buffer too large for algorithm")

	// ErrShortBuffer is returned when the output buffer lacks the capacity for the result.
	ErrShortBuffer = errors.New("short buffer")

	// ErrSystemCallFailure is returned when the backend fails.
	ErrSystemCallFailure = errors.New("system call failure")

	// ErrSignatureValidationFailed is returned by Verify for a signature that does not match.
	ErrSignatureValidationFailed = errors.New("signature validation failed")
)
