// ABOUTME: Sentinel errors for the mixer
// ABOUTME: Startup failures and admission-time argument errors
package mixer

import "errors"

var (
	// ErrNoSources is returned when the device reports zero or negative playback channels
	ErrNoSources = errors.New("mixer: device reports no playback sources")

	// ErrNoBuffers is returned when the per-source buffer count is not positive
	ErrNoBuffers = errors.New("mixer: buffers per source must be positive")

	// ErrInvalidChunk is returned when the chunk size is not a positive multiple of the frame size
	ErrInvalidChunk = errors.New("mixer: chunk size must be a positive multiple of the frame size")

	// ErrInvalidFormat is returned when the device format cannot be mixed
	ErrInvalidFormat = errors.New("mixer: unsupported device format")

	// ErrFormatMismatch is returned when a request's format differs from the device format
	ErrFormatMismatch = errors.New("mixer: format does not match device format")

	// ErrChunkTooLarge is returned when a callback stream asks for more than one chunk per step
	ErrChunkTooLarge = errors.New("mixer: callback length must be between 1 and the chunk size")

	ErrNilDecoder  = errors.New("mixer: nil decoder")
	ErrNilCallback = errors.New("mixer: nil callback")
	ErrEmptySound  = errors.New("mixer: sound has no data")
)
