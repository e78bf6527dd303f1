package vvc

import "errors"

// Errors returned by the encoder and the decoder.
var (
	// ErrConfig reports an invalid encoder configuration.
	ErrConfig = errors.New("vvc: invalid configuration")
	// ErrPictureSize reports a picture whose size the configuration cannot
	// code, or a reference picture of a different size.
	ErrPictureSize = errors.New("vvc: invalid picture size")
	// ErrNoReference reports an inter picture without a reference.
	ErrNoReference = errors.New("vvc: inter picture without reference")
	// ErrCorrupt reports malformed stream data.
	ErrCorrupt = errors.New("vvc: corrupt stream")
)
