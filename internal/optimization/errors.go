package optimization

import "errors"

var (
	// ErrInvalidResponse means the provider answered with JSON of the wrong shape.
	ErrInvalidResponse = errors.New("ai response has unexpected shape")
	// ErrNoCVText means a score call had no text and the stored CV rendered empty.
	ErrNoCVText = errors.New("cv has no content to score")
)
