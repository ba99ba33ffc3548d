package domain

import "errors"

var (
	// ErrNotFound is returned by store reads for job ids that were never
	// initialized.
	ErrNotFound = errors.New("job not found")

	// ErrNoBarcode is returned by frame decoders when a frame contains no
	// readable code. It is an expected miss, not a processing failure.
	ErrNoBarcode = errors.New("no barcode found in frame")
)
