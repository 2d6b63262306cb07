package ddq

import "errors"

// Category errors for the pipeline stages. Callers map these to HTTP
// statuses with errors.Is; the wrapped detail stays in logs only.
var (
	ErrValidation           = errors.New("invalid request")
	ErrRetrievalUnavailable = errors.New("search service unavailable")
	ErrSynthesis            = errors.New("answer synthesis failed")
	ErrUpload               = errors.New("artifact upload failed")
)
