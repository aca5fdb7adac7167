package domain

import "errors"

var (
	// ErrJobNotFound is returned when a scan job is unknown or has expired
	ErrJobNotFound = errors.New("scan job not found")

	// ErrProductNotFound is returned when a saved product does not exist
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnsupportedImage is returned when the upload is not an image
	ErrUnsupportedImage = errors.New("unsupported image type")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrLLMAPIFailure is returned when the language model request fails
	ErrLLMAPIFailure = errors.New("language model request failed")

	// ErrEmptyCompletion is returned when the model answers without content
	ErrEmptyCompletion = errors.New("no content in model response")

	// ErrUnparseableResponse is returned when the model response is not JSON
	ErrUnparseableResponse = errors.New("failed to parse model response as JSON")

	// ErrInvalidProductData is returned when the parsed JSON has the wrong shape
	ErrInvalidProductData = errors.New("invalid product data structure")

	// ErrDatabaseFailure is returned when the products table cannot be written or read
	ErrDatabaseFailure = errors.New("database request failed")

	// ErrStorageFailure is returned when the label image cannot be archived
	ErrStorageFailure = errors.New("image storage request failed")
)
