package extract

import "errors"

// ErrExtractionFailed wraps every error returned by an extractor.
var ErrExtractionFailed = errors.New("extraction failed")

// ErrRecognizerUnavailable is returned when the OCR engine cannot be run,
// for example when the tesseract binary is not installed.
var ErrRecognizerUnavailable = errors.New("OCR recognizer unavailable")

// ErrUnsupportedImage is returned for image formats that cannot be decoded.
var ErrUnsupportedImage = errors.New("unsupported image format")
