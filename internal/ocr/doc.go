// Package ocr reads component designators off circuit drawings with
// Tesseract.
//
// Hand-drawn schematics often label parts the SPICE way: R1, C2, V1, and so
// on. DesignatorDetector turns every such word into a component centered on
// the word's box, giving an offline recognizer that needs no model service.
// It finds labeled components only and knows nothing of orientation or size,
// so its scores are a floor for real recognizers to beat.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language used; "eng" is the
// default.
package ocr
