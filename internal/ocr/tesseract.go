package ocr

import (
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/photocircuit/internal/imaging"
)

// designatorChars limits recognition to what a designator can contain.
const designatorChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Word is one recognized word and where it sits in the image.
type Word struct {
	Text string `json:"text"`
	// Confidence is Tesseract's confidence scaled to 0..1.
	Confidence float64         `json:"confidence"`
	Bounds     image.Rectangle `json:"bounds"`
}

// ReadWords runs Tesseract over img in sparse-text mode and returns every
// non-empty word with its box.
func ReadWords(img image.Image, language string) ([]Word, error) {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation: %w", err)
	}
	if err := client.SetWhitelist(designatorChars); err != nil {
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		words = append(words, Word{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			Bounds:     box.Box,
		})
	}
	return words, nil
}

// Info describes the OCR backend.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Backend   string `json:"backend"`
}

// GetInfo reports the linked Tesseract version.
func GetInfo() Info {
	version := gosseract.Version()
	return Info{
		Available: version != "",
		Version:   version,
		Backend:   "gosseract",
	}
}
