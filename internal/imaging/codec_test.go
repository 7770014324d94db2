package imaging

import (
	"bytes"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestEncodeDecodePNG(t *testing.T) {
	img := createEdgeTestImage(20, 10)

	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Bounds().Dx() != 20 || decoded.Bounds().Dy() != 10 {
		t.Errorf("dimensions: got %v, want 20x10", decoded.Bounds())
	}
	if r, _, _, _ := decoded.At(10, 5).RGBA(); r != 0 {
		t.Error("center pixel should be black")
	}
}

func TestDecode_JPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createInMemoryImage(16, 8, color.White), nil); err != nil {
		t.Fatalf("jpeg.Encode failed: %v", err)
	}

	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Errorf("dimensions: got %v, want 16x8", img.Bounds())
	}
}

func TestBase64RoundTrip(t *testing.T) {
	s, err := EncodeBase64PNG(createInMemoryImage(3, 3, color.Black))
	if err != nil {
		t.Fatalf("EncodeBase64PNG failed: %v", err)
	}

	img, err := DecodeBase64(s)
	if err != nil {
		t.Fatalf("DecodeBase64 failed: %v", err)
	}
	if img.Bounds().Dx() != 3 {
		t.Errorf("width: got %d, want 3", img.Bounds().Dx())
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode([]byte("not an image")); err == nil {
		t.Error("Decode should fail on garbage")
	}
	if _, err := DecodeBase64("%%%"); err == nil {
		t.Error("DecodeBase64 should fail on bad base64")
	}
}
