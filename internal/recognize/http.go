package recognize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photocircuit/internal/circuit"
	"github.com/ironsheep/photocircuit/internal/logger"
)

// maxResponse caps how much of a recognizer response is read.
const maxResponse = 4 << 20

// HTTPDetector posts the grid PNG to a recognizer service as a multipart
// form: the image in field "file", plus "grid_step" and "include_grid". The
// service answers 200 with YAML or JSON in the format Parser reads.
type HTTPDetector struct {
	URL    string
	Client *http.Client
	Parser Parser
}

// NewHTTPDetector returns a detector with its own client and timeout.
func NewHTTPDetector(url string, parser Parser, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
		Parser: parser,
	}
}

// Detect implements Detector.
func (d *HTTPDetector) Detect(ctx context.Context, img image.Image, gridStep int, includeGrid bool) (circuit.ComponentSet, error) {
	input, _, err := PrepareImage(img, gridStep, includeGrid)
	if err != nil {
		return circuit.ComponentSet{}, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "circuit.png")
	if err != nil {
		return circuit.ComponentSet{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(input); err != nil {
		return circuit.ComponentSet{}, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.WriteField("grid_step", strconv.Itoa(gridStep)); err != nil {
		return circuit.ComponentSet{}, fmt.Errorf("write grid_step: %w", err)
	}
	if err := writer.WriteField("include_grid", strconv.FormatBool(includeGrid)); err != nil {
		return circuit.ComponentSet{}, fmt.Errorf("write include_grid: %w", err)
	}
	if err := writer.Close(); err != nil {
		return circuit.ComponentSet{}, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, body)
	if err != nil {
		return circuit.ComponentSet{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return circuit.ComponentSet{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return circuit.ComponentSet{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return circuit.ComponentSet{}, fmt.Errorf("recognizer failed with status: %d", resp.StatusCode)
	}

	set, skipped, err := d.Parser.Parse(data)
	if err != nil {
		return circuit.ComponentSet{}, err
	}
	logger.WithFields(logrus.Fields{
		"recognizer": d.URL,
		"components": set.Len(),
		"skipped":    skipped,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("Recognizer finished")
	return set, nil
}
