package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photocircuit/internal/circuit"
	"github.com/ironsheep/photocircuit/internal/evaluate"
	"github.com/ironsheep/photocircuit/internal/fixtures"
	"github.com/ironsheep/photocircuit/internal/geometry"
	"github.com/ironsheep/photocircuit/internal/imaging"
	"github.com/ironsheep/photocircuit/internal/logger"
	"github.com/ironsheep/photocircuit/internal/ocr"
	"github.com/ironsheep/photocircuit/internal/recognize"
	"github.com/ironsheep/photocircuit/internal/scoring"
)

var errNoRecognizer = errors.New("no recognizer configured")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "circuit_score").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	log := logger.WithFields(logrus.Fields{
		"tool":       params.Name,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		log.WithError(err).Warn("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.Debug("Tool executed")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls into imaging, scoring, ocr or evaluate
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image Normalization
	case "circuit_preprocess":
		return s.handlePreprocess(args)
	case "circuit_grid_overlay":
		return s.handleGridOverlay(args)

	// Coordinates and Scoring
	case "circuit_rescale":
		return s.handleRescale(args)
	case "circuit_score":
		return s.handleScore(args)
	case "circuit_overlap":
		return s.handleOverlap(args)
	case "circuit_counts_diff":
		return s.handleCountsDiff(args)

	// Recognition
	case "circuit_detect_ocr":
		return s.handleDetectOCR(ctx, args)
	case "circuit_evaluate":
		return s.handleEvaluate(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func requirePath(name, path string) error {
	if path == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

// === Image Normalization Handlers ===

type preprocessArgs struct {
	Path       string   `json:"path"`
	Steps      []string `json:"steps"`
	TargetSize int      `json:"target_size"`
}

type preprocessResult struct {
	OriginalWidth  int     `json:"original_width"`
	OriginalHeight int     `json:"original_height"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	ScaleFactor    float64 `json:"scale_factor"`
	Image          string  `json:"image_base64"`
}

func (s *Server) handlePreprocess(args json.RawMessage) (interface{}, error) {
	var a preprocessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	if a.TargetSize == 0 {
		a.TargetSize = imaging.DefaultTarget
	}

	chain := s.opts.Preprocess
	if a.Steps != nil {
		var err error
		if chain, err = imaging.BuildChain(a.Steps, a.TargetSize); err != nil {
			return nil, err
		}
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := chain.Apply(img)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodeBase64PNG(out)
	if err != nil {
		return nil, err
	}

	return &preprocessResult{
		OriginalWidth:  img.Bounds().Dx(),
		OriginalHeight: img.Bounds().Dy(),
		Width:          out.Bounds().Dx(),
		Height:         out.Bounds().Dy(),
		ScaleFactor:    circuit.ScaleFactor(imaging.LongestSide(img), imaging.LongestSide(out)),
		Image:          encoded,
	}, nil
}

type gridOverlayArgs struct {
	Path        string `json:"path"`
	GridStep    int    `json:"grid_step"`
	IncludeGrid *bool  `json:"include_grid"`
	Color       string `json:"color"`
}

type gridOverlayResult struct {
	Layout           imaging.GridLayout `json:"layout"`
	Width            int                `json:"width"`
	Height           int                `json:"height"`
	RasterSimilarity float64            `json:"raster_similarity"`
	Image            string             `json:"image_base64"`
}

func (s *Server) handleGridOverlay(args json.RawMessage) (interface{}, error) {
	var a gridOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	includeGrid := true
	if a.IncludeGrid != nil {
		includeGrid = *a.IncludeGrid
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if a.GridStep == 0 {
		a.GridStep = recognize.GridStepFor(imaging.LongestSide(img), s.opts.GridBase)
	}

	overlay := imaging.GridOverlay{Step: a.GridStep, IncludeGrid: includeGrid, LineColor: a.Color}
	canvas, layout, err := overlay.Render(img)
	if err != nil {
		return nil, err
	}
	fidelity, err := imaging.RasterFidelity(img, canvas, layout)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodeBase64PNG(canvas)
	if err != nil {
		return nil, err
	}

	return &gridOverlayResult{
		Layout:           layout,
		Width:            canvas.Bounds().Dx(),
		Height:           canvas.Bounds().Dy(),
		RasterSimilarity: fidelity.SimilarityScore,
		Image:            encoded,
	}, nil
}

// === Coordinates and Scoring Handlers ===

type rescaleArgs struct {
	Components circuit.ComponentSet `json:"components"`
	Factor     float64              `json:"factor"`
	OldLongest int                  `json:"old_longest"`
	NewLongest int                  `json:"new_longest"`
}

type rescaleResult struct {
	Factor     float64              `json:"factor"`
	Components circuit.ComponentSet `json:"components"`
}

func (s *Server) handleRescale(args json.RawMessage) (interface{}, error) {
	var a rescaleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	factor := a.Factor
	if factor == 0 {
		if a.OldLongest <= 0 || a.NewLongest <= 0 {
			return nil, errors.New("either factor or positive old_longest and new_longest are required")
		}
		factor = circuit.ScaleFactor(a.OldLongest, a.NewLongest)
	}
	if factor < 0 {
		return nil, fmt.Errorf("factor must be positive, got %v", factor)
	}

	return &rescaleResult{Factor: factor, Components: a.Components.Rescale(factor)}, nil
}

type scoreArgs struct {
	GroundTruth circuit.ComponentSet `json:"ground_truth"`
	Predicted   circuit.ComponentSet `json:"predicted"`
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
}

type scoreResult struct {
	Score       scoring.Result `json:"score"`
	AvgError    string         `json:"avg_error"`
	CountsMatch bool           `json:"counts_match"`
	CountDiff   string         `json:"count_diff"`
	Overlap     float64        `json:"overlap"`
	Similarity  *float64       `json:"similarity,omitempty"`
}

func (s *Server) handleScore(args json.RawMessage) (interface{}, error) {
	var a scoreArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	score := scoring.Score(a.GroundTruth, a.Predicted)
	diff, same := circuit.Diff(a.GroundTruth, a.Predicted)
	res := &scoreResult{
		Score:       score,
		AvgError:    score.String(),
		CountsMatch: same,
		CountDiff:   diff,
		Overlap:     scoring.OverlapSets(a.GroundTruth, a.Predicted),
	}
	if a.Width > 0 && a.Height > 0 {
		sim := scoring.Similarity(a.GroundTruth, a.Predicted, a.Width, a.Height)
		res.Similarity = &sim
	}
	return res, nil
}

type overlapArgs struct {
	A []geometry.BoundingBox `json:"a"`
	B []geometry.BoundingBox `json:"b"`
}

func (s *Server) handleOverlap(args json.RawMessage) (interface{}, error) {
	var a overlapArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	for _, boxes := range [][]geometry.BoundingBox{a.A, a.B} {
		for _, b := range boxes {
			if b.W <= 0 || b.H <= 0 {
				return nil, fmt.Errorf("box %+v has no area", b)
			}
		}
	}
	return map[string]interface{}{
		"overlap": scoring.Overlap(a.A, a.B),
	}, nil
}

type countsDiffArgs struct {
	Expected circuit.ComponentSet `json:"expected"`
	Actual   circuit.ComponentSet `json:"actual"`
}

type countsDiffResult struct {
	Match           bool           `json:"match"`
	Diff            string         `json:"diff"`
	ExpectedCounts  circuit.Counts `json:"expected_counts"`
	ActualCounts    circuit.Counts `json:"actual_counts"`
	ExpectedSummary string         `json:"expected_summary"`
	ActualSummary   string         `json:"actual_summary"`
}

func (s *Server) handleCountsDiff(args json.RawMessage) (interface{}, error) {
	var a countsDiffArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	diff, same := circuit.Diff(a.Expected, a.Actual)
	return &countsDiffResult{
		Match:           same,
		Diff:            diff,
		ExpectedCounts:  a.Expected.Counts(),
		ActualCounts:    a.Actual.Counts(),
		ExpectedSummary: circuit.Summary(a.Expected),
		ActualSummary:   circuit.Summary(a.Actual),
	}, nil
}

// === Recognition Handlers ===

type detectOCRArgs struct {
	Path          string  `json:"path"`
	Language      string  `json:"language"`
	MinConfidence float64 `json:"min_confidence"`
}

type detectResult struct {
	Components circuit.ComponentSet `json:"components"`
	Summary    string               `json:"summary"`
}

func (s *Server) handleDetectOCR(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a detectOCRArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	det := ocr.NewDesignatorDetector(a.Language)
	if a.MinConfidence > 0 {
		det.MinConfidence = a.MinConfidence
	}
	set, err := det.Detect(ctx, img, 0, false)
	if err != nil {
		return nil, err
	}
	return &detectResult{Components: set, Summary: circuit.Summary(set)}, nil
}

type evaluateArgs struct {
	ImagePath  string `json:"image_path"`
	LabelsPath string `json:"labels_path"`
	GridStep   int    `json:"grid_step"`
	Images     bool   `json:"images"`
}

func (s *Server) handleEvaluate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a evaluateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("image_path", a.ImagePath); err != nil {
		return nil, err
	}
	if err := requirePath("labels_path", a.LabelsPath); err != nil {
		return nil, err
	}
	if s.detector == nil {
		return nil, errNoRecognizer
	}

	img, err := s.cache.Load(a.ImagePath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(a.LabelsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	gt, err := fixtures.ParseGroundTruth(data)
	if err != nil {
		return nil, err
	}

	id := strings.SplitN(filepath.Base(a.ImagePath), ".", 2)[0]
	gt.CircuitID = id

	opts := s.opts
	opts.Images = a.Images
	if a.GridStep > 0 {
		opts.GridStep = a.GridStep
	}
	f := &fixtures.Fixture{ID: id, Image: img, GroundTruth: gt}
	return evaluate.New(s.detector, opts).Evaluate(ctx, f), nil
}
