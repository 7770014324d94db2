package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// componentSetSchema describes a circuit.ComponentSet argument.
func componentSetSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"circuit_id": map[string]interface{}{"type": "string"},
			"components": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"component_name": map[string]interface{}{
							"type":        "string",
							"description": "Component class, e.g. resistor or voltage_source",
						},
						"position": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "number"},
								"y": map[string]interface{}{"type": "number"},
							},
							"required": []string{"x", "y"},
						},
						"positive_input_direction": map[string]interface{}{
							"type":        "integer",
							"description": "Degrees from pointing right",
						},
						"approximate_size": map[string]interface{}{"type": "integer"},
						"bbox":             boxSchema(),
					},
					"required": []string{"component_name", "position"},
				},
			},
		},
		"required": []string{"components"},
	}
}

func boxSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "number", "description": "Left edge"},
			"y": map[string]interface{}{"type": "number", "description": "Top edge"},
			"w": map[string]interface{}{"type": "number"},
			"h": map[string]interface{}{"type": "number"},
		},
		"required": []string{"x", "y", "w", "h"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Normalization
		{
			Name:        "circuit_preprocess",
			Description: "Normalize a circuit photo: scale to the next multiple of the target size, fit to an exact size, and/or thicken strokes. Returns the processed image as base64 PNG and the factor that maps original coordinates onto it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"steps": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string", "enum": []string{"scale", "fit", "thicken"}},
						"description": "Steps in order. Default: the server's configured chain",
					},
					"target_size": map[string]interface{}{
						"type":        "integer",
						"description": "Target for scale and fit, in pixels. Default 500",
						"default":     500,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "circuit_grid_overlay",
			Description: "Draw a labeled coordinate grid over an image, as sent to a vision recognizer. Returns the overlay as base64 PNG, where the image landed, and how faithfully its pixels survived.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"grid_step": map[string]interface{}{
						"type":        "integer",
						"description": "Grid spacing in pixels. Default: chosen from the image size",
					},
					"include_grid": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw grid lines; when false only the axis labels are drawn. Default true",
						"default":     true,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Grid line color as hex. Default #808080",
						"default":     "#808080",
					},
				},
				"required": []string{"path"},
			},
		},

		// Coordinates and Scoring
		{
			Name:        "circuit_rescale",
			Description: "Map component positions from one image size to another. Give either factor, or the old and new longest sides.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"components": componentSetSchema("Components to rescale"),
					"factor": map[string]interface{}{
						"type":        "number",
						"description": "Multiplier for positions",
					},
					"old_longest": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the image the positions refer to",
					},
					"new_longest": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the target image",
					},
				},
				"required": []string{"components"},
			},
		},
		{
			Name:        "circuit_score",
			Description: "Score a prediction against ground truth: the mean distance in pixels from each predicted component to the nearest ground-truth component of its class. Incomparable when counts differ or a class is spurious.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"ground_truth": componentSetSchema("Labeled components"),
					"predicted":    componentSetSchema("Recognized components"),
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Image width, enables the percent similarity score",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Image height, enables the percent similarity score",
					},
				},
				"required": []string{"ground_truth", "predicted"},
			},
		},
		{
			Name:        "circuit_overlap",
			Description: "Mean IoU over every pair of boxes from two lists. Not class-aware.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"a": map[string]interface{}{"type": "array", "items": boxSchema()},
					"b": map[string]interface{}{"type": "array", "items": boxSchema()},
				},
				"required": []string{"a", "b"},
			},
		},
		{
			Name:        "circuit_counts_diff",
			Description: "Compare per-class component counts of two sets and summarize each.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"expected": componentSetSchema("Expected components"),
					"actual":   componentSetSchema("Found components"),
				},
				"required": []string{"expected", "actual"},
			},
		},

		// Recognition
		{
			Name:        "circuit_detect_ocr",
			Description: "Find components by reading designator labels (R1, C2, V1...) with Tesseract OCR. Positions are label centers.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Default eng",
						"default":     "eng",
					},
					"min_confidence": map[string]interface{}{
						"type":        "number",
						"description": "Minimum word confidence 0-1. Default 0.4",
						"default":     0.4,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "circuit_evaluate",
			Description: "Run the configured recognizer on a labeled photo and score it: preprocess, detect, rescale the ground truth and compare. Optionally returns annotated images.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the photo",
					},
					"labels_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the ground-truth YAML",
					},
					"grid_step": map[string]interface{}{
						"type":        "integer",
						"description": "Grid step for the recognizer. Default: server configuration",
					},
					"images": map[string]interface{}{
						"type":        "boolean",
						"description": "Include annotated images as base64 PNG. Default false",
						"default":     false,
					},
				},
				"required": []string{"image_path", "labels_path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
