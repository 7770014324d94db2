// Package server implements the MCP (Model Context Protocol) server for the
// circuit scoring tools.
//
// It exposes preprocessing, grid overlays, coordinate rescaling, scoring
// and evaluation through JSON-RPC 2.0, so an assistant can normalize a
// circuit photo, ask a recognizer about it, and check the answer against
// labels.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Normalization:
//   - circuit_preprocess: Scale, fit or thicken a photo
//   - circuit_grid_overlay: Draw the labeled grid a recognizer sees
//
// Coordinates and Scoring:
//   - circuit_rescale: Map positions between image sizes
//   - circuit_score: Mean nearest-same-class distance
//   - circuit_overlap: Mean pairwise IoU of two box lists
//   - circuit_counts_diff: Per-class count comparison
//
// Recognition:
//   - circuit_detect_ocr: Components from designator labels
//   - circuit_evaluate: Detect and score one labeled photo
//
// # Image Caching
//
// Images are cached by path and reused across tool calls for the lifetime
// of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure), -32602 (malformed tools/call
//     params) or -32601 (unknown method)
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(detector, opts, version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
