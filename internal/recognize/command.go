package recognize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photocircuit/internal/circuit"
	"github.com/ironsheep/photocircuit/internal/logger"
)

// CommandDetector runs an external recognizer for every image. The process
// receives the grid PNG on stdin and PHOTOCIRCUIT_GRID_STEP and
// PHOTOCIRCUIT_INCLUDE_GRID in its environment, and must write YAML to
// stdout. A non-zero exit is an error; stderr ends up in the error message.
type CommandDetector struct {
	Path    string
	Args    []string
	Parser  Parser
	Timeout time.Duration
}

// NewCommandDetector splits a command line on whitespace.
func NewCommandDetector(cmdline string, parser Parser, timeout time.Duration) (*CommandDetector, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil, errors.New("recognizer command is empty")
	}
	return &CommandDetector{
		Path:    fields[0],
		Args:    fields[1:],
		Parser:  parser,
		Timeout: timeout,
	}, nil
}

// Detect implements Detector.
func (d *CommandDetector) Detect(ctx context.Context, img image.Image, gridStep int, includeGrid bool) (circuit.ComponentSet, error) {
	input, _, err := PrepareImage(img, gridStep, includeGrid)
	if err != nil {
		return circuit.ComponentSet{}, err
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.Path, d.Args...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(),
		"PHOTOCIRCUIT_GRID_STEP="+strconv.Itoa(gridStep),
		"PHOTOCIRCUIT_INCLUDE_GRID="+strconv.FormatBool(includeGrid),
	)

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return circuit.ComponentSet{}, fmt.Errorf("recognizer %s: %w", d.Path, ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return circuit.ComponentSet{}, fmt.Errorf("recognizer %s failed: %w", d.Path, err)
		}
		return circuit.ComponentSet{}, fmt.Errorf("recognizer %s failed: %w: %s", d.Path, err, msg)
	}

	set, skipped, err := d.Parser.Parse(stdout.Bytes())
	if err != nil {
		return circuit.ComponentSet{}, err
	}
	logger.WithFields(logrus.Fields{
		"recognizer": d.Path,
		"components": set.Len(),
		"skipped":    skipped,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("Recognizer finished")
	return set, nil
}
