// Package evaluate runs a recognizer over labeled fixtures and scores it.
//
// For every fixture the photo is preprocessed, the ground truth is rescaled
// into the preprocessed pixel space, a grid step is chosen, the recognizer
// runs, and the prediction is scored against the rescaled ground truth.
// Batches fan out over a WorkerPool; Sweep repeats the measurement across
// screen sizes and grid steps.
package evaluate

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photocircuit/internal/circuit"
	"github.com/ironsheep/photocircuit/internal/fixtures"
	"github.com/ironsheep/photocircuit/internal/imaging"
	"github.com/ironsheep/photocircuit/internal/logger"
	"github.com/ironsheep/photocircuit/internal/recognize"
	"github.com/ironsheep/photocircuit/internal/report"
	"github.com/ironsheep/photocircuit/internal/scoring"
)

// mergeMargin separates the layout from the photo in the oriented image.
const mergeMargin = 10

// Options configures an Evaluator.
type Options struct {
	// Preprocess is applied to every photo before detection.
	Preprocess imaging.Chain
	// GridStep is the fixed grid step; 0 picks one per image with
	// recognize.GridStepFor and GridBase.
	GridStep    int
	GridBase    int
	IncludeGrid bool
	// Timeout bounds a single detection; 0 means no limit.
	Timeout time.Duration
	// Images adds annotated images to every result.
	Images  bool
	Workers int
}

// Evaluator scores a recognizer against fixtures. It is safe for concurrent
// use when its Detector is.
type Evaluator struct {
	detector recognize.Detector
	opts     Options
}

// New returns an Evaluator.
func New(detector recognize.Detector, opts Options) *Evaluator {
	return &Evaluator{detector: detector, opts: opts}
}

// Outcome is the raw material of a result, before rendering.
type Outcome struct {
	Image       image.Image
	GroundTruth circuit.ComponentSet
	Predicted   circuit.ComponentSet
	GridStep    int
	ScaleFactor float64
}

// Run preprocesses and detects one fixture, returning the rescaled ground
// truth next to the prediction.
func (e *Evaluator) Run(ctx context.Context, f *fixtures.Fixture) (*Outcome, error) {
	pre, err := e.opts.Preprocess.Apply(f.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess %s: %w", f.ID, err)
	}

	factor := circuit.ScaleFactor(imaging.LongestSide(f.Image), imaging.LongestSide(pre))
	step := e.opts.GridStep
	if step <= 0 {
		step = recognize.GridStepFor(imaging.LongestSide(pre), e.opts.GridBase)
	}

	pred, err := e.detect(ctx, pre, step)
	if err != nil {
		return nil, fmt.Errorf("failed to detect components in %s: %w", f.ID, err)
	}
	pred.CircuitID = f.ID

	return &Outcome{
		Image:       pre,
		GroundTruth: f.GroundTruth.Rescale(factor),
		Predicted:   pred,
		GridStep:    step,
		ScaleFactor: factor,
	}, nil
}

func (e *Evaluator) detect(ctx context.Context, img image.Image, step int) (circuit.ComponentSet, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	return e.detector.Detect(ctx, img, step, e.opts.IncludeGrid)
}

// Evaluate scores one fixture. Failures are recorded in the result rather
// than returned, so one bad circuit does not stop a batch.
func (e *Evaluator) Evaluate(ctx context.Context, f *fixtures.Fixture) report.CircuitResult {
	start := time.Now()
	log := logger.WithField("circuit_id", f.ID)

	out, err := e.Run(ctx, f)
	if err != nil {
		log.WithError(err).Warn("Evaluation failed")
		return failed(f.ID, err)
	}

	res := Record(f.ID, out, e.opts.Images)
	log.WithFields(logrus.Fields{
		"error":        res.AvgError,
		"reason":       res.Score.Reason,
		"counts_match": res.CountsMatch,
		"grid_step":    out.GridStep,
		"predicted":    out.Predicted.Len(),
		"ground_truth": out.GroundTruth.Len(),
		"elapsed_ms":   time.Since(start).Milliseconds(),
	}).Info("Circuit evaluated")
	if !res.CountsMatch {
		log.Debug(res.CountDiff)
	}
	return res
}

// Record scores an outcome. With images set it also renders the annotated
// ground truth, the annotated prediction, and the predicted layout stacked
// over the photo.
func Record(id string, out *Outcome, images bool) report.CircuitResult {
	score := scoring.Score(out.GroundTruth, out.Predicted)
	diff, same := circuit.Diff(out.GroundTruth, out.Predicted)
	b := out.Image.Bounds()

	res := report.CircuitResult{
		CircuitID:   id,
		Score:       score,
		AvgError:    score.String(),
		Overlap:     scoring.OverlapSets(out.GroundTruth, out.Predicted),
		Similarity:  scoring.Similarity(out.GroundTruth, out.Predicted, b.Dx(), b.Dy()),
		CountsMatch: same,
		CountDiff:   diff,
		GridStep:    out.GridStep,
		ScaleFactor: out.ScaleFactor,
	}
	if !images {
		return res
	}

	var err error
	if res.TestImage, err = imaging.EncodeBase64PNG(report.Annotate(out.Image, out.GroundTruth, true)); err != nil {
		res.Error = err.Error()
		return res
	}
	if res.ResultImage, err = imaging.EncodeBase64PNG(report.Annotate(out.Image, out.Predicted, true)); err != nil {
		res.Error = err.Error()
		return res
	}
	oriented := report.MergeVertically(report.RenderLayout(out.Predicted), out.Image, mergeMargin)
	if res.OrientedImage, err = imaging.EncodeBase64PNG(oriented); err != nil {
		res.Error = err.Error()
	}
	return res
}

// EvaluateAll scores every fixture on a worker pool. Results keep the order
// of fixtures. A cancelled context stops submitting new work; fixtures not
// yet evaluated carry the context error.
func (e *Evaluator) EvaluateAll(ctx context.Context, fs []*fixtures.Fixture) []report.CircuitResult {
	results := make([]report.CircuitResult, len(fs))

	pool := NewWorkerPool(e.opts.Workers)
	pool.Start()
	defer pool.Close()

	for i, f := range fs {
		i, f := i, f
		if err := ctx.Err(); err != nil {
			results[i] = failed(f.ID, err)
			continue
		}
		pool.Submit(func() {
			if err := ctx.Err(); err != nil {
				results[i] = failed(f.ID, err)
				return
			}
			results[i] = e.Evaluate(ctx, f)
		})
	}
	pool.Wait()

	stats := pool.GetStats()
	logger.WithFields(logrus.Fields{
		"circuits": len(fs),
		"jobs":     stats.CompletedJobs,
		"workers":  pool.Workers(),
	}).Info("Batch evaluated")
	return results
}

func failed(id string, err error) report.CircuitResult {
	score := scoring.Failed()
	return report.CircuitResult{
		CircuitID: id,
		Score:     score,
		AvgError:  score.String(),
		Error:     err.Error(),
	}
}
