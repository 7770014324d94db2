package evaluate

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photocircuit/internal/circuit"
	"github.com/ironsheep/photocircuit/internal/fixtures"
	"github.com/ironsheep/photocircuit/internal/imaging"
	"github.com/ironsheep/photocircuit/internal/logger"
	"github.com/ironsheep/photocircuit/internal/report"
	"github.com/ironsheep/photocircuit/internal/scoring"
)

// DefaultScreenSizes are the longest sides a sweep resizes photos to.
func DefaultScreenSizes() []int { return rangeInts(500, 900, 100) }

// DefaultGridSteps are the grid steps a sweep tries at every screen size.
func DefaultGridSteps() []int { return rangeInts(5, 100, 5) }

func rangeInts(from, to, step int) []int {
	var out []int
	for v := from; v <= to; v += step {
		out = append(out, v)
	}
	return out
}

// Sweep measures one fixture at every screen size and grid step. The photo
// is resized so its longest side equals the screen size, bypassing the
// configured preprocessing, and the ground truth follows. Rows come back
// ordered by screen size, then grid step. A failed detection yields an
// incomparable row; only a cancelled context aborts the sweep.
func (e *Evaluator) Sweep(ctx context.Context, f *fixtures.Fixture, sizes, steps []int) ([]report.SweepRow, error) {
	longest := imaging.LongestSide(f.Image)
	if longest == 0 {
		return nil, fmt.Errorf("fixture %s: %w", f.ID, imaging.ErrEmptyImage)
	}

	type variant struct {
		size int
		img  image.Image
		gt   circuit.ComponentSet
	}
	variants := make([]variant, 0, len(sizes))
	for _, size := range sizes {
		img, err := imaging.Fit{Size: size}.Apply(f.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to resize %s to %d: %w", f.ID, size, err)
		}
		variants = append(variants, variant{
			size: size,
			img:  img,
			gt:   f.GroundTruth.Rescale(float64(size) / float64(longest)),
		})
	}

	rows := make([]report.SweepRow, len(variants)*len(steps))
	pool := NewWorkerPool(e.opts.Workers)
	pool.Start()
	defer pool.Close()

	for vi, v := range variants {
		for si, step := range steps {
			idx, v, step := vi*len(steps)+si, v, step
			rows[idx] = report.SweepRow{
				CircuitID:    f.ID,
				OriginalSize: longest,
				ScreenSize:   v.size,
				GridStep:     step,
				Score:        scoring.Failed(),
			}
			if ctx.Err() != nil {
				continue
			}
			pool.Submit(func() {
				rows[idx].Score = e.sweepOne(ctx, f.ID, v.img, v.gt, v.size, step)
			})
		}
	}
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return rows, err
	}
	return rows, nil
}

func (e *Evaluator) sweepOne(ctx context.Context, id string, img image.Image, gt circuit.ComponentSet, size, step int) scoring.Result {
	log := logger.WithFields(logrus.Fields{
		"circuit_id":  id,
		"screen_size": size,
		"grid_step":   step,
	})
	if ctx.Err() != nil {
		return scoring.Failed()
	}

	pred, err := e.detect(ctx, img, step)
	if err != nil {
		log.WithError(err).Warn("Sweep detection failed")
		return scoring.Failed()
	}

	score := scoring.Score(gt, pred)
	if diff, same := circuit.Diff(gt, pred); !same {
		log.Debug(diff)
	}
	log.WithField("error", score.String()).Debug("Sweep point scored")
	return score
}
