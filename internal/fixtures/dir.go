package fixtures

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photocircuit/internal/imaging"
	"github.com/ironsheep/photocircuit/internal/logger"
)

// DirSource reads fixtures from a directory on disk. Photos go through an
// image cache, so repeated evaluations decode each photo once.
type DirSource struct {
	Root  string
	cache *imaging.ImageCache
}

// NewDirSource returns a source rooted at root.
func NewDirSource(root string) *DirSource {
	return &DirSource{Root: root, cache: imaging.NewImageCache()}
}

// IDs implements Source.
func (s *DirSource) IDs(ctx context.Context) ([]string, error) {
	images, err := listIDs(filepath.Join(s.Root, imagesDir), imageExt)
	if err != nil {
		return nil, err
	}
	labels, err := listIDs(filepath.Join(s.Root, labelsDir), labelExt)
	if err != nil {
		return nil, err
	}
	ids := pairIDs(images, labels)
	logger.WithFields(logrus.Fields{
		"root":     s.Root,
		"images":   len(images),
		"labels":   len(labels),
		"fixtures": len(ids),
	}).Debug("Listed fixtures")
	return ids, nil
}

// Load implements Source.
func (s *DirSource) Load(ctx context.Context, id string) (*Fixture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(filepath.Join(s.Root, imagesDir, id+imageExt))
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", id, err)
	}

	data, err := os.ReadFile(filepath.Join(s.Root, labelsDir, id+labelExt))
	if err != nil {
		return nil, fmt.Errorf("fixture %s: failed to read ground truth: %w", id, err)
	}
	gt, err := ParseGroundTruth(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", id, err)
	}
	gt.CircuitID = id

	return &Fixture{ID: id, Image: img, GroundTruth: gt}, nil
}

func listIDs(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		ids = append(ids, fixtureID(e.Name()))
	}
	return ids, nil
}
