package fixtures

import (
	"context"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photocircuit/internal/imaging"
	"github.com/ironsheep/photocircuit/internal/logger"
)

// BlobSource reads fixtures from an Azure storage container laid out like a
// fixture directory, optionally below Prefix.
type BlobSource struct {
	client    *azblob.Client
	container string
	cache     *imaging.ImageCache
	Prefix    string
}

// NewBlobSource connects to container in the given storage account with a
// shared key.
func NewBlobSource(accountName, accountKey, container, prefix string) (*BlobSource, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid storage credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &BlobSource{client: client, container: container, cache: imaging.NewImageCache(), Prefix: prefix}, nil
}

// IDs implements Source.
func (s *BlobSource) IDs(ctx context.Context) ([]string, error) {
	prefix := s.Prefix
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{Prefix: &prefix})

	var images, labels []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			kind, id, ok := classifyBlob(*item.Name, s.Prefix)
			if !ok {
				continue
			}
			switch kind {
			case imagesDir:
				images = append(images, id)
			case labelsDir:
				labels = append(labels, id)
			}
		}
	}

	ids := pairIDs(images, labels)
	logger.WithFields(logrus.Fields{
		"container": s.container,
		"images":    len(images),
		"labels":    len(labels),
		"fixtures":  len(ids),
	}).Debug("Listed blob fixtures")
	return ids, nil
}

// Load implements Source.
func (s *BlobSource) Load(ctx context.Context, id string) (*Fixture, error) {
	img, err := s.image(ctx, blobName(s.Prefix, imagesDir, id+imageExt))
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", id, err)
	}

	data, err := s.download(ctx, blobName(s.Prefix, labelsDir, id+labelExt))
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", id, err)
	}
	gt, err := ParseGroundTruth(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", id, err)
	}
	gt.CircuitID = id

	return &Fixture{ID: id, Image: img, GroundTruth: gt}, nil
}

// image downloads and decodes a photo once per source.
func (s *BlobSource) image(ctx context.Context, name string) (image.Image, error) {
	if img, ok := s.cache.Get(name); ok {
		return img, nil
	}
	raw, err := s.download(ctx, name)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(raw)
	if err != nil {
		return nil, err
	}
	s.cache.Put(name, img)
	return img, nil
}

func (s *BlobSource) download(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s failed: %w", name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s failed: %w", name, err)
	}
	return data, nil
}

func blobName(prefix, dir, file string) string {
	return path.Join(prefix, dir, file)
}

// classifyBlob splits "<prefix>/<dir>/<id>.<ext>" into its tree and id.
// Blobs in other places or with other extensions are not fixtures.
func classifyBlob(name, prefix string) (kind, id string, ok bool) {
	rel := strings.TrimPrefix(name, prefix)
	rel = strings.TrimPrefix(rel, "/")
	dir, file := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")

	switch {
	case dir == imagesDir && strings.HasSuffix(file, imageExt):
		return imagesDir, fixtureID(file), true
	case dir == labelsDir && strings.HasSuffix(file, labelExt):
		return labelsDir, fixtureID(file), true
	}
	return "", "", false
}
