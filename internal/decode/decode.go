// Package decode turns fetched font bytes into resolution artifacts.
package decode

import (
	"context"
	"errors"
	"fmt"

	"github.com/opencontainers/go-digest"
	"golang.org/x/image/font/sfnt"

	"ocm.software/open-component-model/fontcache/internal/resolution"
	"ocm.software/open-component-model/fontcache/internal/storage"
)

// SFNTDecoder decodes TrueType and OpenType fonts, including collections, from a
// storage.Store. For collections only the first font is inspected.
type SFNTDecoder struct {
	store *storage.Store
}

var _ resolution.Decoder = (*SFNTDecoder)(nil)

func NewSFNTDecoder(store *storage.Store) *SFNTDecoder {
	return &SFNTDecoder{store: store}
}

func (d *SFNTDecoder) Decode(ctx context.Context, key resolution.ResourceKey) (*resolution.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := d.store.Read(key)
	if err != nil {
		return nil, err
	}

	collection, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", key, err)
	}
	if collection.NumFonts() == 0 {
		return nil, fmt.Errorf("font %s contains no faces", key)
	}
	font, err := collection.Font(0)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", key, err)
	}

	var buf sfnt.Buffer
	family, err := font.Name(&buf, sfnt.NameIDFamily)
	if err != nil && !errors.Is(err, sfnt.ErrNotFound) {
		return nil, fmt.Errorf("failed to read family name of %s: %w", key, err)
	}

	return &resolution.Artifact{
		Key:    key,
		Path:   d.store.Path(key),
		Family: family,
		Glyphs: font.NumGlyphs(),
		Size:   int64(len(data)),
		Digest: digest.FromBytes(data),
	}, nil
}
