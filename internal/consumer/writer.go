package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"ocm.software/open-component-model/fontcache/internal/resolution"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// WriterConsumer prints every applied artifact to a writer.
type WriterConsumer struct {
	mu     sync.Mutex
	w      io.Writer
	format string
}

func NewWriterConsumer(w io.Writer, format string) *WriterConsumer {
	return &WriterConsumer{w: w, format: format}
}

type artifactView struct {
	Key    string `json:"key"`
	Family string `json:"family"`
	Path   string `json:"path"`
	Glyphs int    `json:"glyphs"`
	Size   int64  `json:"size"`
	Digest string `json:"digest"`
}

func (c *WriterConsumer) Apply(_ context.Context, artifact *resolution.Artifact) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.format {
	case FormatJSON:
		enc := json.NewEncoder(c.w)
		enc.SetIndent("", "  ")
		return enc.Encode(artifactView{
			Key:    artifact.Key.String(),
			Family: artifact.Family,
			Path:   artifact.Path,
			Glyphs: artifact.Glyphs,
			Size:   artifact.Size,
			Digest: artifact.Digest.String(),
		})
	case FormatText, "":
		_, err := fmt.Fprintf(c.w, "%s\t%s\t%d glyphs\t%s\n", artifact.Key, artifact.Family, artifact.Glyphs, artifact.Path)
		return err
	default:
		return fmt.Errorf("unknown output format %q", c.format)
	}
}
