package resolution

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opencontainers/go-digest"
)

// ResourceKey is the canonical identifier of one fetch target. It is used as the map key
// by every component of the Coordinator and as the file name of the fetched resource.
type ResourceKey string

func (k ResourceKey) String() string {
	return string(k)
}

// Entry is one font face of a batch: the logical identity (Family, Variant) together with
// the locator the resource is fetched from.
type Entry struct {
	Locator string `json:"uri"`
	Family  string `json:"fontFamily"`
	Variant string `json:"fontWeight,omitempty"`
}

func (e Entry) String() string {
	return fmt.Sprintf("%s:%s (%s)", e.Family, e.Variant, e.Locator)
}

// UnmarshalJSON accepts numeric weights such as 400 next to strings.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Locator string          `json:"uri"`
		Family  string          `json:"fontFamily"`
		Variant json.RawMessage `json:"fontWeight,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Locator, e.Family, e.Variant = raw.Locator, raw.Family, ""
	if len(raw.Variant) == 0 || string(raw.Variant) == "null" {
		return nil
	}
	var variant any
	if err := json.Unmarshal(raw.Variant, &variant); err != nil {
		return err
	}
	switch v := variant.(type) {
	case string:
		e.Variant = v
	case float64:
		e.Variant = string(raw.Variant)
	default:
		return fmt.Errorf("fontWeight must be a string or number, got %T", variant)
	}
	return nil
}

// Artifact is a fetched and decoded font face.
type Artifact struct {
	Key ResourceKey
	// Path is the location of the fetched bytes in the storage of the Fetcher.
	Path string
	// Family is the family name embedded in the font itself, which may differ from the
	// family the face was requested under.
	Family string
	Glyphs int
	Size   int64
	Digest digest.Digest
}

// Outcome is the terminal result of a resource. It is either resolved with an Artifact or
// failed with an Error.
type Outcome struct {
	Artifact *Artifact
	// Error stores any fetch or decode error that occurred during background processing.
	// Nil indicates successful resolution.
	Error error
}

// Resolved returns a successful Outcome.
func Resolved(artifact *Artifact) Outcome {
	return Outcome{Artifact: artifact}
}

// Failed returns a failed Outcome.
func Failed(err error) Outcome {
	return Outcome{Error: err}
}

func (o Outcome) OK() bool {
	return o.Error == nil
}

// BatchResult is the aggregate completion of a batch. It deliberately carries no per entry
// detail: failures of single faces are only visible through a later Request.
type BatchResult struct {
	// Size is the number of distinct resources the batch waited for.
	Size int
}

// CompletionFunc is invoked exactly once when every member of a batch reached a terminal
// state. It is called while the Coordinator lock is held and must not call back into the
// Coordinator.
type CompletionFunc func(BatchResult)

// Fetcher retrieves the resource behind a locator and stores it durably under key.
// Implementations must create any needed storage location idempotently.
type Fetcher interface {
	Fetch(ctx context.Context, locator string, key ResourceKey) error
}

// Decoder turns previously fetched bytes into an Artifact.
type Decoder interface {
	Decode(ctx context.Context, key ResourceKey) (*Artifact, error)
}

// Sink applies a resolved Artifact to an external consumer identified by handle.
type Sink interface {
	Apply(ctx context.Context, handle string, artifact *Artifact) error
}
