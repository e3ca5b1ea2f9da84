package configuration

import (
	"bytes"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/fontcache/internal/resolution"
)

// Manifest lists the font faces of one batch.
//
//	fontFaces:
//	- fontFamily: Inter
//	  fontWeight: "400"
//	  uri: https://fonts.example.com/inter-regular.ttf
//
// A bare list of font faces is accepted as well.
type Manifest struct {
	FontFaces []resolution.Entry `json:"fontFaces"`
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %q: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %q: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes YAML or JSON manifest data.
func ParseManifest(data []byte) (*Manifest, error) {
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if err := validateManifest(raw); err != nil {
		return nil, err
	}

	m := &Manifest{}
	if bytes.HasPrefix(raw, []byte("[")) {
		if err := yaml.UnmarshalStrict(raw, &m.FontFaces); err != nil {
			return nil, err
		}
		return m, nil
	}
	if err := yaml.UnmarshalStrict(raw, m); err != nil {
		return nil, err
	}
	return m, nil
}
