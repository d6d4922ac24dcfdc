package segmorph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/happyhackingspace/segmorph/model"
	"github.com/happyhackingspace/segmorph/processing"
	"github.com/ulikunitz/xz"
	"github.com/vmihailenco/msgpack/v5"
)

const artifactVersion = 1

// artifactBaseURL hosts released artifacts as <locale>/<version>/segmorph.json.xz.
const artifactBaseURL = "https://huggingface.co/datasets/happyhackingspace/segmorph/resolve/main"

// artifact is the persisted form of a Segmenter.
type artifact struct {
	Version   int                   `json:"version"`
	Processor *processing.Processor `json:"processor"`
	Kind      string                `json:"kind"`
	Model     []byte                `json:"model"`
}

type codec struct {
	msgpack bool
	xz      bool
}

// codecFor picks the artifact codec from the file extension: .json or
// .msgpack, optionally followed by .xz.
func codecFor(path string) (codec, error) {
	var c codec
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".xz") {
		c.xz = true
		name = strings.TrimSuffix(name, ".xz")
	}
	switch filepath.Ext(name) {
	case ".json":
	case ".msgpack":
		c.msgpack = true
	default:
		return c, fmt.Errorf("unsupported artifact format %q", filepath.Base(path))
	}
	return c, nil
}

func (c codec) marshal(a *artifact) ([]byte, error) {
	var buf bytes.Buffer
	var w io.Writer = &buf
	var xw *xz.Writer
	if c.xz {
		var err error
		if xw, err = xz.NewWriter(&buf); err != nil {
			return nil, err
		}
		w = xw
	}
	if c.msgpack {
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(a); err != nil {
			return nil, err
		}
	} else if err := json.NewEncoder(w).Encode(a); err != nil {
		return nil, err
	}
	if xw != nil {
		if err := xw.Close(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (c codec) unmarshal(data []byte) (*artifact, error) {
	var r io.Reader = bytes.NewReader(data)
	if c.xz {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		r = xr
	}
	var a artifact
	if c.msgpack {
		dec := msgpack.NewDecoder(r)
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&a); err != nil {
			return nil, err
		}
	} else if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Save writes the segmenter to an artifact file. The codec follows the
// extension of path: .json, .msgpack, .json.xz or .msgpack.xz. The model
// must implement model.Marshaler.
func (s *Segmenter) Save(path string) error {
	m, ok := s.model.(model.Marshaler)
	if !ok {
		return fmt.Errorf("segmorph: model %T cannot be saved", s.model)
	}
	c, err := codecFor(path)
	if err != nil {
		return fmt.Errorf("segmorph: %w", err)
	}
	payload, err := m.MarshalModel()
	if err != nil {
		return fmt.Errorf("segmorph: %w", err)
	}
	data, err := c.marshal(&artifact{
		Version:   artifactVersion,
		Processor: s.proc,
		Kind:      m.Kind(),
		Model:     payload,
	})
	if err != nil {
		return fmt.Errorf("segmorph: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("segmorph: %w", err)
	}
	return nil
}

// Load reads a segmenter written by Save.
func Load(path string) (*Segmenter, error) {
	c, err := codecFor(path)
	if err != nil {
		return nil, fmt.Errorf("segmorph: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("segmorph: %w", err)
	}
	a, err := c.unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("segmorph: decode %s: %w", path, err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("segmorph: artifact version %d, want %d", a.Version, artifactVersion)
	}
	if a.Processor == nil {
		return nil, fmt.Errorf("segmorph: artifact has no processor")
	}
	if err := a.Processor.Init(); err != nil {
		return nil, fmt.Errorf("segmorph: %w", err)
	}
	m, err := model.Decode(a.Kind, a.Model)
	if err != nil {
		return nil, fmt.Errorf("segmorph: %w", err)
	}
	return NewSegmenter(m, a.Processor)
}

// ArtifactURL returns the download URL of the artifact for a locale such
// as "en" or "pt_BR" and a release version ("latest" or a semantic
// version).
func ArtifactURL(locale, version string) (string, error) {
	if !validLocale(locale) {
		return "", fmt.Errorf("segmorph: invalid locale %q", locale)
	}
	rev := "latest"
	if version != "" && version != "latest" {
		v, err := semver.NewVersion(version)
		if err != nil {
			return "", fmt.Errorf("segmorph: invalid version %q: %w", version, err)
		}
		rev = "v" + v.String()
	}
	return fmt.Sprintf("%s/%s/%s/%s.xz", artifactBaseURL, locale, rev, ModelFile), nil
}

// validLocale accepts a two or three letter language code with an
// optional two letter region: en, tur, pt_BR.
func validLocale(locale string) bool {
	lang, region, hasRegion := strings.Cut(locale, "_")
	if len(lang) < 2 || len(lang) > 3 || !isASCII(lang, 'a', 'z') {
		return false
	}
	return !hasRegion || (len(region) == 2 && isASCII(region, 'A', 'Z'))
}

func isASCII(s string, lo, hi byte) bool {
	for i := range len(s) {
		if s[i] < lo || s[i] > hi {
			return false
		}
	}
	return true
}
