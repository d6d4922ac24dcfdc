// Package segmorph splits words into morphemes with a character tagger.
//
// A Segmenter pairs a tagging model with the processor that encodes words
// for it and decodes its per-character tag distributions back into
// segmentations.
//
//	s, _ := segmorph.New()
//	out, _ := s.Segment("running")
//	fmt.Println(out.Segments()) // [run n ing]
package segmorph

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/happyhackingspace/segmorph/crf"
	"github.com/happyhackingspace/segmorph/dataset"
	"github.com/happyhackingspace/segmorph/generator"
	"github.com/happyhackingspace/segmorph/model"
	"github.com/happyhackingspace/segmorph/processing"
)

// ModelFile is the artifact name New looks for.
const ModelFile = "segmorph.json"

// ErrInvariant is returned when two paths over the same data that must
// agree do not.
var ErrInvariant = errors.New("invariant violated")

// Segmenter predicts segmentations with a model and a processor.
type Segmenter struct {
	model model.Model
	proc  *processing.Processor
}

// NewSegmenter creates a segmenter from a model and the processor it was
// trained with.
func NewSegmenter(m model.Model, proc *processing.Processor) (*Segmenter, error) {
	if m == nil || proc == nil {
		return nil, fmt.Errorf("segmorph: model and processor are required")
	}
	return &Segmenter{model: m, proc: proc}, nil
}

// New loads the segmenter from ModelFile (or its .xz form), searching the
// current directory and parent directories up to the module root (where
// go.mod lives), then ModelDir.
func New() (*Segmenter, error) {
	path, err := findModel(ModelFile, ModelFile+".xz")
	if err != nil {
		return nil, fmt.Errorf("segmorph: %w", err)
	}
	return Load(path)
}

func findModel(names ...string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if path, ok := firstExisting(dir, names); ok {
			return path, nil
		}
		// Stop at module root
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if path, ok := firstExisting(ModelDir(), names); ok {
		return path, nil
	}
	return "", fmt.Errorf("%s not found", names[0])
}

func firstExisting(dir string, names []string) (string, bool) {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// ModelDir returns the directory downloaded artifacts are kept in:
// $SEGMORPH_MODEL_DIR if set, otherwise segmorph under the user cache dir.
func ModelDir() string {
	if dir := os.Getenv("SEGMORPH_MODEL_DIR"); dir != "" {
		return dir
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "segmorph")
}

// Processor returns the segmenter's processor.
func (s *Segmenter) Processor() *processing.Processor { return s.proc }

// Model returns the segmenter's model.
func (s *Segmenter) Model() model.Model { return s.model }

// Predict segments every input in order. Existing segments of the inputs
// are ignored. An empty input gives an empty result.
func (s *Segmenter) Predict(inputs []dataset.Sample, batchSize int, verbose bool) ([]dataset.Sample, error) {
	out := make([]dataset.Sample, 0, len(inputs))
	if len(inputs) == 0 {
		return out, nil
	}

	words := make([]dataset.Sample, len(inputs))
	for i, in := range inputs {
		words[i] = dataset.Word(in.Word())
	}
	gen, err := generator.New(dataset.New(words), s.proc, generator.Options{
		BatchSize:   batchSize,
		WithSamples: true,
	})
	if err != nil {
		return nil, fmt.Errorf("segmorph: %w", err)
	}

	for batch, err := range gen.Batches() {
		if err != nil {
			return nil, fmt.Errorf("segmorph: %w", err)
		}
		preds, err := s.model.Predict(batch.Inputs)
		if err != nil {
			return nil, fmt.Errorf("segmorph: predict batch %d: %w", batch.Index, err)
		}
		if err := model.CheckBatch(batch.Inputs, preds); err != nil {
			return nil, fmt.Errorf("segmorph: batch %d: %w", batch.Index, err)
		}
		for i, w := range batch.Samples {
			pred, err := s.proc.Trim(preds[i], w.Word())
			if err != nil {
				return nil, fmt.Errorf("segmorph: %w", err)
			}
			seg, err := s.proc.ToSample(w.Word(), pred)
			if err != nil {
				return nil, fmt.Errorf("segmorph: %w", err)
			}
			out = append(out, seg)
		}
		if verbose {
			slog.Info("Predicted", "batch", batch.Index+1, "of", gen.Len(), "words", len(out))
		}
	}
	return out, nil
}

// Segment segments a single word.
func (s *Segmenter) Segment(word string) (dataset.Sample, error) {
	return s.Lookup(dataset.Word(word))
}

// Lookup segments the word of a single sample.
func (s *Segmenter) Lookup(sample dataset.Sample) (dataset.Sample, error) {
	out, err := s.Predict([]dataset.Sample{sample}, 1, false)
	if err != nil {
		return dataset.Sample{}, err
	}
	return out[0], nil
}
