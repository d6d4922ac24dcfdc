package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/happyhackingspace/segmorph"
	"github.com/happyhackingspace/segmorph/crf"
	"github.com/happyhackingspace/segmorph/dataset"
	"github.com/happyhackingspace/segmorph/processing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// saveTestModel writes a CRF segmenter that starts a morpheme at every
// "r" and "n".
func saveTestModel(t *testing.T, dir string) string {
	t.Helper()
	proc, err := processing.NewProcessor(processing.SchemeBoundary, []string{"r", "u", "n", "i", "g"}, 0, processing.UnknownFail)
	if err != nil {
		t.Fatal(err)
	}
	m := crf.NewModel()
	m.SetState("c[0]=r", "B", 4)
	m.SetState("c[0]=n", "B", 4)
	for _, ch := range []string{"u", "i", "g"} {
		m.SetState("c[0]="+ch, "C", 4)
	}
	s, err := segmorph.NewSegmenter(crf.NewTagger(m, proc.Chars, proc.Scheme.Tags(), 1), proc)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "model.msgpack.xz")
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	c := New("test")
	c.rootCmd.SetArgs(append(args, "--silent"))
	return c.Run()
}

func TestSettingsPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "segmorph.yaml", "batch_size: 8\nlocale: tur\nunknown: map\n")

	c := New("test")
	cmd, _, err := c.rootCmd.Find([]string{"tags"})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.rootCmd.PersistentFlags().Set("config", cfgPath); err != nil {
		t.Fatal(err)
	}
	if err := cmd.ParseFlags([]string{"--batch-size", "3", "--scheme", "bmes"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := c.settings(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BatchSize != 3 {
		t.Errorf("batch size = %d, want flag value 3", cfg.BatchSize)
	}
	if cfg.Locale != "tur" || cfg.Unknown != "map" {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.Scheme != "bmes" {
		t.Errorf("scheme = %q, want bmes", cfg.Scheme)
	}
	if cfg.Version != "latest" {
		t.Errorf("version = %q, want default", cfg.Version)
	}
}

func TestWriteSegmentations(t *testing.T) {
	samples := []dataset.Sample{
		dataset.MustSample("running", "run", "n", "ing"),
		dataset.MustSample("cats", "cat", "s"),
	}

	var buf bytes.Buffer
	if err := writeSegmentations(&buf, samples, false); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "running\trun n ing\ncats\tcat s\n"; got != want {
		t.Errorf("tsv = %q, want %q", got, want)
	}

	buf.Reset()
	if err := writeSegmentations(&buf, samples, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"segments": [`) || !strings.Contains(buf.String(), `"word": "cats"`) {
		t.Errorf("json = %s", buf.String())
	}
}

func TestWriteSegmentationsFile(t *testing.T) {
	samples := []dataset.Sample{dataset.MustSample("cats", "cat", "s")}

	path := filepath.Join(t.TempDir(), "out.tsv")
	if err := writeSegmentationsFile(path, samples, false); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "cats\tcat s\n" {
		t.Errorf("file = %q", data)
	}

	if err := writeSegmentationsFile(filepath.Join(t.TempDir(), "missing", "out.tsv"), samples, false); err == nil {
		t.Error("expected error for missing directory")
	}

	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full")
	}
	if err := writeSegmentationsFile("/dev/full", samples, false); err == nil {
		t.Error("expected error when the output device is full")
	}
}

func TestReadWords(t *testing.T) {
	words, err := readWords(strings.NewReader("running\n cats  dogs\n"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(words, ",") != "running,cats,dogs" {
		t.Errorf("words = %v", words)
	}
	if _, err := readWords(strings.NewReader(" \n")); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	model := saveTestModel(t, dir)
	corpus := writeFile(t, dir, "test.tsv", "rug\trug\nring\tri ng\nrunning\trun n ing\n")
	out := filepath.Join(dir, "predicted.tsv")

	if err := run(t, "evaluate", corpus, "--model", model, "--show-wrong", "5"); err != nil {
		t.Errorf("evaluate: %v", err)
	}
	if err := run(t, "predict", corpus, "--model", model, "--output", out); err != nil {
		t.Fatalf("predict: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "rug\trug\nring\tri ng\nrunning\tru n ni ng\n"; got != want {
		t.Errorf("predictions = %q, want %q", got, want)
	}
	if err := run(t, "segment", "running", "--model", model); err != nil {
		t.Errorf("segment: %v", err)
	}
	if err := run(t, "tags", corpus, "--scheme", "bmes", "--shuffle", "--seed", "9"); err != nil {
		t.Errorf("tags: %v", err)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	model := saveTestModel(t, dir)
	corpus := writeFile(t, dir, "test.tsv", "rug\trug\n")

	tests := []struct {
		name string
		args []string
	}{
		{"missing corpus", []string{"evaluate", filepath.Join(dir, "missing.tsv"), "--model", model}},
		{"bad batch size", []string{"predict", corpus, "--model", model, "--batch-size", "0"}},
		{"bad unknown policy", []string{"segment", "rug", "--model", model, "--unknown", "drop"}},
		{"unknown characters", []string{"segment", "xyz", "--model", model}},
		{"bad scheme", []string{"tags", corpus, "--scheme", "bio"}},
		{"bad locale", []string{"download", "--locale", "English", "--dest", dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
