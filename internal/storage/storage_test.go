package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/happyhackingspace/segmorph/dataset"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line      string
		lowercase bool
		word      string
		segments  []string
		ok        bool
		wantErr   bool
	}{
		{"running\trun n ing", false, "running", []string{"run", "n", "ing"}, true, false},
		{"cats\tcat:ROOT s:PL", false, "cats", []string{"cat", "s"}, true, false},
		{"cats\tcat s, ca ts", false, "cats", []string{"cat", "s"}, true, false},
		{"Cats\tCat s", true, "cats", []string{"cat", "s"}, true, false},
		{"café\tcafé", false, "café", []string{"café"}, true, false},
		{"word", false, "word", nil, true, false},
		{"word\t", false, "word", nil, true, false},
		{"", false, "", nil, false, false},
		{"   ", false, "", nil, false, false},
		{"# comment", false, "", nil, false, false},
		{"cats\tca s", false, "", nil, false, true},
		{"\tcat s", false, "", nil, false, true},
	}
	for _, tt := range tests {
		s, ok, err := ParseLine(tt.line, tt.lowercase)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLine(%q) err = %v, wantErr %v", tt.line, err, tt.wantErr)
			continue
		}
		if ok != tt.ok {
			t.Errorf("ParseLine(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if s.Word() != tt.word {
			t.Errorf("ParseLine(%q) word = %q, want %q", tt.line, s.Word(), tt.word)
		}
		if !reflect.DeepEqual(s.Segments(), tt.segments) && (len(tt.segments) > 0 || s.Labeled()) {
			t.Errorf("ParseLine(%q) segments = %v, want %v", tt.line, s.Segments(), tt.segments)
		}
	}
}

const corpus = `# training words
running	run n ing
cats	cat s
cats	cat s
bad	b a d x
unlabeled
unhappy	un happy
`

func TestReadCorpus(t *testing.T) {
	samples, err := ReadCorpus(strings.NewReader(corpus), "test.tsv", DefaultLoadOptions())
	if err != nil {
		t.Fatal(err)
	}
	var words []string
	for _, s := range samples {
		words = append(words, s.Word())
	}
	want := []string{"running", "cats", "unhappy"}
	if !reflect.DeepEqual(words, want) {
		t.Errorf("words = %v, want %v", words, want)
	}
}

func TestReadCorpusKeepsDuplicatesAndUnlabeled(t *testing.T) {
	opts := LoadOptions{}
	samples, err := ReadCorpus(strings.NewReader(corpus), "test.tsv", opts)
	if err != nil {
		t.Fatal(err)
	}
	// running, cats, cats, unlabeled, unhappy
	if len(samples) != 5 {
		t.Errorf("len = %d, want 5", len(samples))
	}
	if samples[3].Labeled() {
		t.Errorf("%v should be unlabeled", samples[3])
	}
}

func TestReadCorpusStrict(t *testing.T) {
	_, err := ReadCorpus(strings.NewReader(corpus), "test.tsv", LoadOptions{Strict: true})
	if !errors.Is(err, dataset.ErrInvalidSample) {
		t.Fatalf("err = %v, want ErrInvalidSample", err)
	}
	if !strings.Contains(err.Error(), "test.tsv:5") {
		t.Errorf("error %q should name the line", err)
	}

	_, err = ReadCorpus(strings.NewReader("word\n"), "w.tsv", LoadOptions{Strict: true, RequireLabels: true})
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("err = %v, want ErrSyntax", err)
	}
}

func TestStorageLoad(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.tsv":     "running\trun n ing\ncats\tcat s\n",
		"b.txt":     "cats\tcat s\ndogs\tdog s\n",
		"notes.md":  "ignored\ti g n o r e d\n",
		"c.TSV":     "unhappy\tun happy\n",
		"empty.tsv": "",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	ds, err := NewStorage(dir).Load(DefaultLoadOptions())
	if err != nil {
		t.Fatal(err)
	}
	var words []string
	for _, s := range ds.Samples() {
		words = append(words, s.Word())
	}
	want := []string{"running", "cats", "dogs", "unhappy"}
	if !reflect.DeepEqual(words, want) {
		t.Errorf("words = %v, want %v", words, want)
	}

	single, err := NewStorage(filepath.Join(dir, "b.txt")).Load(DefaultLoadOptions())
	if err != nil {
		t.Fatal(err)
	}
	if single.Len() != 2 {
		t.Errorf("single file len = %d, want 2", single.Len())
	}
}

func TestStorageErrors(t *testing.T) {
	if _, err := NewStorage(filepath.Join(t.TempDir(), "missing")).Load(DefaultLoadOptions()); err == nil {
		t.Error("expected error for a missing path")
	}
	if _, err := NewStorage(t.TempDir()).Load(DefaultLoadOptions()); err == nil {
		t.Error("expected error for a folder without corpus files")
	}
}
