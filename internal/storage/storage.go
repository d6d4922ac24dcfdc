package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/happyhackingspace/segmorph/dataset"
)

// corpusExts are the file extensions treated as corpus files in a folder.
var corpusExts = []string{".tsv", ".txt"}

// Storage wraps a corpus file or a folder of corpus files.
type Storage struct {
	Path string
}

// NewStorage creates a Storage for the given corpus file or folder.
func NewStorage(path string) *Storage {
	return &Storage{Path: path}
}

// Files returns the corpus files of the storage in lexical order. A file
// path is returned as is; a folder yields its .tsv and .txt files.
func (s *Storage) Files() ([]string, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{s.Path}, nil
	}
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(corpusExts, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		files = append(files, filepath.Join(s.Path, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no corpus files in %s", s.Path)
	}
	return files, nil
}

// Load reads every corpus file of the storage, in order. With
// DropDuplicates set, duplicates are dropped across files too.
func (s *Storage) Load(opts LoadOptions) (*dataset.Dataset, error) {
	files, err := s.Files()
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	var samples []dataset.Sample
	for _, path := range files {
		part, err := s.loadFile(path, opts)
		if err != nil {
			return nil, err
		}
		samples = append(samples, part...)
	}
	if opts.DropDuplicates {
		samples = Dedupe(samples)
	}
	return dataset.New(samples), nil
}

func (s *Storage) loadFile(path string, opts LoadOptions) ([]dataset.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCorpus(f, filepath.Base(path), opts)
}
