package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/happyhackingspace/segmorph/dataset"
	"github.com/happyhackingspace/segmorph/internal/storage"
	"github.com/happyhackingspace/segmorph/internal/textutil"
	"github.com/spf13/cobra"
)

// segmentation is the JSON output of one segmented word.
type segmentation struct {
	Word     string   `json:"word"`
	Segments []string `json:"segments"`
}

func (c *CLI) newSegmentCommand() *cobra.Command {
	var asJSON bool
	var lowercase bool

	cmd := &cobra.Command{
		Use:   "segment [word...]",
		Short: "Segment words given as arguments or on stdin",
		Example: `  # Segment words directly
  segmorph segment running unhappiness

  # One word per line from stdin
  cat words.txt | segmorph segment

  # JSON output
  segmorph segment running --json

  # Use custom model file
  segmorph segment running --model custom.json.xz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			words := args
			if len(words) == 0 {
				if isStdinTerminal() {
					return cmd.Help()
				}
				var err error
				words, err = readWords(os.Stdin)
				if err != nil {
					return err
				}
			}

			cfg, err := c.settings(cmd)
			if err != nil {
				return err
			}
			s, err := loadSegmenter(cfg)
			if err != nil {
				return err
			}

			inputs := make([]dataset.Sample, len(words))
			for i, w := range words {
				w = textutil.NFC(strings.TrimSpace(w))
				if lowercase {
					w = textutil.Normalize(w)
				}
				inputs[i] = dataset.Word(w)
			}

			start := time.Now()
			out, err := s.Predict(inputs, cfg.BatchSize, c.verbose)
			if err != nil {
				return err
			}
			slog.Debug("Segmentation completed", "words", len(out), "duration", time.Since(start))
			return writeSegmentations(os.Stdout, out, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of tab separated lines")
	cmd.Flags().BoolVar(&lowercase, "lowercase", false, "Lowercase words before segmenting")
	return cmd
}

func (c *CLI) newPredictCommand() *cobra.Command {
	var output string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "predict <corpus>",
		Short: "Segment every word of a corpus file or folder",
		Args:  cobra.ExactArgs(1),
		Example: `  segmorph predict words.tsv
  segmorph predict data/ --output predicted.tsv --batch-size 256`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.settings(cmd)
			if err != nil {
				return err
			}
			ds, err := storage.NewStorage(args[0]).Load(storage.LoadOptions{})
			if err != nil {
				return err
			}
			s, err := loadSegmenter(cfg)
			if err != nil {
				return err
			}

			slog.Info("Predicting", "words", ds.Len(), "batch-size", cfg.BatchSize)
			start := time.Now()
			out, err := s.Predict(ds.Samples(), cfg.BatchSize, c.verbose)
			if err != nil {
				return err
			}
			slog.Info("Prediction completed", "words", len(out), "repairs", s.Processor().Repairs(),
				"duration", time.Since(start))

			if output == "" {
				return writeSegmentations(os.Stdout, out, asJSON)
			}
			return writeSegmentationsFile(output, out, asJSON)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write predictions to a file instead of stdout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of tab separated lines")
	return cmd
}

// writeSegmentationsFile writes samples to path, reporting close errors.
func writeSegmentationsFile(path string, samples []dataset.Sample, asJSON bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := writeSegmentations(f, samples, asJSON); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

// writeSegmentations prints samples in corpus format or as a JSON array.
func writeSegmentations(w io.Writer, samples []dataset.Sample, asJSON bool) error {
	if asJSON {
		out := make([]segmentation, len(samples))
		for i, s := range samples {
			out[i] = segmentation{Word: s.Word(), Segments: s.Segments()}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	bw := bufio.NewWriter(w)
	for _, s := range samples {
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", s.Word(), strings.Join(s.Segments(), " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func isStdinTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// readWords reads whitespace separated words.
func readWords(r io.Reader) ([]string, error) {
	slog.Debug("Reading from stdin")
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	words := strings.Fields(string(body))
	if len(words) == 0 {
		return nil, fmt.Errorf("stdin is empty")
	}
	return words, nil
}
