package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/happyhackingspace/segmorph/internal/storage"
	"github.com/spf13/cobra"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var showWrong int
	var keepDuplicates bool

	cmd := &cobra.Command{
		Use:   "evaluate <corpus>",
		Short: "Evaluate model accuracy on a segmented corpus",
		Args:  cobra.ExactArgs(1),
		Example: `  segmorph evaluate test.tsv
  segmorph evaluate data/ --batch-size 256 --show-wrong 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.settings(cmd)
			if err != nil {
				return err
			}
			opts := storage.DefaultLoadOptions()
			opts.DropDuplicates = !keepDuplicates
			ds, err := storage.NewStorage(args[0]).Load(opts)
			if err != nil {
				return err
			}
			s, err := loadSegmenter(cfg)
			if err != nil {
				return err
			}

			slog.Info("Evaluating", "samples", ds.Len(), "corpus", args[0])
			start := time.Now()
			result, err := s.Evaluate(ds.Samples(), cfg.BatchSize)
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			if err := result.Report.Write(os.Stdout); err != nil {
				return err
			}
			if showWrong > 0 && len(result.Wrong) > 0 {
				fmt.Printf("\nWrong segmentations (%d of %d):\n", min(showWrong, len(result.Wrong)), len(result.Wrong))
				for _, p := range result.Wrong[:min(showWrong, len(result.Wrong))] {
					fmt.Printf("%20s  got %-30s want %s\n", p.Expected.Word(),
						strings.Join(p.Predicted.Segments(), " "), strings.Join(p.Expected.Segments(), " "))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&showWrong, "show-wrong", 0, "Print up to this many wrong segmentations")
	cmd.Flags().BoolVar(&keepDuplicates, "keep-duplicates", false, "Keep repeated corpus entries")
	return cmd
}
