package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/happyhackingspace/segmorph/generator"
	"github.com/happyhackingspace/segmorph/internal/storage"
	"github.com/happyhackingspace/segmorph/processing"
	"github.com/spf13/cobra"
)

func (c *CLI) newTagsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags <corpus>",
		Short: "Print the tag sequences a corpus encodes to, batch by batch",
		Args:  cobra.ExactArgs(1),
		Example: `  segmorph tags train.tsv
  segmorph tags train.tsv --scheme bmes --batch-size 8 --shuffle --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.settings(cmd)
			if err != nil {
				return err
			}
			scheme, unknown, err := cfg.ProcessorSettings()
			if err != nil {
				return err
			}
			ds, err := storage.NewStorage(args[0]).Load(storage.DefaultLoadOptions())
			if err != nil {
				return err
			}
			proc, err := processing.Fit(scheme, ds.Samples(), cfg.MaxLen, unknown)
			if err != nil {
				return err
			}
			slog.Info("Alphabet fitted", "chars", len(proc.Alphabet()), "scheme", scheme, "classes", proc.NumClasses())

			gen, err := generator.New(ds, proc, generator.Options{
				BatchSize:   cfg.BatchSize,
				WithSamples: true,
				Shuffle:     cfg.Shuffle,
				Seed:        cfg.Seed,
				Sparse:      true,
			})
			if err != nil {
				return err
			}

			tags := scheme.Tags()
			w := bufio.NewWriter(os.Stdout)
			for batch, err := range gen.Batches() {
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "# batch %d/%d\n", batch.Index+1, gen.Len())
				for i, s := range batch.Samples {
					names := make([]string, len(batch.Sparse[i]))
					for j, class := range batch.Sparse[i] {
						names[j] = tags[class]
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", s.Word(), strings.Join(s.Segments(), " "), strings.Join(names, " "))
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("scheme", string(processing.SchemeBoundary), "Tag scheme: boundary or bmes")
	cmd.Flags().Int("max-len", 0, "Fixed padded width (0: longest word per batch)")
	cmd.Flags().Bool("shuffle", false, "Shuffle the corpus once per pass")
	cmd.Flags().Uint64("seed", 0, "Shuffle seed")
	return cmd
}
