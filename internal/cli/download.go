package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/happyhackingspace/segmorph"
	"github.com/happyhackingspace/segmorph/internal/config"
	"github.com/happyhackingspace/segmorph/processing"
	"github.com/spf13/cobra"
)

func (c *CLI) newDownloadCommand() *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a released model artifact",
		Example: `  # Latest English model into the model cache
  segmorph download

  # A pinned Turkish release into the current directory
  segmorph download --locale tur --model-version 1.2.0 --dest .`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.settings(cmd)
			if err != nil {
				return err
			}
			if dest == "" {
				dest = segmorph.ModelDir()
			}
			_, err = downloadModel(cfg.Locale, cfg.Version, filepath.Join(dest, segmorph.ModelFile+".xz"))
			return err
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "Destination folder (default: model cache)")
	return cmd
}

// downloadModel fetches the artifact of a locale and version to dest.
func downloadModel(locale, version, dest string) (string, error) {
	url, err := segmorph.ArtifactURL(locale, version)
	if err != nil {
		return "", err
	}
	slog.Info("Downloading model", "url", url, "dest", dest)

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return "", fmt.Errorf("download model: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download model: HTTP %d", resp.StatusCode)
	}

	// A partial download never replaces dest.
	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create model file: %w", err)
	}

	written, err := io.Copy(f, resp.Body)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("download model: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write model file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("write model file: %w", err)
	}

	slog.Info("Model downloaded", "size", fmt.Sprintf("%.1fMB", float64(written)/1024/1024))
	return dest, nil
}

// loadSegmenter loads the configured model, downloading the configured
// release when no model path is given and none is found locally.
func loadSegmenter(cfg *config.Config) (*segmorph.Segmenter, error) {
	start := time.Now()
	s, err := loadOrDownloadModel(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Unknown != "" {
		policy, err := processing.ParseUnknownPolicy(cfg.Unknown)
		if err != nil {
			return nil, err
		}
		s.Processor().Unknown = policy
	}
	slog.Debug("Model loaded", "duration", time.Since(start), "scheme", s.Processor().Scheme,
		"alphabet", len(s.Processor().Alphabet()))
	return s, nil
}

func loadOrDownloadModel(cfg *config.Config) (*segmorph.Segmenter, error) {
	if cfg.Model != "" {
		slog.Debug("Loading custom model", "path", cfg.Model)
		return segmorph.Load(cfg.Model)
	}

	s, err := segmorph.New()
	if err == nil {
		return s, nil
	}

	slog.Info("Model not found, downloading", "locale", cfg.Locale, "version", cfg.Version)
	path, err := downloadModel(cfg.Locale, cfg.Version, filepath.Join(segmorph.ModelDir(), segmorph.ModelFile+".xz"))
	if err != nil {
		return nil, err
	}
	return segmorph.Load(path)
}
