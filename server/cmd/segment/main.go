// segment classifies a single TV show from the command line.
//
// Usage:
//
//	segment predict --popularity 42.5 --vote-average 8.1 --vote-count 1200 [--json]
//	segment clusters
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/tvsegment/tvsegment/server/internal/api"
	"github.com/tvsegment/tvsegment/server/internal/artifact"
	"github.com/tvsegment/tvsegment/server/internal/config"
	"github.com/tvsegment/tvsegment/server/internal/metrics"
	"github.com/tvsegment/tvsegment/server/internal/pipeline"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "segment",
		Usage:   "Assign a TV show to an audience segment",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "Path to the server config file (defaults are used if it is missing)",
				EnvVars: []string{"TVSEGMENT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "artifacts-dir",
				Usage:   "Override artifacts.dir from the config",
				EnvVars: []string{"TVSEGMENT_ARTIFACTS_DIR"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Before: func(c *cli.Context) error {
			lvl := config.LogConfig{Level: c.String("log-level")}.SlogLevel()
			slog.SetDefault(slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: lvl})))
			return nil
		},
		Commands: []*cli.Command{
			predictCommand(),
			clustersCommand(),
		},
	}
}

// =============================================================================
// PREDICT COMMAND
// =============================================================================

func predictCommand() *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "Predict the segment of one show",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:     "popularity",
				Aliases:  []string{"p"},
				Usage:    "Popularity score (>= 0)",
				Required: true,
			},
			&cli.Float64Flag{
				Name:     "vote-average",
				Aliases:  []string{"a"},
				Usage:    "Average rating (0-10)",
				Required: true,
			},
			&cli.Int64Flag{
				Name:     "vote-count",
				Aliases:  []string{"n"},
				Usage:    "Number of votes (>= 0)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the full prediction as JSON",
			},
		},
		Action: runPredict,
	}
}

func runPredict(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	pred, err := newPredictor(c, cfg)
	if err != nil {
		return err
	}

	raw := pipeline.RawInput{
		Popularity:  c.Float64("popularity"),
		VoteAverage: c.Float64("vote-average"),
		VoteCount:   c.Int64("vote-count"),
	}
	id := uuid.NewString()
	res, err := pred.Predict(id, raw)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}
	resp := api.NewPredictionResponse(id, res, pred.Radius())

	out := c.App.Writer
	if c.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintf(out, "Segment %d: %s\n", resp.Cluster.Label, resp.Cluster.Name)
	fmt.Fprintf(out, "  %s\n\n", resp.Cluster.Description)
	fmt.Fprintf(out, "  features  popularity_log=%.4f vote_average=%.4f vote_count_log=%.4f\n",
		resp.Features.PopularityLog, resp.Features.VoteAverage, resp.Features.VoteCountLog)
	fmt.Fprintf(out, "  position  x=%.4f y=%.4f\n", resp.Point.X, resp.Point.Y)
	for _, h := range resp.Diagnostics {
		fmt.Fprintf(out, "  [%s] %s: %s\n", h.Level, h.Title, h.Detail)
	}
	return nil
}

// =============================================================================
// CLUSTERS COMMAND
// =============================================================================

func clustersCommand() *cli.Command {
	return &cli.Command{
		Name:  "clusters",
		Usage: "List the configured segment interpretations",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			// Same label order as GET /api/v1/clusters.
			for _, in := range pipeline.NewTable(cfg.Interpretations()).Entries() {
				fmt.Fprintf(c.App.Writer, "%d\t%s\t%s\n", in.Label, in.Name, in.Description)
			}
			return nil
		},
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("config not found, using defaults", "path", path)
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if dir := c.String("artifacts-dir"); dir != "" {
		cfg.Artifacts.Dir = dir
	}
	return cfg, nil
}

func newPredictor(c *cli.Context, cfg *config.Config) (*api.Predictor, error) {
	set, err := artifact.Load(artifact.SearchPaths(
		cfg.Artifacts.Dir, cfg.Artifacts.ModelFile, cfg.Artifacts.ScalerFile,
	))
	if err != nil {
		return nil, err
	}
	table := pipeline.NewTable(cfg.Interpretations())
	if missing := table.Missing(set.Model.Labels()); len(missing) > 0 {
		slog.Warn("interpretation table does not cover every model label", "missing", missing)
	}
	p := pipeline.New(set.Scaler, set.Model, table)
	return api.NewPredictor(p, metrics.New(), nil, cfg.Plot.Radius), nil
}
