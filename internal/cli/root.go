// Package cli implements the jaeger command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math/rand"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/jaeger/internal/backend/cpu"
	"github.com/born-ml/jaeger/internal/envconfig"
	"github.com/born-ml/jaeger/internal/models"
	"github.com/born-ml/jaeger/internal/tensor"
)

// Version is set at build time with -ldflags "-X".
var Version = "v0.1.0-dev"

// modelFlags are shared by every command that builds a model.
type modelFlags struct {
	config string
	length int
	seed   int64
}

func (f *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.config, "config", "", "YAML file with model hyperparameters")
	cmd.Flags().IntVar(&f.length, "length", 0, "input sequence length (0 for the model default)")
	cmd.Flags().Int64Var(&f.seed, "seed", envconfig.Seed(), "seed for weight initialization (JAEGER_SEED)")
}

// build assembles the named model on the CPU backend.
func (f *modelFlags) build(name string) (*models.Model[*cpu.CPUBackend], error) {
	cfg := models.DefaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = models.LoadConfig(f.config); err != nil {
			return nil, err
		}
	}
	rng := rand.New(rand.NewSource(f.seed)) //nolint:gosec // reproducible weights
	return models.Build(name, models.InputSpec{Length: f.length}, cfg, rng, cpu.New())
}

// NewRootCommand returns the jaeger command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "jaeger",
		Short:         "Build and inspect the jaeger protein sequence classifiers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: envconfig.LogLevel()})
			slog.SetDefault(slog.New(handler))
			slog.Debug("jaeger config", "env", envconfig.Values())
		},
	}
	root.AddCommand(
		listCmd(),
		summaryCmd(),
		forwardCmd(),
		exportCmd(),
		envCmd(),
		versionCmd(),
	)
	return root
}

// Execute runs the command line with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available model architectures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var data [][]string
			for _, name := range models.Names() {
				data = append(data, []string{name, models.Describe(name)})
			}
			table := newTable(cmd.OutOrStdout(), "NAME", "DESCRIPTION")
			table.AppendBulk(data)
			table.Render()
			return nil
		},
	}
}

func envCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show the environment variables jaeger reads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := newTable(cmd.OutOrStdout(), "NAME", "VALUE", "DESCRIPTION")
			vals, vars := envconfig.Values(), envconfig.AsMap()
			for _, key := range slices.Sorted(maps.Keys(vals)) {
				table.Append([]string{key, vals[key], vars[key].Description})
			}
			table.Render()
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "jaeger %s\n", Version)
		},
	}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)
	return table
}

// formatShape renders unknown dimensions as None: (None, 128, 4).
func formatShape(s tensor.Shape) string {
	dims := make([]string, len(s))
	for i, d := range s {
		if d < 0 {
			dims[i] = "None"
		} else {
			dims[i] = fmt.Sprint(d)
		}
	}
	return "(" + strings.Join(dims, ", ") + ")"
}
