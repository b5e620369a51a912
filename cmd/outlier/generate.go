package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-sod/outlier/internal/dataset"
)

func newGenerateCmd() *cobra.Command {
	var (
		cfg    dataset.SynthConfig
		output string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a labeled synthetic dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Synthetic(cfg)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return dataset.Write(cmd.OutOrStdout(), ds)
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("unable to create %s: %w", output, err)
			}
			if err := dataset.Write(file, ds); err != nil {
				_ = file.Close()
				return err
			}
			return file.Close()
		},
	}
	fs := cmd.Flags()
	fs.IntVar(&cfg.Dim, "dim", 2, "dimension")
	fs.IntVar(&cfg.Clusters, "clusters", 3, "number of clusters")
	fs.IntVar(&cfg.ClusterSize, "cluster-size", 100, "points per cluster")
	fs.Float64Var(&cfg.Spread, "spread", 1, "half width of a cluster")
	fs.IntVar(&cfg.Noise, "noise", 10, "number of uniformly drawn outliers")
	fs.Float64Var(&cfg.Extent, "extent", 100, "range of cluster centers")
	fs.Uint32Var(&cfg.Seed, "seed", 1, "random seed")
	fs.StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	return cmd
}
