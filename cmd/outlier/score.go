package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/go-sod/outlier/internal/config"
	"github.com/go-sod/outlier/internal/dataset"
	"github.com/go-sod/outlier/internal/density"
	"github.com/go-sod/outlier/internal/evaluate"
	"github.com/go-sod/outlier/internal/geom"
	"github.com/go-sod/outlier/internal/scorer"
	"github.com/go-sod/outlier/internal/setup"
)

// scoreFlags are the command line overrides of the scorer configuration and
// the dataset format.
type scoreFlags struct {
	comma    string
	header   bool
	startID  int
	k        int
	method   string
	distance string
	weights  []float64
	alg      string
	clampK   bool
	workers  int
}

func (f *scoreFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.comma, "comma", "", "CSV separator; whitespace separated columns when empty")
	fs.BoolVar(&f.header, "header", false, "CSV input starts with a header row")
	fs.IntVar(&f.startID, "start-id", 0, "identifier of the first point")
	fs.IntVar(&f.k, "k", scorer.DefaultKNum, "number of nearest neighbors")
	fs.StringVar(&f.method, "method", string(density.MethodCOF), "COF, LOF or KNN_MEAN")
	fs.StringVar(&f.distance, "distance", string(geom.DistanceFuncTypeEuclidean), "distance function")
	fs.Float64SliceVar(&f.weights, "weights", nil, "weights of weighted distance functions")
	fs.StringVar(&f.alg, "alg", string(scorer.AlgTypeAuto), "AUTO, BRUTE or KD_TREE")
	fs.BoolVar(&f.clampK, "clamp-k", false, "lower k to N-1 for small datasets")
	fs.IntVar(&f.workers, "workers", 0, "parallel workers, 0 for one per CPU")
}

// options returns the flags the user set explicitly.
func (f *scoreFlags) options(cmd *cobra.Command) ([]scorer.Option, error) {
	var opts []scorer.Option
	fs := cmd.Flags()
	if fs.Changed("k") {
		opts = append(opts, scorer.WithK(f.k))
	}
	if fs.Changed("method") {
		m, err := density.ParseMethodType(f.method)
		if err != nil {
			return nil, err
		}
		opts = append(opts, scorer.WithMethod(m))
	}
	if fs.Changed("distance") {
		d, err := geom.ParseDistanceFuncType(f.distance)
		if err != nil {
			return nil, err
		}
		opts = append(opts, scorer.WithDistance(d))
	}
	if fs.Changed("weights") {
		opts = append(opts, scorer.WithWeights(f.weights))
	}
	if fs.Changed("alg") {
		a, err := scorer.ParseAlgType(f.alg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, scorer.WithAlg(a))
	}
	if fs.Changed("clamp-k") {
		opts = append(opts, scorer.WithClampK(f.clampK))
	}
	if fs.Changed("workers") {
		opts = append(opts, scorer.WithWorkers(f.workers))
	}
	return opts, nil
}

func (f *scoreFlags) readerOptions() ([]dataset.Option, error) {
	opts := []dataset.Option{dataset.WithStartID(f.startID), dataset.WithHeader(f.header)}
	if f.comma != "" {
		r, size := utf8.DecodeRuneInString(f.comma)
		if size != len(f.comma) {
			return nil, fmt.Errorf("comma must be a single character: %q", f.comma)
		}
		opts = append(opts, dataset.WithComma(r))
	}
	return opts, nil
}

// run loads the dataset and scores it with the configured scorer.
func (f *scoreFlags) run(cmd *cobra.Command, configFile, input string) (*dataset.Dataset, *scorer.Result, error) {
	ctx := cmd.Context()
	readerOpts, err := f.readerOptions()
	if err != nil {
		return nil, nil, err
	}
	ds, err := dataset.Load(input, readerOpts...)
	if err != nil {
		return nil, nil, err
	}

	var cfg config.Config
	env, err := setup.Setup(ctx, &cfg, setup.WithConfigFile(configFile))
	if err != nil {
		return nil, nil, fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(ctx)

	opts, err := f.options(cmd)
	if err != nil {
		return nil, nil, err
	}
	s, err := env.ProvideScorer()(opts...)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.Score(ctx, ds)
	if err != nil {
		return nil, nil, err
	}
	return ds, result, nil
}

func newScoreCmd(configFile *string) *cobra.Command {
	var (
		flags  scoreFlags
		top    int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "score <dataset>",
		Short: "Score every point of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, result, err := flags.run(cmd, *configFile, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			return writeRanking(cmd.OutOrStdout(), ds, evaluate.TopN(result, top))
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&top, "top", 20, "number of highest scores printed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func newEvalCmd(configFile *string) *cobra.Command {
	var (
		flags    scoreFlags
		positive string
	)
	cmd := &cobra.Command{
		Use:   "eval <dataset>",
		Short: "Score a labeled dataset and report ROC AUC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, result, err := flags.run(cmd, *configFile, args[0])
			if err != nil {
				return err
			}
			positives := evaluate.LabelSet(ds, positive)
			auc, err := evaluate.AUC(result, positives)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "method: %s, distance: %s, k: %d\n", result.Method, result.Distance, result.K)
			_, _ = fmt.Fprintf(out, "points: %d, positives: %d, undefined: %d\n", ds.Len(), len(positives), result.Undefined())
			_, _ = fmt.Fprintf(out, "ROC AUC: %.7f\n", auc)
			_, _ = fmt.Fprintf(out, "precision@%d: %.4f\n", len(positives), evaluate.PrecisionAt(result, positives, len(positives)))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&positive, "positive", dataset.NoiseLabel, "label of the true outliers")
	return cmd
}

func writeRanking(w io.Writer, ds *dataset.Dataset, scores []scorer.Score) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RANK\tID\tSCORE\tSTATUS\tLABEL")
	for i, s := range scores {
		p, _ := ds.Point(s.ID)
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%.6f\t%s\t%s\n", i+1, s.ID, s.Value, s.Status, p.Label)
	}
	return tw.Flush()
}
