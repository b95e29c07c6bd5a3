package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"
)

// HistogramBins is the fixed number of equal-width buckets outcomes are
// charted into.
const HistogramBins = 20

// lossThreshold: a trial counts as a loss when its final balance lands
// below this fraction of the deterministic baseline.
const lossThreshold = 0.9

type (
	// MonteCarloOptions configures a sampling run. Workers shards trials
	// across goroutines; results are reproducible for a fixed
	// (Seed, Workers) pair because every shard owns a rand seeded from
	// Seed and the shard index.
	MonteCarloOptions struct {
		Trials             int     `json:"trials"`
		RateStdDev         float64 `json:"rate_stddev"`
		ContributionStdDev float64 `json:"contribution_stddev"`
		Seed               int64   `json:"seed,omitempty"`
		Workers            int     `json:"workers,omitempty"`
	}

	// HistogramBucket is one bar of the outcome distribution.
	HistogramBucket struct {
		Center      float64 `json:"final_value_bucket_center"`
		Probability float64 `json:"probability"`
	}

	// MonteCarloStats summarizes the final-balance outcomes. The standard
	// deviation is the population form; P5/P95 are index-based.
	MonteCarloStats struct {
		Mean            float64 `json:"mean"`
		Median          float64 `json:"median"`
		StdDev          float64 `json:"std_dev"`
		P5              float64 `json:"p5"`
		P95             float64 `json:"p95"`
		LossProbability float64 `json:"loss_probability"`
	}

	// MonteCarloResult is the full sampling report.
	MonteCarloResult struct {
		TrialCount         int               `json:"trial_count"`
		RateStdDev         float64           `json:"rate_stddev"`
		ContributionStdDev float64           `json:"contribution_stddev"`
		Histogram          []HistogramBucket `json:"histogram"`
		Stats              MonteCarloStats   `json:"stats"`
	}
)

// SampleMonteCarlo stress-tests a scenario by drawing multiplicative noise
// on the rate and contribution across N trials.
//
// Noise is uniform, centered at 1: factor = 1 + (U(0,1)-0.5)*2*stddev.
// Downstream percentile reporting assumes this shape; do not swap in
// Box-Muller normals without revisiting it. Trials are independent and
// sharded across workers; shard outputs are concatenated before the sort,
// so no ordering dependency exists between trials.
func SampleMonteCarlo(ctx context.Context, base Input, opts MonteCarloOptions) (*MonteCarloResult, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if opts.Trials < 1 {
		return nil, fmt.Errorf("trial count must be at least 1, got %d", opts.Trials)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > opts.Trials {
		workers = opts.Trials
	}

	baseline, err := Simulate(base)
	if err != nil {
		return nil, err
	}

	shards := make([][]float64, workers)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		i := i
		count := opts.Trials / workers
		if i < opts.Trials%workers {
			count++
		}
		g.Go(func() error {
			rng := rand.New(rand.NewSource(opts.Seed + int64(i)))
			out := make([]float64, 0, count)
			for t := 0; t < count; t++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				trial := base
				trial.AnnualRatePercent *= noiseFactor(rng, opts.RateStdDev)
				trial.MonthlyValue *= noiseFactor(rng, opts.ContributionStdDev)
				if trial.MonthlyValue < 0 {
					trial.MonthlyValue = 0
				}
				res, err := Simulate(trial)
				if err != nil {
					return fmt.Errorf("trial simulation: %w", err)
				}
				out = append(out, res.FinalBalance)
			}
			shards[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	finals := make([]float64, 0, opts.Trials)
	for _, shard := range shards {
		finals = append(finals, shard...)
	}
	sort.Float64s(finals)

	return &MonteCarloResult{
		TrialCount:         opts.Trials,
		RateStdDev:         opts.RateStdDev,
		ContributionStdDev: opts.ContributionStdDev,
		Histogram:          histogram(finals),
		Stats:              summarize(finals, baseline.FinalBalance),
	}, nil
}

// noiseFactor approximates normal perturbation with a uniform draw centered
// at 1.
func noiseFactor(rng *rand.Rand, stddev float64) float64 {
	return 1 + (rng.Float64()-0.5)*2*stddev
}

// summarize computes the stats over the sorted outcomes.
func summarize(sorted []float64, baselineFinal float64) MonteCarloStats {
	n := len(sorted)
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var variance float64
	for _, v := range sorted {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n)

	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	losses := 0
	threshold := baselineFinal * lossThreshold
	for _, v := range sorted {
		if v < threshold {
			losses++
		}
	}

	return MonteCarloStats{
		Mean:            mean,
		Median:          median,
		StdDev:          math.Sqrt(variance),
		P5:              sorted[percentileIndex(n, 0.05)],
		P95:             sorted[percentileIndex(n, 0.95)],
		LossProbability: float64(losses) / float64(n),
	}
}

func percentileIndex(n int, q float64) int {
	idx := int(float64(n) * q)
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// histogram buckets sorted outcomes into HistogramBins equal-width bins
// between the observed min and max. A degenerate run where every trial
// lands on the same value collapses into a single full bucket.
func histogram(sorted []float64) []HistogramBucket {
	n := len(sorted)
	min, max := sorted[0], sorted[n-1]
	if min == max {
		return []HistogramBucket{{Center: min, Probability: 1}}
	}

	width := (max - min) / HistogramBins
	counts := make([]int, HistogramBins)
	for _, v := range sorted {
		bucket := int((v - min) / width)
		if bucket >= HistogramBins {
			bucket = HistogramBins - 1
		}
		counts[bucket]++
	}

	out := make([]HistogramBucket, HistogramBins)
	for i, c := range counts {
		out[i] = HistogramBucket{
			Center:      min + width*(float64(i)+0.5),
			Probability: float64(c) / float64(n),
		}
	}
	return out
}
