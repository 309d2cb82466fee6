package pipeline

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/s1_efficiency"
)

// maxConcurrentFits bounds the per-gene regressions running at once
const maxConcurrentFits = 8

// Efficiencies fits every gene concurrently. Genes are independent; the
// result is sorted by gene like s1_efficiency.EstimateAll.
func Efficiencies(ctx context.Context, rows []contracts.TidyRow, genes []string) ([]*contracts.EfficiencyResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFits)

	var (
		mu      sync.Mutex
		results = make(map[string]*contracts.EfficiencyResult, len(genes))
	)

	for _, gene := range genes {
		gene := gene
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s1_efficiency.Estimate(rows, gene)
			if err != nil {
				return err
			}
			mu.Lock()
			results[gene] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*contracts.EfficiencyResult, 0, len(results))
	for _, res := range results {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Gene < out[j].Gene })
	return out, nil
}
