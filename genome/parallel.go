package genome

import (
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// genesPerTask is the minimum number of genes processed by a single
// goroutine.
const genesPerTask = 16

// Each calls f for every gene using up to workers goroutines
// (GOMAXPROCS if workers <= 0). f must write only to the state of
// its own gene. The first error is returned.
func (g *Genome) Each(workers int, f func(i int, gene *Gene) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	n := len(g.genes)
	if workers == 1 || n <= genesPerTask {
		for i, gene := range g.genes {
			if err := f(i, gene); err != nil {
				return err
			}
		}
		return nil
	}

	chunk := (n + 4*workers - 1) / (4 * workers)
	if chunk < genesPerTask {
		chunk = genesPerTask
	}

	var eg errgroup.Group
	eg.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		start, end := start, start+chunk
		if end > n {
			end = n
		}
		eg.Go(func() error {
			for i := start; i < end; i++ {
				if err := f(i, g.genes[i]); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return eg.Wait()
}

// Sum computes f for every gene in parallel and sums the results in
// gene order, so the result does not depend on scheduling.
func (g *Genome) Sum(workers int, f func(i int, gene *Gene) (float64, error)) (float64, error) {
	vals := make([]float64, len(g.genes))
	err := g.Each(workers, func(i int, gene *Gene) (err error) {
		vals[i], err = f(i, gene)
		return
	})
	if err != nil {
		return 0, err
	}
	return floats.Sum(vals), nil
}
