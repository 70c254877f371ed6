package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/exp/rand"

	"github.com/mrrlab/ribmc/bio"
	"github.com/mrrlab/ribmc/checkpoint"
	"github.com/mrrlab/ribmc/genome"
	"github.com/mrrlab/ribmc/mcmc"
	"github.com/mrrlab/ribmc/model"
	"github.com/mrrlab/ribmc/parameter"
	"github.com/mrrlab/ribmc/restart"
	"github.com/mrrlab/ribmc/traceout"
)

// readGenome reads sequences and optional footprint counts.
func readGenome(fastaFn, countsFn string) (*genome.Genome, error) {
	f, err := os.Open(fastaFn)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seqs, err := bio.ParseFasta(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fastaFn, err)
	}
	g, err := genome.FromSequences(seqs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fastaFn, err)
	}

	if countsFn == "" {
		return g, nil
	}
	cf, err := os.Open(countsFn)
	if err != nil {
		return nil, err
	}
	defer cf.Close()
	if err := genome.ReadCounts(cf, g); err != nil {
		return nil, fmt.Errorf("%s: %w", countsFn, err)
	}
	return g, nil
}

// newStore creates the parameter store from the mixture settings,
// the configuration file and the restart file.
func newStore(rs *runSettings, v model.Variant, g *genome.Genome) (*parameter.Store, error) {
	var cfg *config
	if rs.configFn != "" {
		var err error
		if cfg, err = readConfig(rs.configFn); err != nil {
			return nil, err
		}
	}

	var mix *parameter.Mixture
	var err error
	if cfg != nil {
		if mix, err = cfg.mixture(g.Len()); err != nil {
			return nil, err
		}
	}
	if mix == nil {
		if mix, err = parameter.NewMixture(rs.mixtureState, rs.nMixtures, g.Len()); err != nil {
			return nil, err
		}
	}

	ss := parameter.NewSettings()
	if cfg != nil {
		cfg.updateSettings(ss)
	}
	st, err := parameter.NewStore(v.Layout, mix, ss)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		if err := cfg.apply(st, g); err != nil {
			return nil, err
		}
	}

	if rs.restartInFn != "" {
		f, err := os.Open(rs.restartInFn)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		snap, err := restart.Read(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rs.restartInFn, err)
		}
		if err := st.Load(snap); err != nil {
			return nil, fmt.Errorf("%s: %w", rs.restartInFn, err)
		}
		log.Noticef("Initial values from %s (iteration %d)", rs.restartInFn, snap.Iteration)
	}
	return st, nil
}

// serveMetrics starts a prometheus endpoint.
func serveMetrics(addr string) *mcmc.Metrics {
	reg := prometheus.NewRegistry()
	m := mcmc.NewMetrics(reg)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("Metrics server:", err)
		}
	}()
	log.Infof("Serving metrics on %s", addr)
	return m
}

// writeRestart writes the final state.
func writeRestart(fn string, snap *parameter.Snapshot) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err := restart.Write(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeSimulation simulates a genome from the final state and writes
// sequences and, for footprint models, counts.
func writeSimulation(prefix string, v model.Variant, m mcmc.Model, g *genome.Genome, rng *rand.Rand) error {
	sim, err := m.SimulateGenome(g, rng)
	if err != nil {
		return err
	}
	f, err := os.Create(prefix + ".fasta")
	if err != nil {
		return err
	}
	if _, err := fmt.Fprint(f, sim.ToSequences()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if !v.NeedsCounts {
		return nil
	}
	cf, err := os.Create(prefix + ".counts")
	if err != nil {
		return err
	}
	if err := genome.WriteCounts(cf, sim); err != nil {
		cf.Close()
		return err
	}
	return cf.Close()
}

// run performs the sampling and writes all the outputs.
func run(rs *runSettings) (*RunSummary, error) {
	startTime := time.Now()
	summary := &RunSummary{
		RunID: uuid.New().String(),
		Model: rs.model,
	}
	log.Infof("Run id: %s", summary.RunID)

	v, ok := model.Variants[rs.model]
	if !ok {
		return nil, fmt.Errorf("unknown model %s", rs.model)
	}
	log.Infof("Using %s model (%s)", v.Name, v.Description)

	g, err := readGenome(rs.genomeFn, rs.countsFn)
	if err != nil {
		return nil, err
	}
	if v.NeedsCounts && rs.countsFn == "" {
		return nil, errors.New(v.Name + " model requires footprint counts")
	}
	if err := v.CheckCounts(g); err != nil {
		return nil, err
	}
	log.Infof("Read %d genes", g.Len())
	summary.Genes = g.Len()

	st, err := newStore(rs, v, g)
	if err != nil {
		return nil, err
	}
	log.Infof("%d mixture elements, %d mutation and %d selection categories",
		st.Mixture().Len(), st.Mixture().MutationCategories(), st.Mixture().SelectionCategories())

	var cp *checkpoint.CheckpointIO
	if rs.checkpointFn != "" {
		db, err := bolt.Open(rs.checkpointFn, 0666, &bolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rs.checkpointFn, err)
		}
		defer db.Close()
		cp = checkpoint.NewCheckpointIO(db, rs.checkpointKey(), rs.checkpointSec)
		snap, err := cp.Load()
		if err != nil {
			return nil, err
		}
		if snap != nil {
			if err := st.Load(snap); err != nil {
				return nil, fmt.Errorf("checkpoint: %w", err)
			}
			log.Noticef("Resuming parameters from checkpoint (iteration %d)", snap.Iteration)
		}
	}

	rng := rand.New(rand.NewSource(uint64(rs.seed)))
	m := v.New(st, rs.sampler.Workers)
	sampler, err := mcmc.New(m, st, g, rng, rs.sampler)
	if err != nil {
		return nil, err
	}
	if cp != nil {
		sampler.SetCheckpointer(cp)
	}
	if rs.metricsAddr != "" {
		sampler.SetMetrics(serveMetrics(rs.metricsAddr))
	}

	if err := sampler.Run(); err != nil {
		return nil, err
	}
	log.Noticef("Final log-likelihood: %v", sampler.LogLikelihood())
	summary.Iterations = rs.sampler.Iterations()
	summary.LogLikelihood = sampler.LogLikelihood()
	summary.Acceptance = acceptance(st)

	trace := sampler.Trace()
	if post, err := trace.Summarize(rs.summaryBurnin()); err != nil {
		log.Warning("Summary:", err)
	} else {
		summary.Posterior = post
		log.Noticef("sPhi=%v (sd %v)", post.SPhi.Mean, post.SPhi.SD)
	}

	if rs.restartOutFn != "" {
		snap := st.Dump()
		snap.Iteration = summary.Iterations
		snap.LogLikelihood = summary.LogLikelihood
		if err := writeRestart(rs.restartOutFn, snap); err != nil {
			return nil, err
		}
	}

	if rs.outDir != "" {
		if err := os.MkdirAll(rs.outDir, 0777); err != nil {
			return nil, err
		}
		if err := traceout.WriteTSV(rs.outDir, trace, g); err != nil {
			return nil, err
		}
		if rs.plot {
			if err := traceout.Plot(rs.outDir, trace); err != nil {
				return nil, err
			}
		}
	}

	if rs.simulate != "" {
		if err := writeSimulation(rs.simulate, v, m, g, rng); err != nil {
			return nil, err
		}
		log.Infof("Simulated genome written to %s.fasta", rs.simulate)
	}

	summary.TotalTime = time.Since(startTime).Seconds()
	return summary, nil
}
