// Package traceout writes MCMC traces: tab separated time series per
// category and PNG trace plots.
package traceout

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/op/go-logging"

	"github.com/mrrlab/ribmc/bio"
	"github.com/mrrlab/ribmc/genome"
	"github.com/mrrlab/ribmc/mcmc"
)

var log = logging.MustGetLogger("traceout")

// table writes a tab separated file with a header.
func table(path string, header []string, rows int, row func(i int) []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	w.WriteString(strings.Join(header, "\t"))
	w.WriteByte('\n')
	for i := 0; i < rows; i++ {
		w.WriteString(strings.Join(row(i), "\t"))
		w.WriteByte('\n')
	}
	return w.Flush()
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteTSV writes every trace series into dir. Every file has one row
// per sample, the first column is the iteration.
func WriteTSV(dir string, t *mcmc.Trace, g *genome.Genome) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	n := t.Len()
	iteration := func(s int) string {
		return strconv.Itoa(s * t.Thinning)
	}

	genes := []string{"iteration"}
	for i := 0; i < g.Len(); i++ {
		genes = append(genes, g.Gene(i).ID)
	}
	for cat := range t.SynthesisRate[0] {
		cat := cat
		path := filepath.Join(dir, fmt.Sprintf("synthesisRate_cat%d.tsv", cat))
		err := table(path, genes, n, func(s int) []string {
			row := []string{iteration(s)}
			for _, v := range t.SynthesisRate[s][cat] {
				row = append(row, format(v))
			}
			return row
		})
		if err != nil {
			return err
		}
	}

	err := table(filepath.Join(dir, "mixtureAssignment.tsv"), genes, n, func(s int) []string {
		row := []string{iteration(s)}
		for _, k := range t.MixtureAssignment[s] {
			row = append(row, strconv.Itoa(k))
		}
		return row
	})
	if err != nil {
		return err
	}

	header := []string{"iteration", "logLikelihood", "sPhi"}
	for k := range t.MixtureProbability[0] {
		header = append(header, fmt.Sprintf("p%d", k))
	}
	if t.PartitionFunction != nil {
		for k := range t.PartitionFunction[0] {
			header = append(header, fmt.Sprintf("Z%d", k))
		}
	}
	err = table(filepath.Join(dir, "global.tsv"), header, n, func(s int) []string {
		row := []string{iteration(s), format(t.LogLikelihood[s]), format(t.SPhi[s])}
		for _, p := range t.MixtureProbability[s] {
			row = append(row, format(p))
		}
		if t.PartitionFunction != nil {
			for _, z := range t.PartitionFunction[s] {
				row = append(row, format(z))
			}
		}
		return row
	})
	if err != nil {
		return err
	}

	codons := append([]string{"iteration"}, bio.Codons[:]...)
	for fi, name := range t.Families {
		fi := fi
		for cat := range t.CodonSpecific[fi][0] {
			cat := cat
			path := filepath.Join(dir, fmt.Sprintf("%s_cat%d.tsv", name, cat))
			err := table(path, codons, n, func(s int) []string {
				row := []string{iteration(s)}
				for _, v := range t.CodonSpecific[fi][s][cat] {
					row = append(row, format(v))
				}
				return row
			})
			if err != nil {
				return err
			}
		}
	}
	log.Infof("Trace written to %s", dir)
	return nil
}
