package genome

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mrrlab/ribmc/bio"
)

// ReadCounts reads ribosome footprint counts into the genome. Every
// non-empty line not starting with '#' has three tab or space
// separated fields: gene id, position and count. The position is
// either a 0-based index in the sense-codon sequence or a codon
// (e.g. GCA), in which case the count is the codon total for the
// gene. A gene can't mix both forms. If the file has only positional
// counts, genes it doesn't mention get zero counts at every position.
func ReadCounts(rd io.Reader, g *Genome) error {
	positional := make(map[int][]int)
	perCodon := make(map[int]map[int]int)

	scanner := bufio.NewScanner(rd)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return fmt.Errorf("line %d: expected 3 fields, got %d", lineNo, len(fields))
		}
		gi, ok := g.Lookup(fields[0])
		if !ok {
			return fmt.Errorf("line %d: unknown gene %s", lineNo, fields[0])
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil || n < 0 {
			return fmt.Errorf("line %d: bad count %q", lineNo, fields[2])
		}
		gene := g.genes[gi]

		if pos, err := strconv.Atoi(fields[1]); err == nil {
			if _, ok := perCodon[gi]; ok {
				return fmt.Errorf("line %d: gene %s mixes positional and codon counts", lineNo, gene.ID)
			}
			if pos < 0 || pos >= gene.Len() {
				return fmt.Errorf("line %d: position %d out of range for gene %s", lineNo, pos, gene.ID)
			}
			if positional[gi] == nil {
				positional[gi] = make([]int, gene.Len())
			}
			positional[gi][pos] += n
			continue
		}

		c, err := bio.ParseCodon(fields[1])
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if _, ok := positional[gi]; ok {
			return fmt.Errorf("line %d: gene %s mixes positional and codon counts", lineNo, gene.ID)
		}
		if perCodon[gi] == nil {
			perCodon[gi] = make(map[int]int)
		}
		perCodon[gi][c] += n
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	listed := len(positional) + len(perCodon)
	if len(positional) > 0 && len(perCodon) == 0 {
		for gi, gene := range g.genes {
			if _, ok := positional[gi]; !ok {
				positional[gi] = make([]int, gene.Len())
			}
		}
	}
	for gi, counts := range positional {
		if err := g.genes[gi].SetObserved(counts); err != nil {
			return err
		}
	}
	for gi, counts := range perCodon {
		for c, n := range counts {
			g.genes[gi].SetObservedForCodon(c, n)
		}
	}
	log.Infof("Read footprint counts for %d genes", listed)
	return nil
}

// WriteCounts writes footprint counts in the format understood by
// ReadCounts. Zero counts are omitted.
func WriteCounts(w io.Writer, g *Genome) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# gene\tposition\tcount")
	for _, gene := range g.genes {
		if gene.HasPositionalCounts() {
			for pos, n := range gene.observed {
				if n > 0 {
					fmt.Fprintf(bw, "%s\t%d\t%d\n", gene.ID, pos, n)
				}
			}
			continue
		}
		for c, n := range gene.observedCodon {
			if n > 0 {
				fmt.Fprintf(bw, "%s\t%s\t%d\n", gene.ID, bio.Codons[c], n)
			}
		}
	}
	return bw.Flush()
}
