// Package restart reads and writes restart files. A restart file is a
// sequence of labeled sections (">name:"); within a section "***"
// starts a new category and values are written 10 per row.
package restart

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/op/go-logging"

	"github.com/mrrlab/ribmc/parameter"
)

var log = logging.MustGetLogger("restart")

// perRow is the number of values per row.
const perRow = 10

// Section names.
const (
	secIteration     = "iteration"
	secLogLikelihood = "logLikelihood"
	secSPhi          = "sPhi"
	secSPhiWidth     = "std_sPhi"
	secElements      = "mixtureElements"
	secProbabilities = "categoryProbabilities"
	secAssignment    = "mixtureAssignment"
	secPhi           = "currentSynthesisRate"
	secPhiWidth      = "std_phi"
	secGroups        = "cspGroups"
	secCodonWidth    = "std_csp"
	secZ             = "partitionFunction"
	secZWidth        = "std_partitionFunction"
	familyPrefix     = "current_"
)

type writer struct {
	bw *bufio.Writer
}

func (w writer) section(name string) {
	fmt.Fprintf(w.bw, ">%s:\n", name)
}

func (w writer) values(vals []string) {
	for i, v := range vals {
		w.bw.WriteString(v)
		if (i+1)%perRow == 0 || i == len(vals)-1 {
			w.bw.WriteByte('\n')
		} else {
			w.bw.WriteByte(' ')
		}
	}
}

func (w writer) floats(vals []float64) {
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	w.values(s)
}

func (w writer) ints(vals []int) {
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = strconv.Itoa(v)
	}
	w.values(s)
}

func (w writer) matrix(name string, m [][]float64) {
	w.section(name)
	for _, row := range m {
		w.bw.WriteString("***\n")
		w.floats(row)
	}
}

// Write writes a snapshot as a restart file.
func Write(wr io.Writer, snap *parameter.Snapshot) error {
	w := writer{bufio.NewWriter(wr)}

	w.section(secIteration)
	w.ints([]int{snap.Iteration})
	w.section(secLogLikelihood)
	w.floats([]float64{snap.LogLikelihood})
	w.section(secSPhi)
	w.floats([]float64{snap.SPhi})
	w.section(secSPhiWidth)
	w.floats([]float64{snap.SPhiWidth})

	w.section(secElements)
	for _, e := range snap.MixtureElements {
		w.ints([]int{e.Mutation, e.Selection})
	}
	w.section(secProbabilities)
	w.floats(snap.MixtureProbabilities)
	w.section(secAssignment)
	w.ints(snap.MixtureAssignment)

	if len(snap.PartitionFunction) > 0 {
		w.section(secZ)
		w.floats(snap.PartitionFunction)
		w.section(secZWidth)
		w.floats([]float64{snap.PartitionFunctionWidth})
	}

	w.matrix(secPhi, snap.SynthesisRates)
	w.matrix(secPhiWidth, snap.SynthesisWidths)

	families := make([]string, 0, len(snap.Families))
	for name := range snap.Families {
		families = append(families, name)
	}
	sort.Strings(families)
	for _, name := range families {
		w.matrix(familyPrefix+name, snap.Families[name])
	}

	groups := make([]string, 0, len(snap.CodonWidths))
	for key := range snap.CodonWidths {
		groups = append(groups, key)
	}
	sort.Strings(groups)
	widths := make([]float64, len(groups))
	for i, key := range groups {
		widths[i] = snap.CodonWidths[key]
	}
	w.section(secGroups)
	w.values(groups)
	w.section(secCodonWidth)
	w.floats(widths)

	return w.bw.Flush()
}

// sections maps a section name to its categories of tokens.
type sections map[string][][]string

func parse(rd io.Reader) (sections, error) {
	secs := make(sections)
	var name string
	scanner := bufio.NewScanner(rd)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line[0] == '>':
			if !strings.HasSuffix(line, ":") {
				return nil, fmt.Errorf("line %d: bad section header %q", lineNo, line)
			}
			name = line[1 : len(line)-1]
			if _, ok := secs[name]; ok {
				return nil, fmt.Errorf("line %d: duplicate section %s", lineNo, name)
			}
			secs[name] = nil
		case name == "":
			return nil, fmt.Errorf("line %d: values before the first section", lineNo)
		case line == "***":
			secs[name] = append(secs[name], nil)
		default:
			if secs[name] == nil {
				secs[name] = [][]string{nil}
			}
			last := len(secs[name]) - 1
			secs[name][last] = append(secs[name][last], strings.Fields(line)...)
		}
	}
	return secs, scanner.Err()
}

func (s sections) tokens(name string) ([]string, error) {
	cats, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("section %s is missing", name)
	}
	if len(cats) > 1 {
		return nil, fmt.Errorf("section %s has categories", name)
	}
	if len(cats) == 0 {
		return nil, nil
	}
	return cats[0], nil
}

func parseFloats(name string, tokens []string) ([]float64, error) {
	vals := make([]float64, len(tokens))
	for i, t := range tokens {
		v, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", name, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func parseInts(name string, tokens []string) ([]int, error) {
	vals := make([]int, len(tokens))
	for i, t := range tokens {
		v, err := strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", name, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func (s sections) floats(name string) ([]float64, error) {
	t, err := s.tokens(name)
	if err != nil {
		return nil, err
	}
	return parseFloats(name, t)
}

func (s sections) ints(name string) ([]int, error) {
	t, err := s.tokens(name)
	if err != nil {
		return nil, err
	}
	return parseInts(name, t)
}

func (s sections) scalar(name string) (float64, error) {
	v, err := s.floats(name)
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("section %s should have one value", name)
	}
	return v[0], nil
}

func (s sections) matrix(name string) ([][]float64, error) {
	cats, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("section %s is missing", name)
	}
	m := make([][]float64, len(cats))
	for i, t := range cats {
		row, err := parseFloats(name, t)
		if err != nil {
			return nil, err
		}
		m[i] = row
	}
	return m, nil
}

// Read reads a restart file. The snapshot is validated only when it
// is loaded into a parameter store.
func Read(rd io.Reader) (*parameter.Snapshot, error) {
	secs, err := parse(rd)
	if err != nil {
		return nil, err
	}
	snap := &parameter.Snapshot{
		Families:    make(map[string][][]float64),
		CodonWidths: make(map[string]float64),
	}

	it, err := secs.ints(secIteration)
	if err != nil {
		return nil, err
	}
	if len(it) != 1 {
		return nil, errors.New("section iteration should have one value")
	}
	snap.Iteration = it[0]
	if snap.LogLikelihood, err = secs.scalar(secLogLikelihood); err != nil {
		return nil, err
	}
	if snap.SPhi, err = secs.scalar(secSPhi); err != nil {
		return nil, err
	}
	if snap.SPhiWidth, err = secs.scalar(secSPhiWidth); err != nil {
		return nil, err
	}

	elements, err := secs.ints(secElements)
	if err != nil {
		return nil, err
	}
	if len(elements)%2 != 0 {
		return nil, errors.New("mixture elements should have two categories each")
	}
	for i := 0; i < len(elements); i += 2 {
		snap.MixtureElements = append(snap.MixtureElements,
			parameter.MixtureElement{Mutation: elements[i], Selection: elements[i+1]})
	}
	if snap.MixtureProbabilities, err = secs.floats(secProbabilities); err != nil {
		return nil, err
	}
	if snap.MixtureAssignment, err = secs.ints(secAssignment); err != nil {
		return nil, err
	}
	if snap.SynthesisRates, err = secs.matrix(secPhi); err != nil {
		return nil, err
	}
	if snap.SynthesisWidths, err = secs.matrix(secPhiWidth); err != nil {
		return nil, err
	}

	if _, ok := secs[secZ]; ok {
		if snap.PartitionFunction, err = secs.floats(secZ); err != nil {
			return nil, err
		}
		if snap.PartitionFunctionWidth, err = secs.scalar(secZWidth); err != nil {
			return nil, err
		}
	}

	groups, err := secs.tokens(secGroups)
	if err != nil {
		return nil, err
	}
	widths, err := secs.floats(secCodonWidth)
	if err != nil {
		return nil, err
	}
	if len(groups) != len(widths) {
		return nil, fmt.Errorf("%d codon groups, %d widths", len(groups), len(widths))
	}
	for i, key := range groups {
		snap.CodonWidths[key] = widths[i]
	}

	for name := range secs {
		if !strings.HasPrefix(name, familyPrefix) {
			continue
		}
		m, err := secs.matrix(name)
		if err != nil {
			return nil, err
		}
		snap.Families[strings.TrimPrefix(name, familyPrefix)] = m
	}
	log.Infof("Read restart file: iteration %d, %d families", snap.Iteration, len(snap.Families))
	return snap, nil
}
