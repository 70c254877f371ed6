package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrrlab/ribmc/bio"
	"github.com/mrrlab/ribmc/genome"
	"github.com/mrrlab/ribmc/parameter"
)

// config is the optional YAML configuration. Mixture and category
// numbers are 1-based, codons are case insensitive and may use U.
//
//	mixtures:
//	  - {mutation: 1, selection: 1}
//	  - {mutation: 1, selection: 2}
//	sPhi: 1.5
//	synthesisRate:
//	  YAL001C: 2.3
//	initial:
//	  - {family: mutation, mixture: 1, codon: gca, value: 0.8}
type config struct {
	Mixtures      []parameter.MixtureElement `yaml:"mixtures"`
	SPhi          float64                    `yaml:"sPhi"`
	SynthesisRate map[string]float64         `yaml:"synthesisRate"`
	Initial       []initialValue             `yaml:"initial"`
	Widths        struct {
		Codon float64 `yaml:"codon"`
		SPhi  float64 `yaml:"sPhi"`
		Phi   float64 `yaml:"phi"`

		PartitionFunction float64 `yaml:"partitionFunction"`
	} `yaml:"widths"`
}

// initialValue is an initial codon-specific value.
type initialValue struct {
	Family  string  `yaml:"family"`
	Mixture int     `yaml:"mixture"`
	Codon   string  `yaml:"codon"`
	Value   float64 `yaml:"value"`
}

// readConfig reads a YAML configuration file.
func readConfig(fn string) (*config, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	var c config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return &c, nil
}

// normalizeCodon converts a user codon to the upper-case DNA form.
func normalizeCodon(s string) string {
	return strings.Replace(strings.ToUpper(strings.TrimSpace(s)), "U", "T", -1)
}

// mixture creates the mixture definition from the configuration, nil
// if the configuration has no mixtures.
func (c *config) mixture(numGenes int) (*parameter.Mixture, error) {
	if len(c.Mixtures) == 0 {
		return nil, nil
	}
	elements := make([]parameter.MixtureElement, len(c.Mixtures))
	for i, e := range c.Mixtures {
		if e.Mutation < 1 || e.Selection < 1 {
			return nil, fmt.Errorf("mixture %d: categories are 1-based", i+1)
		}
		elements[i] = parameter.MixtureElement{Mutation: e.Mutation - 1, Selection: e.Selection - 1}
	}
	return parameter.NewMixtureFromElements(elements, numGenes)
}

// updateSettings overrides store settings present in the
// configuration.
func (c *config) updateSettings(s *parameter.Settings) {
	if c.SPhi != 0 {
		s.SPhi = c.SPhi
	}
	if c.Widths.Codon != 0 {
		s.CodonWidth = c.Widths.Codon
	}
	if c.Widths.SPhi != 0 {
		s.SPhiWidth = c.Widths.SPhi
	}
	if c.Widths.Phi != 0 {
		s.PhiWidth = c.Widths.Phi
	}
	if c.Widths.PartitionFunction != 0 {
		s.PartitionFunctionWidth = c.Widths.PartitionFunction
	}
}

// apply sets initial synthesis rates and codon-specific values.
func (c *config) apply(st *parameter.Store, g *genome.Genome) error {
	for id, v := range c.SynthesisRate {
		i, ok := g.Lookup(id)
		if !ok {
			return fmt.Errorf("synthesis rate for unknown gene %s", id)
		}
		if !(v > 0) {
			return fmt.Errorf("%w: synthesis rate of %s=%v", parameter.ErrNonPositive, id, v)
		}
		st.SetSynthesisRate(i, v)
	}

	families := st.Layout().Families
	for _, iv := range c.Initial {
		fi, ok := st.FamilyIndex(iv.Family)
		if !ok {
			return fmt.Errorf("unknown family %s", iv.Family)
		}
		if iv.Mixture < 1 || iv.Mixture > st.Mixture().Len() {
			return fmt.Errorf("%s: mixture %d out of range", iv.Family, iv.Mixture)
		}
		codon, err := bio.ParseCodon(normalizeCodon(iv.Codon))
		if err != nil {
			return fmt.Errorf("%s: %w", iv.Family, err)
		}
		if !(iv.Value > 0) {
			return fmt.Errorf("%w: %s[%s]=%v", parameter.ErrNonPositive, iv.Family, iv.Codon, iv.Value)
		}
		cat := st.Mixture().Category(iv.Mixture-1, families[fi].Dim)
		st.Family(fi).Set(cat, codon, iv.Value)
	}
	return nil
}
