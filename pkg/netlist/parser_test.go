package netlist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gospice/mnaspice/pkg/netlist"
)

func TestParseValue_UnitSuffixes(t *testing.T) {
	cases := map[string]float64{
		"1k":    1000,
		"4.7k":  4700,
		"1meg":  1e6,
		"2.2u":  2.2e-6,
		"10n":   10e-9,
		"100p":  100e-12,
		"1.5":   1.5,
		"-3.3m": -3.3e-3,
		"1e-15": 1e-15,
		"5e-3":  5e-3,
	}
	for in, want := range cases {
		got, err := netlist.ParseValue(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, want*1e-9+1e-18, in)
	}
}

func TestParseValue_Invalid(t *testing.T) {
	_, err := netlist.ParseValue("not-a-number")
	assert.Error(t, err)
}

// TestParse_SimpleDivider checks that a resistive-divider deck parses
// into the expected elements and a DC operating-point directive.
func TestParse_SimpleDivider(t *testing.T) {
	deck, err := netlist.Parse(`* divider
V1 1 0 DC 1
R1 1 2 1k
R2 2 0 1k
.op
`)
	require.NoError(t, err)
	assert.Equal(t, "divider", deck.Title)
	assert.Equal(t, netlist.AnalysisOP, deck.Analysis)
	require.Len(t, deck.Elements, 3)
	assert.Equal(t, "V", deck.Elements[0].Type)
	assert.Equal(t, "R", deck.Elements[1].Type)
	assert.Equal(t, 1000.0, deck.Elements[1].Value)
}

func TestParse_ACDirective(t *testing.T) {
	deck, err := netlist.Parse(`* rc
V1 1 0 AC 1
R1 1 2 1k
C1 2 0 1n
.ac DEC 10 1 1meg
`)
	require.NoError(t, err)
	assert.Equal(t, netlist.AnalysisAC, deck.Analysis)
	assert.Equal(t, "DEC", deck.AC.Sweep)
	assert.Equal(t, 10, deck.AC.Points)
	assert.Equal(t, 1.0, deck.AC.FStart)
	assert.Equal(t, 1e6, deck.AC.FStop)
}

func TestParse_ModelDirective(t *testing.T) {
	deck, err := netlist.Parse(`* diode model
V1 1 0 DC 1
D1 1 0 DMOD
.model DMOD D(is=1e-15 n=1.2 cjo=2p)
.op
`)
	require.NoError(t, err)
	m, ok := deck.Models["DMOD"]
	require.True(t, ok)
	assert.Equal(t, "D", m.Type)
	assert.InDelta(t, 1e-15, m.Params["is"], 1e-25)
	assert.InDelta(t, 1.2, m.Params["n"], 1e-12)
	assert.InDelta(t, 2e-12, m.Params["cjo"], 1e-20)
}

func TestParse_UnsupportedDirective(t *testing.T) {
	_, err := netlist.Parse("* title\n.foo bar\n")
	assert.Error(t, err)
}
