// Command spice drives the circuit engines from a netlist file:
// parse, build, dispatch on the deck's analysis directive, print.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/gospice/mnaspice/internal/obs"
	"github.com/gospice/mnaspice/pkg/engine/ac"
	"github.com/gospice/mnaspice/pkg/engine/dc"
	"github.com/gospice/mnaspice/pkg/engine/dcsweep"
	"github.com/gospice/mnaspice/pkg/engine/tran"
	"github.com/gospice/mnaspice/pkg/fmtout"
	"github.com/gospice/mnaspice/pkg/netlist"
)

func main() {
	sparse := flag.Bool("sparse", false, "use the sparse LU solver instead of dense")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: spice [-sparse] <netlist_file>")
		os.Exit(1)
	}

	log := obs.NewConsole()

	content, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("reading netlist file")
	}

	deck, err := netlist.Parse(string(content))
	if err != nil {
		log.Fatal().Err(err).Msg("parsing netlist")
	}

	view, err := netlist.Build(deck, deck.Title)
	if err != nil {
		log.Fatal().Err(err).Msg("building circuit")
	}

	nlog := obs.For(log, obs.Netlist)
	if floating, err := view.CheckConnectivity(); err != nil {
		nlog.Warn().Err(err).Msg("connectivity check failed")
	} else if len(floating) > 0 {
		nlog.Warn().Ints("nodes", floating).Msg("floating node detected, simulation will rely on gmin")
	}

	switch deck.Analysis {
	case netlist.AnalysisOP:
		runOP(view, log, *sparse)
	case netlist.AnalysisDC:
		runDCSweep(view, deck, log, *sparse)
	case netlist.AnalysisAC:
		runAC(view, deck, log, *sparse)
	case netlist.AnalysisTRAN:
		runTransient(view, deck, log, *sparse)
	default:
		log.Fatal().Msg("unsupported analysis type")
	}
}

func runOP(view *netlist.View, log zerolog.Logger, sparse bool) {
	engine := dc.New(view, obs.For(log, obs.DC), dc.WithSparse(sparse))
	x, err := engine.Solve(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("dc solve failed")
	}
	fmtout.OperatingPoint(os.Stdout, view, x)
}

func runDCSweep(view *netlist.View, deck *netlist.Deck, log zerolog.Logger, sparse bool) {
	sweep := deck.DCSweep
	engine := dcsweep.New(view, obs.For(log, obs.DC), dc.WithSparse(sparse))
	result, err := engine.Sweep(sweep.Source1, sweep.Start1, sweep.Stop1, sweep.Increment1)
	if err != nil {
		log.Fatal().Err(err).Msg("dc sweep failed")
	}
	fmtout.DCSweep(os.Stdout, view, sweep.Source1, result)
}

func runAC(view *netlist.View, deck *netlist.Deck, log zerolog.Logger, sparse bool) {
	dcEngine := dc.New(view, obs.For(log, obs.DC), dc.WithSparse(sparse))
	xdc, err := dcEngine.Solve(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("dc operating point for ac analysis failed")
	}

	acEngine := ac.New(view, obs.For(log, obs.AC), ac.WithSparse(sparse))
	result, err := acEngine.Sweep(xdc, deck.AC)
	if err != nil {
		log.Fatal().Err(err).Msg("ac sweep failed")
	}
	fmtout.AC(os.Stdout, view, result)
}

func runTransient(view *netlist.View, deck *netlist.Deck, log zerolog.Logger, sparse bool) {
	engine := tran.New(view, obs.For(log, obs.Transient), tran.WithSparse(sparse))
	dtMax := deck.Tran.TMax
	if dtMax <= 0 {
		dtMax = deck.Tran.TStep
	}
	result, err := engine.Run(nil, deck.Tran.TStop, dtMax)
	if err != nil {
		log.Fatal().Err(err).Msg("transient run failed")
	}
	fmtout.Transient(os.Stdout, view, result)
}
