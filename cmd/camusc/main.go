// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command camusc compiles a camus rule file into table_add commands and
// an equivalent JSON document for installation on a programmable data
// plane.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grimm.is/camus/internal/ast"
	"grimm.is/camus/internal/ast/fixture"
	"grimm.is/camus/internal/camuserr"
	"grimm.is/camus/internal/compileropts"
	"grimm.is/camus/internal/compilestats"
)

func main() {
	rulesPath := flag.String("rules", "", "Path to a YAML rule fixture (stands in for the surface-grammar parser)")
	optsPath := flag.String("options", "", "Path to an HCL options file (optional)")
	check := flag.Bool("check", false, "Compile twice and fail if the command output is not byte-identical")
	metricsAddr := flag.String("metrics-addr", "", "If set, serve compile-run metrics on this address after compiling (e.g. :9090)")
	flag.Parse()

	if *rulesPath == "" {
		log.Fatal("Usage: camusc -rules <rules.yaml> [-options <options.hcl>] [-check]")
	}

	opts := compileropts.Default()
	if *optsPath != "" {
		loaded, err := compileropts.Load(*optsPath)
		if err != nil {
			fail(err)
		}
		opts = loaded
	}

	rl, err := fixture.Load(*rulesPath)
	if err != nil {
		fail(err)
	}

	catalog := ast.NewFieldCatalog()
	ruleSet, err := ast.Compile(rl, catalog)
	if err != nil {
		fail(err)
	}

	stats := compilestats.NewMetrics()

	out, err := compileOnce(ruleSet, opts, stats)
	if err != nil {
		fail(err)
	}

	if *check {
		second, err := compileOnce(ruleSet, opts, stats)
		if err != nil {
			fail(err)
		}
		if string(out.commands) != string(second.commands) {
			log.Fatal("camusc: -check failed: command output is not idempotent across compile runs")
		}
	}

	if err := os.WriteFile(opts.Output.CommandFile, out.commands, 0o644); err != nil {
		log.Fatalf("camusc: failed to write command file: %v", err)
	}
	if err := os.WriteFile(opts.Output.JSONFile, out.json, 0o644); err != nil {
		log.Fatalf("camusc: failed to write JSON file: %v", err)
	}
	if err := os.WriteFile(opts.Output.MgidFile, out.mgids, 0o644); err != nil {
		log.Fatalf("camusc: failed to write multicast-group file: %v", err)
	}

	if *metricsAddr != "" {
		serveMetrics(*metricsAddr, stats)
	}
}

// serveMetrics blocks serving stats on /metrics. The compiler has
// already finished and written its outputs by the time this runs; it
// exists only so a scraper can pull the just-completed run's counters
// before the process exits. The compiler's own run stays one-shot; this
// is observation after the fact.
func serveMetrics(addr string, stats *compilestats.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(stats)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Printf("camusc: serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("camusc: metrics server failed: %v", err)
	}
}

func fail(err error) {
	kind := camuserr.GetKind(err)
	log.Printf("camusc: %v", err)
	os.Exit(kind.ExitCode())
}
