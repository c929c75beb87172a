// Package main provides the entry point for ctrsim.
// ctrsim is a functional ARM11 core emulator for a handheld console.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ctrsim/ctrsim/emu"
	"github.com/ctrsim/ctrsim/loader"
	"github.com/ctrsim/ctrsim/system"
	"github.com/ctrsim/ctrsim/timing/cache"
)

var (
	cycles     = flag.Uint64("cycles", 1_000_000, "Cycle budget for the run")
	vectorBase = flag.Uint64("vector-base", uint64(emu.DefaultVectorBase),
		"Base address of the exception vector table")
	traceLimit = flag.Int("trace", 0, "Keep the last N fetched instructions (0 disables)")
	l1Stats    = flag.Bool("l1-stats", false, "Model the L1 cache and report hit/miss statistics")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: ctrsim [options] <image.ctri>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := run(flag.Arg(0), log); err != nil {
		log.WithError(err).Error("run failed")
		os.Exit(1)
	}
}

func run(imagePath string, log *logrus.Logger) error {
	prog, err := loader.Load(imagePath)
	if err != nil {
		return errors.Wrap(err, "loading program")
	}

	log.WithFields(logrus.Fields{
		"image": imagePath,
		"entry": fmt.Sprintf("0x%08X", prog.EntryPoint),
		"bytes": len(prog.Payload),
	}).Info("program loaded")

	cpuOpts := []emu.Option{
		emu.WithVectorBase(uint32(*vectorBase)),
	}
	if *traceLimit > 0 {
		cpuOpts = append(cpuOpts, emu.WithTraceLimit(*traceLimit))
	}

	sysOpts := []system.Option{system.WithCPUOptions(cpuOpts...)}
	if *l1Stats {
		sysOpts = append(sysOpts, system.WithL1Cache(cache.DefaultL1DConfig()))
	}

	machine := system.New(sysOpts...)
	machine.LoadProgram(prog)

	report, runErr := machine.RunCycles(*cycles)

	log.WithFields(logrus.Fields{
		"cycles":     report.Cycles,
		"steps":      report.Steps,
		"exceptions": report.Exceptions,
		"halted":     report.Halted,
	}).Info("run finished")

	if l1 := machine.L1(); l1 != nil {
		stats := l1.Stats()
		log.WithFields(logrus.Fields{
			"reads":      stats.Reads,
			"writes":     stats.Writes,
			"hits":       stats.Hits,
			"misses":     stats.Misses,
			"evictions":  stats.Evictions,
			"writebacks": stats.Writebacks,
		}).Info("l1 cache")
	}

	for _, entry := range machine.CPU().Trace() {
		log.WithFields(logrus.Fields{
			"pc":     fmt.Sprintf("0x%08X", entry.PC),
			"opcode": fmt.Sprintf("0x%08X", entry.Opcode),
		}).Debug("fetch")
	}

	if runErr != nil {
		snap := machine.CPU().Snapshot()
		log.WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("0x%08X", snap.R[emu.PCIndex]),
			"cpsr": fmt.Sprintf("0x%08X", snap.CPSR),
		}).Debug("core state at failure")
		return errors.Wrap(runErr, "execution stopped")
	}

	return nil
}
