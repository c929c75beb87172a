// Package main provides the entry point for ctrsim.
// ctrsim is a functional ARM11 core emulator for a handheld console.
//
// For the full CLI, use: go run ./cmd/ctrsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("ctrsim - ARM11 core emulator")
	fmt.Println("")
	fmt.Println("Usage: ctrsim [options] <image.ctri>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -cycles       Cycle budget for the run")
	fmt.Println("  -vector-base  Base address of the exception vector table")
	fmt.Println("  -trace        Keep the last N fetched instructions")
	fmt.Println("  -l1-stats     Model the L1 cache and report hit/miss statistics")
	fmt.Println("  -v            Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/ctrsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/ctrsim' instead.")
	}
}
