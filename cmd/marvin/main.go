// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command marvin runs a Monte Carlo AIXI agent against a toy environment.
//
// Usage:
//
//	marvin run                          # reference coin-flip run
//	marvin run --cycles 500 --depth 8   # longer run, deeper context tree
//	marvin run --journal --metrics-addr :9464
//	marvin sweep --seed 1 --count 16    # one agent per seed, in parallel
//	marvin history                      # runs recorded in the journal
//	marvin history <run-id>             # cycles of one run
//
// Settings come from --config (YAML or JSON), then MARVIN_* environment
// variables, then command-line flags.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
