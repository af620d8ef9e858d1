// Package cliutil holds small flag-parsing helpers shared by the
// metabodecon-* commands, adapted from internal/fitcommon's ParseWorkers
// in this codebase's teacher repo (the piano-fit family's -workers flag
// parsing), generalized to this module's -threads flag.
package cliutil

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseThreads parses a -threads flag value: "auto" (or empty) means 0,
// the deconv.Builder/Deconvoluter convention for "use GOMAXPROCS at call
// time"; otherwise it must be a positive integer.
func ParseThreads(raw string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" || v == "auto" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q (use a positive integer or %q)", raw, "auto")
	}
	if n < 1 {
		return 0, fmt.Errorf("%d (must be >= 1 or %q)", n, "auto")
	}
	return n, nil
}
