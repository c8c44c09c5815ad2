package preflight

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPreflight wraps every failed check returned by FirstFailure.
var ErrPreflight = errors.New("preflight failed")

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the scan root and the output store location.
func RunAll(root, output string) []Result {
	return []Result{
		CheckScanRoot(root),
		CheckOutputLocation(output),
	}
}

// FirstFailure converts the first failed result into an error.
func FirstFailure(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPreflight, strings.Join(failed, "; "))
}
