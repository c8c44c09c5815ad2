// Package classify turns discovered paths into classification records.
//
// Classifier applies the per-file decision sequence (stat, size floor,
// inspection, thresholds) and Pool runs it across a bounded set of workers.
// Every path handed to the pool yields exactly one record, including paths
// whose inspection failed, timed out, or panicked.
package classify
