// Package preflight provides readiness checks for the filesystem paths a scan
// depends on.
//
// The scan command runs RunAll before any record is written. A failed check
// is setup-fatal: the run aborts without touching the output store, because a
// missing root or an unwritable store would otherwise surface only after
// minutes of classification work.
package preflight
