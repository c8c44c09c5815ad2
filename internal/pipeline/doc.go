// Package pipeline wires discovery, classification, the sink writer, and
// progress reporting into a single scan run.
//
// A run moves through INIT, RUNNING, DRAINING and DONE exactly once. Setup
// failures abort during INIT before any record is appended. An interrupt
// stops discovery, lets in-flight classifications finish, and still flushes
// every produced record before Run returns.
package pipeline
