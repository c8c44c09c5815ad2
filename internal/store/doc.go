// Package store persists classification records and reads them back.
//
// Two appendable formats are supported: a CSV file with a one-time header and
// a SQLite database keyed by file path. Sink is the single goroutine allowed
// to write; it batches records from the output channel and makes each batch
// durable before taking the next. ResumeIndex reads an existing store so a
// rerun skips paths that already have a record, and Lock keeps two runs from
// appending to the same store at once.
package store
