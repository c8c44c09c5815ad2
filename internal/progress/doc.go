// Package progress keeps the shared run counters and periodically logs
// throughput from them. The reporter only reads counters; it never touches
// records or the output channel.
package progress
