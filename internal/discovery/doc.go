// Package discovery streams candidate documents out of a directory tree.
//
// Paths are produced lazily as the consumer pulls them, one directory listing
// at a time, so memory stays bounded by the dedup set rather than the tree.
// Unreadable subtrees are logged and skipped; only the root itself is fatal
// and that is checked before a scan starts.
package discovery
