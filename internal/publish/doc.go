// Package publish mirrors a finished output store to Google Cloud Storage.
//
// Publishing is optional and runs only after the local store is closed. An
// upload failure never modifies the local store; it is retried with
// exponential backoff and then reported to the caller.
package publish
