// Package daemon runs the long-lived Podcaster HTTP front end.
//
// It owns the process lifecycle: a flock-based lock in the data directory
// keeps a second instance from serving the same database, and an echo router
// translates HTTP requests into api.Service calls. Errors are mapped onto
// status codes by their services classification so clients can tell a bad
// topic from a provider outage.
//
// Keep request plumbing here. Pipeline behaviour belongs to the workflow and
// stage packages.
package daemon
