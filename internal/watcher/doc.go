// Package watcher reconciles the catalog with the filesystem: it scans
// and live-watches registered directory roots, indexes ZIP archives,
// feeds new images to the extraction worker and removes vanished ones
// from the store. Persisted roots are restored on startup.
package watcher
