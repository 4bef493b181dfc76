// Package pathkey defines the image reference type shared by the catalog,
// the watcher and the extraction worker. A reference is either a plain
// filesystem path or an (archive, entry) pair; the composite string form
// "<archive>::<entry>" exists only at the storage and wire boundaries.
package pathkey
