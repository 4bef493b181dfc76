// Package catalog is the persistent image index: a SQLite store holding
// image records, user annotations, AI generation metadata and watched
// roots, with filtered/sorted/paginated queries and folder-tree
// aggregation on top. The store is the single source of truth for what
// is indexed; everything else in the system is reconstructible from it.
package catalog
