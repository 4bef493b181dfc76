// Package archive reads image entries out of ZIP containers. Archives are
// treated as static: entries are listed once at ingestion time and
// extracted into memory on demand by the extraction worker.
package archive
