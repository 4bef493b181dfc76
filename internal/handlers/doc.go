// Package handlers implements the local HTTP command surface: gallery
// queries, annotation updates, watch-root management, bulk maintenance
// operations and the catalog-changed websocket endpoint.
package handlers
