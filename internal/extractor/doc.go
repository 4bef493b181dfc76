// Package extractor is the background enrichment worker: a strictly
// serialized FIFO queue that decodes each newly discovered image,
// generates its thumbnail, resolves its capture date and recovers AI
// generation parameters, then writes the results back to the catalog.
package extractor
