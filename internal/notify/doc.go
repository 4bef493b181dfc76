// Package notify pushes catalog-changed events to UI clients over
// websockets, so galleries refresh as ingestion progresses. Delivery is
// best-effort and never blocks the ingestion path.
package notify
