package metrics

// InitializeMetrics pre-populates expected label combinations so every
// metric is exported from the first Prometheus scrape.
// Call this once at startup.
func InitializeMetrics() {
	for _, op := range []string{
		"initialize_schema", "upsert_image", "delete_image", "update_enrichment",
		"upsert_annotation", "upsert_ai_metadata", "query_images", "search_images",
		"folder_tree", "photo_metadata", "clear_all", "clear_favorites", "clear_nsfw",
		"add_root", "remove_root", "list_roots",
	} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, status := range []string{"enriched", "failed"} {
		ExtractionsTotal.WithLabelValues(status)
	}
}
