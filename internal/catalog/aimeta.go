package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"photo-catalog/internal/aiparams"
)

// UpsertAIMetadata replaces the AI-generation record for an image
// wholesale, together with the filtered raw-tag snapshot. The write is
// conditional on the image still existing, so it no-ops against a row
// deleted while extraction was in flight.
func (s *Store) UpsertAIMetadata(ctx context.Context, imageID int64, params aiparams.Params, rawTags map[string]string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_ai_metadata", start, err) }()

	var snapshot interface{}
	if len(rawTags) > 0 {
		encoded, jsonErr := json.Marshal(rawTags)
		if jsonErr != nil {
			err = fmt.Errorf("failed to encode raw tags: %w", jsonErr)
			return err
		}
		snapshot = string(encoded)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO ai_metadata
			(image_id, prompt, negative_prompt, model, model_hash, sampler,
			 scheduler, steps, cfg_scale, seed, size, raw_tags)
		SELECT id, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		FROM images WHERE id = ?
	`,
		nullIfEmpty(params.Prompt), nullIfEmpty(params.NegativePrompt),
		nullIfEmpty(params.Model), nullIfEmpty(params.ModelHash),
		nullIfEmpty(params.Sampler), nullIfEmpty(params.Scheduler),
		nullableInt(params.Steps), nullableFloat(params.CfgScale),
		nullableInt(params.Seed), nullIfEmpty(params.Size),
		snapshot, imageID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert AI metadata for image %d: %w", imageID, err)
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n *int64) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
