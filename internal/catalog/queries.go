package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"photo-catalog/internal/aiparams"
	"photo-catalog/internal/logging"
)

type SortField string
type SortOrder string

const (
	SortByFilename  SortField = "filename"
	SortByDateTaken SortField = "date_taken"
	SortByDateAdded SortField = "date_added"
	SortByFileSize  SortField = "file_size"
	SortByRating    SortField = "rating"
	SortAsc         SortOrder = "asc"
	SortDesc        SortOrder = "desc"
)

const (
	// defaultQueryLimit bounds a gallery page when the caller does not say.
	defaultQueryLimit = 200

	// UnlimitedRows disables the row limit (count-style queries).
	UnlimitedRows = -1

	// searchRowCap is the hard ceiling on search results.
	searchRowCap = 500
)

// sortColumns is the allow-list of sortable columns. Caller-supplied sort
// fields are resolved through it, never interpolated directly.
var sortColumns = map[SortField]string{
	SortByFilename:  "i.filename COLLATE NOCASE",
	SortByDateTaken: "i.date_taken",
	SortByDateAdded: "i.date_added",
	SortByFileSize:  "i.file_size",
	SortByRating:    "u.rating",
}

// QueryOptions is the shared filter predicate for gallery and search
// queries. Zero values mean "no constraint".
type QueryOptions struct {
	FavoriteOnly bool
	NsfwOnly     bool
	ExcludeNsfw  bool

	// Folders restricts results to images under any of the given
	// directory prefixes, or entries of any of the given ZIP paths.
	Folders []string

	// DateFrom/DateTo bound the capture timestamp, inclusive.
	DateFrom *time.Time
	DateTo   *time.Time

	SortField SortField
	SortOrder SortOrder

	// Limit defaults to 200; UnlimitedRows disables it.
	Limit  int
	Offset int
}

const imageViewSelect = `
	SELECT i.id, i.path, i.filename, i.date_taken, i.date_added, i.file_size,
	       i.width, i.height, i.thumbnail_path, i.is_archive, i.archive_path,
	       COALESCE(u.is_favorite, 0), COALESCE(u.is_nsfw, 0),
	       COALESCE(u.custom_tags, ''), u.rating
	FROM images i
	LEFT JOIN user_metadata u ON u.image_id = i.id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanImageView(row rowScanner) (*ImageView, error) {
	var v ImageView
	var dateTaken, width, height, rating sql.NullInt64
	var dateAdded int64
	var thumbnailPath, archivePath sql.NullString
	var isArchive, isFavorite, isNsfw int

	err := row.Scan(
		&v.ID, &v.Path, &v.Filename, &dateTaken, &dateAdded, &v.FileSize,
		&width, &height, &thumbnailPath, &isArchive, &archivePath,
		&isFavorite, &isNsfw, &v.CustomTags, &rating,
	)
	if err != nil {
		return nil, err
	}

	if dateTaken.Valid {
		t := time.Unix(dateTaken.Int64, 0)
		v.DateTaken = &t
	}
	v.DateAdded = time.Unix(dateAdded, 0)
	if width.Valid {
		w := int(width.Int64)
		v.Width = &w
	}
	if height.Valid {
		h := int(height.Int64)
		v.Height = &h
	}
	if thumbnailPath.Valid {
		v.ThumbnailPath = thumbnailPath.String
	}
	if archivePath.Valid {
		v.ArchivePath = archivePath.String
	}
	v.IsArchive = isArchive != 0
	v.IsFavorite = isFavorite != 0
	v.IsNsfw = isNsfw != 0
	if rating.Valid {
		r := int(rating.Int64)
		v.Rating = &r
	}

	return &v, nil
}

// buildFilter renders opts into WHERE conjuncts and their arguments.
func buildFilter(opts QueryOptions) ([]string, []interface{}) {
	var where []string
	var args []interface{}

	if opts.FavoriteOnly {
		where = append(where, "COALESCE(u.is_favorite, 0) = 1")
	}

	// nsfw-only and nsfw-exclude are mutually exclusive; only wins.
	switch {
	case opts.NsfwOnly:
		where = append(where, "COALESCE(u.is_nsfw, 0) = 1")
	case opts.ExcludeNsfw:
		where = append(where, "COALESCE(u.is_nsfw, 0) = 0")
	}

	if len(opts.Folders) > 0 {
		var terms []string
		for _, folder := range opts.Folders {
			terms = append(terms, `(i.path LIKE ? ESCAPE '\' OR i.archive_path = ?)`)
			args = append(args, escapeLike(folder)+"%", folder)
		}
		where = append(where, "("+strings.Join(terms, " OR ")+")")
	}

	if opts.DateFrom != nil {
		where = append(where, "i.date_taken >= ?")
		args = append(args, opts.DateFrom.Unix())
	}
	if opts.DateTo != nil {
		where = append(where, "i.date_taken <= ?")
		args = append(args, opts.DateTo.Unix())
	}

	return where, args
}

// orderClause resolves the requested sort through the allow-list,
// defaulting to capture date descending.
func orderClause(field SortField, order SortOrder) string {
	column, ok := sortColumns[field]
	if !ok {
		if field != "" {
			logging.Debug("ignoring unknown sort field %q", field)
		}
		column = sortColumns[SortByDateTaken]
	}

	dir := "DESC"
	if order == SortAsc {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", column, dir)
}

// QueryImages is the core gallery read: images joined with annotations,
// filtered, sorted and paginated. Images with no annotation row read as
// favorite=false, nsfw=false.
func (s *Store) QueryImages(ctx context.Context, opts QueryOptions) ([]ImageView, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("query_images", start, err) }()

	query := imageViewSelect
	where, args := buildFilter(opts)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += orderClause(opts.SortField, opts.SortOrder)

	limit := opts.Limit
	if limit == 0 {
		limit = defaultQueryLimit
	}
	if limit == UnlimitedRows {
		limit = -1 // SQLite: LIMIT -1 means no limit
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, opts.Offset)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows *sql.Rows
	rows, err = s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("image query failed: %w", err)
	}
	defer rows.Close()

	var views []ImageView
	for rows.Next() {
		view, scanErr := scanImageView(rows)
		if scanErr != nil {
			err = fmt.Errorf("image scan failed: %w", scanErr)
			return nil, err
		}
		views = append(views, *view)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("image rows error: %w", err)
	}

	return views, nil
}

// SearchImages matches text as a substring across filename, custom tags,
// AI prompt and AI model, combined with the same filter predicate as
// QueryImages. Results are capped at 500 rows, capture date descending.
func (s *Store) SearchImages(ctx context.Context, text string, opts QueryOptions) ([]ImageView, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("search_images", start, err) }()

	query := `
	SELECT i.id, i.path, i.filename, i.date_taken, i.date_added, i.file_size,
	       i.width, i.height, i.thumbnail_path, i.is_archive, i.archive_path,
	       COALESCE(u.is_favorite, 0), COALESCE(u.is_nsfw, 0),
	       COALESCE(u.custom_tags, ''), u.rating
	FROM images i
	LEFT JOIN user_metadata u ON u.image_id = i.id
	LEFT JOIN ai_metadata a ON a.image_id = i.id`

	needle := "%" + escapeLike(text) + "%"
	where := []string{`(i.filename LIKE ? ESCAPE '\'
		OR COALESCE(u.custom_tags, '') LIKE ? ESCAPE '\'
		OR COALESCE(a.prompt, '') LIKE ? ESCAPE '\'
		OR COALESCE(a.model, '') LIKE ? ESCAPE '\')`}
	args := []interface{}{needle, needle, needle, needle}

	filterWhere, filterArgs := buildFilter(opts)
	where = append(where, filterWhere...)
	args = append(args, filterArgs...)

	query += " WHERE " + strings.Join(where, " AND ")
	query += " ORDER BY i.date_taken DESC LIMIT ?"
	args = append(args, searchRowCap)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows *sql.Rows
	rows, err = s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var views []ImageView
	for rows.Next() {
		view, scanErr := scanImageView(rows)
		if scanErr != nil {
			err = fmt.Errorf("search scan failed: %w", scanErr)
			return nil, err
		}
		views = append(views, *view)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("search rows error: %w", err)
	}

	return views, nil
}

// GetPhotoMetadata returns the full joined record for one image: image
// fields, annotation (defaulted when absent) and AI metadata (nil when
// absent). Returns ErrNotFound for an unknown id.
func (s *Store) GetPhotoMetadata(ctx context.Context, id int64) (*PhotoMetadata, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("photo_metadata", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	SELECT i.id, i.path, i.filename, i.date_taken, i.date_added, i.file_size,
	       i.width, i.height, i.thumbnail_path, i.is_archive, i.archive_path,
	       COALESCE(u.is_favorite, 0), COALESCE(u.is_nsfw, 0),
	       COALESCE(u.custom_tags, ''), u.rating, COALESCE(u.notes, ''),
	       a.prompt, a.negative_prompt, a.model, a.model_hash, a.sampler,
	       a.scheduler, a.steps, a.cfg_scale, a.seed, a.size, a.raw_tags
	FROM images i
	LEFT JOIN user_metadata u ON u.image_id = i.id
	LEFT JOIN ai_metadata a ON a.image_id = i.id
	WHERE i.id = ?`

	var meta PhotoMetadata
	var dateTaken, width, height, rating, steps, seed sql.NullInt64
	var dateAdded int64
	var thumbnailPath, archivePath sql.NullString
	var isArchive, isFavorite, isNsfw int
	var prompt, negativePrompt, model, modelHash, sampler, scheduler, size, rawTags sql.NullString
	var cfgScale sql.NullFloat64

	err = s.db.QueryRowContext(ctx, query, id).Scan(
		&meta.ID, &meta.Path, &meta.Filename, &dateTaken, &dateAdded, &meta.FileSize,
		&width, &height, &thumbnailPath, &isArchive, &archivePath,
		&isFavorite, &isNsfw, &meta.CustomTags, &rating, &meta.Notes,
		&prompt, &negativePrompt, &model, &modelHash, &sampler,
		&scheduler, &steps, &cfgScale, &seed, &size, &rawTags,
	)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("metadata query failed: %w", err)
	}

	if dateTaken.Valid {
		t := time.Unix(dateTaken.Int64, 0)
		meta.DateTaken = &t
	}
	meta.DateAdded = time.Unix(dateAdded, 0)
	if width.Valid {
		w := int(width.Int64)
		meta.Width = &w
	}
	if height.Valid {
		h := int(height.Int64)
		meta.Height = &h
	}
	if thumbnailPath.Valid {
		meta.ThumbnailPath = thumbnailPath.String
	}
	if archivePath.Valid {
		meta.ArchivePath = archivePath.String
	}
	meta.IsArchive = isArchive != 0
	meta.IsFavorite = isFavorite != 0
	meta.IsNsfw = isNsfw != 0
	if rating.Valid {
		r := int(rating.Int64)
		meta.Rating = &r
	}

	// The AI record exists only when extraction recovered something.
	hasAI := prompt.Valid || negativePrompt.Valid || model.Valid || modelHash.Valid ||
		sampler.Valid || scheduler.Valid || steps.Valid || cfgScale.Valid ||
		seed.Valid || size.Valid
	if hasAI {
		ai := &aiparams.Params{
			Prompt:         prompt.String,
			NegativePrompt: negativePrompt.String,
			Model:          model.String,
			ModelHash:      modelHash.String,
			Sampler:        sampler.String,
			Scheduler:      scheduler.String,
			Size:           size.String,
		}
		if steps.Valid {
			n := steps.Int64
			ai.Steps = &n
		}
		if cfgScale.Valid {
			f := cfgScale.Float64
			ai.CfgScale = &f
		}
		if seed.Valid {
			n := seed.Int64
			ai.Seed = &n
		}
		meta.AI = ai
	}

	if rawTags.Valid && rawTags.String != "" {
		if jsonErr := json.Unmarshal([]byte(rawTags.String), &meta.RawTags); jsonErr != nil {
			logging.Warn("unreadable raw tags for image %d: %v", id, jsonErr)
		}
	}

	return &meta, nil
}
