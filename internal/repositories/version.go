package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

// VersionRepository persists the append-only version lineage.
//
// Rows are only ever inserted; the chain tip for a song is the most recently
// ingested row. No Update or Delete exists here on purpose.
type VersionRepository struct {
	db *sql.DB
}

// NewVersionRepository creates a new VersionRepository with the given database connection
func NewVersionRepository(db *sql.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

const versionColumns = `id, sequence, song_id, label, content, blob_url, previous_version_id, created_by, created_at, db_created_at, rendered_content`

// Create inserts a new version with generated ID, sequence, and ingestion timestamp
func (r *VersionRepository) Create(version *models.SongVersion) error {
	sequence, err := NextSequence(r.db, "song_versions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	version.SetID(id)
	version.SetSequence(sequence)
	version.SetDBCreatedAt(time.Now())

	if err := version.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var previous sql.NullString
	if version.PreviousVersionID() != "" {
		previous = sql.NullString{String: version.PreviousVersionID(), Valid: true}
	}

	query := `
		INSERT INTO song_versions (` + versionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		version.SongID(),
		version.Label(),
		version.Content(),
		version.BlobURL(),
		previous,
		version.CreatedBy(),
		version.CreatedAt(),
		version.DBCreatedAt(),
		version.RenderedContent(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert version: %w", err)
	}

	return nil
}

// Get retrieves a version by ID
func (r *VersionRepository) Get(id string) (*models.SongVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM song_versions WHERE id = ?`
	return r.scan(r.db.QueryRow(query, id))
}

// LatestBySongID returns the chain tip for a song: the most recently ingested version.
func (r *VersionRepository) LatestBySongID(songID string) (*models.SongVersion, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM song_versions
		WHERE song_id = ?
		ORDER BY sequence DESC
		LIMIT 1
	`
	return r.scan(r.db.QueryRow(query, songID))
}

// LatestByTitle returns the chain tip for the non-archived song with the given title.
func (r *VersionRepository) LatestByTitle(title string) (*models.SongVersion, error) {
	query := `
		SELECT v.id, v.sequence, v.song_id, v.label, v.content, v.blob_url, v.previous_version_id,
		       v.created_by, v.created_at, v.db_created_at, v.rendered_content
		FROM song_versions v
		JOIN songs s ON s.id = v.song_id
		WHERE lower(s.title) = ? AND s.archived = 0
		ORDER BY v.sequence DESC
		LIMIT 1
	`
	return r.scan(r.db.QueryRow(query, shared.TitleKey(title)))
}

// FindByLabels returns all versions of the titled song whose label equals any
// of the candidate labels, newest first. Change detection probes a file under
// both its normalized and raw label.
func (r *VersionRepository) FindByLabels(title string, labels []string) ([]*models.SongVersion, error) {
	if len(labels) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(labels)-1) + "?"
	query := `
		SELECT v.id, v.sequence, v.song_id, v.label, v.content, v.blob_url, v.previous_version_id,
		       v.created_by, v.created_at, v.db_created_at, v.rendered_content
		FROM song_versions v
		JOIN songs s ON s.id = v.song_id
		WHERE lower(s.title) = ? AND s.archived = 0 AND v.label IN (` + placeholders + `)
		ORDER BY v.sequence DESC
	`

	args := []any{shared.TitleKey(title)}
	for _, label := range labels {
		args = append(args, label)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// ListBySongID returns every version of a song, oldest first.
func (r *VersionRepository) ListBySongID(songID string) ([]*models.SongVersion, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM song_versions
		WHERE song_id = ?
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query, songID)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// SetRenderedContent stores the output of a completed render request.
// This is the one mutable column on a version row; lineage fields never change.
func (r *VersionRepository) SetRenderedContent(id, rendered string) error {
	result, err := r.db.Exec(`UPDATE song_versions SET rendered_content = ? WHERE id = ?`, rendered, id)
	if err != nil {
		return fmt.Errorf("failed to store rendered content: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrVersionNotFound, id)
	}

	return nil
}

func (r *VersionRepository) collect(rows *sql.Rows) ([]*models.SongVersion, error) {
	var versions []*models.SongVersion
	for rows.Next() {
		version, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return versions, nil
}

func (r *VersionRepository) scan(row scannable) (*models.SongVersion, error) {
	var (
		id          string
		sequence    int
		songID      string
		label       string
		content     string
		blobURL     string
		previous    sql.NullString
		createdBy   string
		createdAt   time.Time
		dbCreatedAt time.Time
		rendered    string
	)

	err := row.Scan(&id, &sequence, &songID, &label, &content, &blobURL, &previous, &createdBy, &createdAt, &dbCreatedAt, &rendered)
	if err == sql.ErrNoRows {
		return nil, shared.ErrVersionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan version: %w", err)
	}

	version := models.NewSongVersion(sequence, songID, label, createdBy, createdAt)
	version.SetID(id)
	version.SetContent(content)
	version.SetBlobURL(blobURL)
	if previous.Valid {
		version.SetPreviousVersionID(previous.String)
	}
	version.SetDBCreatedAt(dbCreatedAt)
	version.SetRenderedContent(rendered)

	return version, nil
}
