package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

// SongRepository implements models.Repository[*models.Song].
//
// Song titles are unique among non-archived rows (enforced by a partial
// unique index on lower(title)); Create surfaces violations as
// shared.ErrDuplicateTitle so callers can recover by re-fetching.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Create inserts a new song into the database with generated ID and sequence
func (r *SongRepository) Create(song *models.Song) error {
	sequence, err := NextSequence(r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	song.SetID(id)
	song.SetSequence(sequence)

	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tags, err := marshalStrings(song.Tags())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO songs (id, sequence, title, tags, created_by, created_at, updated_at, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		song.Title(),
		tags,
		song.CreatedBy(),
		song.CreatedAt(),
		song.UpdatedAt(),
		song.Archived(),
	)
	if err != nil {
		return wrapUnique(fmt.Errorf("failed to insert song: %w", err), song.Title())
	}

	return nil
}

// Get retrieves a song by ID, excluding archived songs
func (r *SongRepository) Get(id string) (*models.Song, error) {
	query := `
		SELECT id, sequence, title, tags, created_by, created_at, updated_at, archived
		FROM songs
		WHERE id = ? AND archived = 0
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByTitle retrieves a non-archived song by case-insensitive title match.
// The title is normalized before comparison, so underscore and space forms match.
func (r *SongRepository) GetByTitle(title string) (*models.Song, error) {
	query := `
		SELECT id, sequence, title, tags, created_by, created_at, updated_at, archived
		FROM songs
		WHERE lower(title) = ? AND archived = 0
	`

	return r.scanOne(r.db.QueryRow(query, shared.TitleKey(title)))
}

// Update modifies an existing song in the database
func (r *SongRepository) Update(song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	song.SetUpdatedAt(now)

	tags, err := marshalStrings(song.Tags())
	if err != nil {
		return err
	}

	query := `
		UPDATE songs
		SET title = ?, tags = ?, updated_at = ?
		WHERE id = ? AND archived = 0
	`

	result, err := r.db.Exec(query, song.Title(), tags, now, song.ID())
	if err != nil {
		return wrapUnique(fmt.Errorf("failed to update song: %w", err), song.Title())
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, song.ID())
	}

	return nil
}

// AddTags merges the given tags into the song's tag list.
// Tags already present are left alone; a no-op merge issues no write.
func (r *SongRepository) AddTags(id string, tags ...string) error {
	song, err := r.Get(id)
	if err != nil {
		return err
	}

	changed := false
	for _, tag := range tags {
		if song.AddTag(tag) {
			changed = true
		}
	}
	if !changed {
		return nil
	}

	return r.Update(song)
}

// Delete soft-archives a song by ID
func (r *SongRepository) Delete(id string) error {
	query := `
		UPDATE songs
		SET archived = 1, updated_at = ?
		WHERE id = ? AND archived = 0
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to archive song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}

	return nil
}

// List retrieves all songs matching the given criteria, excluding archived songs
func (r *SongRepository) List(criteria map[string]any) ([]*models.Song, error) {
	query := `
		SELECT id, sequence, title, tags, created_by, created_at, updated_at, archived
		FROM songs
		WHERE archived = 0
	`

	args := []any{}

	if createdBy, ok := criteria["created_by"].(string); ok && createdBy != "" {
		query += " AND created_by = ?"
		args = append(args, createdBy)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		song, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func (r *SongRepository) scan(row scannable) (*models.Song, error) {
	var (
		id        string
		sequence  int
		title     string
		tags      string
		createdBy string
		createdAt time.Time
		updatedAt time.Time
		archived  bool
	)

	err := row.Scan(&id, &sequence, &title, &tags, &createdBy, &createdAt, &updatedAt, &archived)
	if err == sql.ErrNoRows {
		return nil, shared.ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	tagList, err := unmarshalStrings(tags)
	if err != nil {
		return nil, err
	}

	song := models.NewSong(sequence, title, createdBy)
	song.SetID(id)
	song.SetTags(tagList)
	song.SetCreatedAt(createdAt)
	song.SetUpdatedAt(updatedAt)
	song.SetArchived(archived)

	return song, nil
}

// scanOne scans a single row into a [models.Song]
func (r *SongRepository) scanOne(row *sql.Row) (*models.Song, error) {
	return r.scan(row)
}

// scanRow scans a row from [sql.Rows] into a [models.Song]
func (r *SongRepository) scanRow(rows *sql.Rows) (*models.Song, error) {
	return r.scan(rows)
}
