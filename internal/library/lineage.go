package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/repositories"
	"github.com/desertthunder/songbook/internal/shared"
)

// Lineage appends versions onto song version chains.
//
// A new version is always linked to the song's *current* chain tip, not to
// whichever prior version change detection compared against, so the chain
// records ingestion order.
type Lineage struct {
	songs    *repositories.SongRepository
	versions *repositories.VersionRepository
	renders  *RenderQueue
	logger   *log.Logger
}

// NewLineage creates a Lineage builder. The render queue may be nil when the
// render service is disabled.
func NewLineage(songs *repositories.SongRepository, versions *repositories.VersionRepository, renders *RenderQueue, logger *log.Logger) *Lineage {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Lineage{songs: songs, versions: versions, renders: renders, logger: logger}
}

// EnsureSong returns the non-archived song with the given title, creating it
// when absent. A unique-constraint violation means another run created the
// row first; it is resolved by re-fetching.
func (l *Lineage) EnsureSong(ctx context.Context, title, createdBy string) (*models.Song, error) {
	song, err := l.songs.GetByTitle(title)
	if err == nil {
		return song, nil
	}
	if !errors.Is(err, shared.ErrSongNotFound) {
		return nil, err
	}

	song = models.NewSong(0, shared.NormalizeTitle(title), createdBy)
	if err := l.songs.Create(song); err != nil {
		if errors.Is(err, shared.ErrDuplicateTitle) {
			l.logger.Debug("concurrent song creation, re-fetching", "title", title)
			return l.songs.GetByTitle(title)
		}
		return nil, err
	}
	return song, nil
}

// Append inserts a new version at the song's chain tip and enqueues a
// best-effort render request. The render request never blocks or fails the append.
func (l *Lineage) Append(ctx context.Context, songID, label, content, blobURL, createdBy string, createdAt time.Time) (*models.SongVersion, error) {
	version := models.NewSongVersion(0, songID, label, createdBy, createdAt)
	version.SetContent(content)
	version.SetBlobURL(blobURL)

	tip, err := l.versions.LatestBySongID(songID)
	if err == nil {
		version.SetPreviousVersionID(tip.ID())
	} else if !errors.Is(err, shared.ErrVersionNotFound) {
		return nil, fmt.Errorf("failed to find chain tip: %w", err)
	}

	if err := l.versions.Create(version); err != nil {
		return nil, err
	}

	if content != "" {
		l.renders.Enqueue(version.ID())
	}

	return version, nil
}
