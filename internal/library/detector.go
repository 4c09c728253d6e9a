package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/songbook/internal/archive"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/repositories"
	"github.com/desertthunder/songbook/internal/shared"
)

// Decision is the outcome of classifying a candidate file against a song's
// existing version history.
type Decision int

const (
	// DecisionNew means no prior version exists under any candidate label.
	DecisionNew Decision = iota
	// DecisionUnchanged means a prior version carries the exact authorial
	// timestamp; timestamp equality is authoritative proof of "already imported".
	DecisionUnchanged
	// DecisionUnchangedContent means the timestamp drifted but the content is
	// equal, so the drift is filesystem noise (e.g. a re-extracted archive).
	DecisionUnchangedContent
	// DecisionChanged means a prior version exists with different timestamp
	// and different content; a new version is appended to the chain tip.
	DecisionChanged
)

func (d Decision) String() string {
	switch d {
	case DecisionNew:
		return "new"
	case DecisionUnchanged:
		return "unchanged"
	case DecisionUnchangedContent:
		return "unchanged-by-content"
	case DecisionChanged:
		return "changed"
	default:
		return ""
	}
}

// Match is an existing version found for a candidate file.
type Match struct {
	Version        *models.SongVersion
	ExactTimestamp bool
}

// Detector classifies candidate files against the version history.
type Detector struct {
	versions *repositories.VersionRepository
	blobs    BlobStore
}

// NewDetector creates a Detector backed by the given repository and blob store.
func NewDetector(versions *repositories.VersionRepository, blobs BlobStore) *Detector {
	return &Detector{versions: versions, blobs: blobs}
}

// FindExisting looks up any version of the titled song whose label matches a
// candidate label, preferring one with exact timestamp equality. Returns nil
// when no version matches.
func (d *Detector) FindExisting(title string, labels []string, createdAt time.Time) (*Match, error) {
	found, err := d.versions.FindByLabels(title, labels)
	if err != nil {
		if errors.Is(err, shared.ErrSongNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}

	for _, version := range found {
		if sameInstant(version.CreatedAt(), createdAt) {
			return &Match{Version: version, ExactTimestamp: true}, nil
		}
	}
	return &Match{Version: found[0]}, nil
}

// Classify applies the decision table to a candidate file and its match.
func (d *Detector) Classify(ctx context.Context, match *Match, f archive.File) (Decision, error) {
	if match == nil {
		return DecisionNew, nil
	}
	if match.ExactTimestamp {
		return DecisionUnchanged, nil
	}

	equal, err := d.contentEqual(ctx, match.Version, f)
	if err != nil {
		return 0, err
	}
	if equal {
		return DecisionUnchangedContent, nil
	}
	return DecisionChanged, nil
}

// contentEqual is string equality for text files; for binary files the blob
// store's presence check stands in for content comparison.
func (d *Detector) contentEqual(ctx context.Context, existing *models.SongVersion, f archive.File) (bool, error) {
	if !f.Binary {
		return existing.Content() == string(f.Data), nil
	}
	if d.blobs == nil {
		return false, nil
	}
	present, err := d.blobs.Exists(ctx, BlobKey(f.Label, len(f.Data)))
	if err != nil {
		return false, fmt.Errorf("failed to check blob presence: %w", err)
	}
	return present, nil
}

// sameInstant compares timestamps at one-second granularity, the resolution
// the collector stamps files with.
func sameInstant(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}
