package models

import (
	"fmt"
	"slices"
	"time"
)

// Song is a titled logical item (song lyrics/score, speech, or activity script)
// owning an append-only chain of versions. Titles are unique among non-archived rows.
type Song struct {
	id        string
	sequence  int
	title     string
	tags      []string
	createdBy string
	createdAt time.Time
	updatedAt time.Time
	archived  bool
}

// NewSong creates a Song with the given sequence, title and creator.
// The ID is assigned by the repository on Create.
func NewSong(sequence int, title, createdBy string) *Song {
	now := time.Now()
	return &Song{
		sequence:  sequence,
		title:     title,
		createdBy: createdBy,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Song) ID() string           { return s.id }
func (s *Song) Sequence() int        { return s.sequence }
func (s *Song) Title() string        { return s.title }
func (s *Song) Tags() []string       { return s.tags }
func (s *Song) CreatedBy() string    { return s.createdBy }
func (s *Song) CreatedAt() time.Time { return s.createdAt }
func (s *Song) UpdatedAt() time.Time { return s.updatedAt }
func (s *Song) Archived() bool       { return s.archived }

func (s *Song) SetID(id string)             { s.id = id }
func (s *Song) SetSequence(sequence int)    { s.sequence = sequence }
func (s *Song) SetTags(tags []string)       { s.tags = tags }
func (s *Song) SetCreatedAt(t time.Time)    { s.createdAt = t }
func (s *Song) SetUpdatedAt(t time.Time)    { s.updatedAt = t }
func (s *Song) SetArchived(archived bool)   { s.archived = archived }
func (s *Song) SetCreatedBy(creator string) { s.createdBy = creator }

// AddTag appends a tag if the song does not already carry it.
// Returns true when the tag set changed.
func (s *Song) AddTag(tag string) bool {
	if slices.Contains(s.tags, tag) {
		return false
	}
	s.tags = append(s.tags, tag)
	return true
}

// Validate checks that the song has a non-empty title.
func (s *Song) Validate() error {
	if s.title == "" {
		return fmt.Errorf("song title is required")
	}
	return nil
}
