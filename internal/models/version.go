package models

import (
	"fmt"
	"time"
)

// SongVersion is one immutable snapshot of a song's content.
//
// Versions of one song form a singly linked list via PreviousVersionID; the
// chain tip is the latest version. CreatedAt carries the authorial timestamp
// taken from the source file, DBCreatedAt the ingestion time. Text content
// lives in Content; binary artifacts are uploaded to blob storage and
// referenced by BlobURL.
type SongVersion struct {
	id                string
	sequence          int
	songID            string
	label             string
	content           string
	blobURL           string
	previousVersionID string
	createdBy         string
	createdAt         time.Time
	dbCreatedAt       time.Time
	renderedContent   string
}

// NewSongVersion creates a SongVersion for the given song with an authorial timestamp.
// The ID, sequence, and DBCreatedAt are assigned by the repository on Create.
func NewSongVersion(sequence int, songID, label, createdBy string, createdAt time.Time) *SongVersion {
	return &SongVersion{
		sequence:  sequence,
		songID:    songID,
		label:     label,
		createdBy: createdBy,
		createdAt: createdAt,
	}
}

func (v *SongVersion) ID() string                { return v.id }
func (v *SongVersion) Sequence() int             { return v.sequence }
func (v *SongVersion) SongID() string            { return v.songID }
func (v *SongVersion) Label() string             { return v.label }
func (v *SongVersion) Content() string           { return v.content }
func (v *SongVersion) BlobURL() string           { return v.blobURL }
func (v *SongVersion) PreviousVersionID() string { return v.previousVersionID }
func (v *SongVersion) CreatedBy() string         { return v.createdBy }
func (v *SongVersion) CreatedAt() time.Time      { return v.createdAt }
func (v *SongVersion) DBCreatedAt() time.Time    { return v.dbCreatedAt }
func (v *SongVersion) RenderedContent() string   { return v.renderedContent }

// UpdatedAt mirrors DBCreatedAt; versions are never edited in place.
func (v *SongVersion) UpdatedAt() time.Time { return v.dbCreatedAt }

func (v *SongVersion) SetID(id string)                 { v.id = id }
func (v *SongVersion) SetSequence(sequence int)        { v.sequence = sequence }
func (v *SongVersion) SetContent(content string)       { v.content = content }
func (v *SongVersion) SetBlobURL(url string)           { v.blobURL = url }
func (v *SongVersion) SetPreviousVersionID(id string)  { v.previousVersionID = id }
func (v *SongVersion) SetDBCreatedAt(t time.Time)      { v.dbCreatedAt = t }
func (v *SongVersion) SetRenderedContent(text string)  { v.renderedContent = text }
func (v *SongVersion) SetCreatedAt(t time.Time)        { v.createdAt = t }

// Validate checks that the version is attached to a song and labeled.
func (v *SongVersion) Validate() error {
	if v.songID == "" {
		return fmt.Errorf("version song ID is required")
	}
	if v.label == "" {
		return fmt.Errorf("version label is required")
	}
	return nil
}
