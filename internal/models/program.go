package models

import (
	"fmt"
	"time"
)

// Program is an ordered playlist of song-version references and nested subprograms.
//
// ElementIDs reference SongVersion rows, ProgramIDs reference other Program
// rows. The reference graph must stay acyclic along any resolution path;
// recursive consumers carry an explicit visited set (see programs.Flatten).
type Program struct {
	id           string
	sequence     int
	title        string
	elementIDs   []string
	programIDs   []string
	createdBy    string
	createdAt    time.Time
	updatedAt    time.Time
	archived     bool
	isSubprogram bool
}

// NewProgram creates a Program with the given sequence, title and creator.
// The ID is assigned by the repository on Create.
func NewProgram(sequence int, title, createdBy string, isSubprogram bool) *Program {
	now := time.Now()
	return &Program{
		sequence:     sequence,
		title:        title,
		createdBy:    createdBy,
		createdAt:    now,
		updatedAt:    now,
		isSubprogram: isSubprogram,
	}
}

func (p *Program) ID() string           { return p.id }
func (p *Program) Sequence() int        { return p.sequence }
func (p *Program) Title() string        { return p.title }
func (p *Program) ElementIDs() []string { return p.elementIDs }
func (p *Program) ProgramIDs() []string { return p.programIDs }
func (p *Program) CreatedBy() string    { return p.createdBy }
func (p *Program) CreatedAt() time.Time { return p.createdAt }
func (p *Program) UpdatedAt() time.Time { return p.updatedAt }
func (p *Program) Archived() bool       { return p.archived }
func (p *Program) IsSubprogram() bool   { return p.isSubprogram }

func (p *Program) SetID(id string)            { p.id = id }
func (p *Program) SetSequence(sequence int)   { p.sequence = sequence }
func (p *Program) SetElementIDs(ids []string) { p.elementIDs = ids }
func (p *Program) SetProgramIDs(ids []string) { p.programIDs = ids }
func (p *Program) SetCreatedAt(t time.Time)   { p.createdAt = t }
func (p *Program) SetUpdatedAt(t time.Time)   { p.updatedAt = t }
func (p *Program) SetArchived(archived bool)  { p.archived = archived }

// RefCount returns the total number of element and subprogram references.
func (p *Program) RefCount() int {
	return len(p.elementIDs) + len(p.programIDs)
}

// Validate checks that the program has a non-empty title.
func (p *Program) Validate() error {
	if p.title == "" {
		return fmt.Errorf("program title is required")
	}
	return nil
}
