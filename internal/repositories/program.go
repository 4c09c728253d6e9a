package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

// ProgramRepository implements models.Repository[*models.Program].
//
// Subprograms are looked up by exact title for reuse during resync, so
// GetByTitle matches the stored title verbatim (unlike song lookups, which
// normalize).
type ProgramRepository struct {
	db *sql.DB
}

// NewProgramRepository creates a new ProgramRepository with the given database connection
func NewProgramRepository(db *sql.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

const programColumns = `id, sequence, title, element_ids, program_ids, created_by, created_at, updated_at, archived, is_subprogram`

// Create inserts a new program into the database with generated ID and sequence
func (r *ProgramRepository) Create(program *models.Program) error {
	sequence, err := NextSequence(r.db, "programs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	program.SetID(id)
	program.SetSequence(sequence)

	if err := program.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	elements, err := marshalStrings(program.ElementIDs())
	if err != nil {
		return err
	}
	programs, err := marshalStrings(program.ProgramIDs())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO programs (` + programColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		program.Title(),
		elements,
		programs,
		program.CreatedBy(),
		program.CreatedAt(),
		program.UpdatedAt(),
		program.Archived(),
		program.IsSubprogram(),
	)
	if err != nil {
		return wrapUnique(fmt.Errorf("failed to insert program: %w", err), program.Title())
	}

	return nil
}

// Get retrieves a program by ID, excluding archived programs
func (r *ProgramRepository) Get(id string) (*models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE id = ? AND archived = 0`
	return r.scan(r.db.QueryRow(query, id))
}

// GetByTitle retrieves a non-archived program by exact title match.
func (r *ProgramRepository) GetByTitle(title string) (*models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE title = ? AND archived = 0`
	return r.scan(r.db.QueryRow(query, title))
}

// Update modifies an existing program in the database
func (r *ProgramRepository) Update(program *models.Program) error {
	if err := program.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	program.SetUpdatedAt(now)

	elements, err := marshalStrings(program.ElementIDs())
	if err != nil {
		return err
	}
	programs, err := marshalStrings(program.ProgramIDs())
	if err != nil {
		return err
	}

	query := `
		UPDATE programs
		SET title = ?, element_ids = ?, program_ids = ?, updated_at = ?
		WHERE id = ? AND archived = 0
	`

	result, err := r.db.Exec(query, program.Title(), elements, programs, now, program.ID())
	if err != nil {
		return fmt.Errorf("failed to update program: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrProgramNotFound, program.ID())
	}

	return nil
}

// ReplaceRefs wholesale-replaces a program's element and subprogram reference lists.
//
// This is the resync write path: any manual reordering done elsewhere since
// the last resync is discarded, because resync has no merge mechanism.
func (r *ProgramRepository) ReplaceRefs(id string, elementIDs, programIDs []string) error {
	elements, err := marshalStrings(elementIDs)
	if err != nil {
		return err
	}
	programs, err := marshalStrings(programIDs)
	if err != nil {
		return err
	}

	query := `
		UPDATE programs
		SET element_ids = ?, program_ids = ?, updated_at = ?
		WHERE id = ? AND archived = 0
	`

	result, err := r.db.Exec(query, elements, programs, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to replace program refs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrProgramNotFound, id)
	}

	return nil
}

// Delete soft-archives a program by ID
func (r *ProgramRepository) Delete(id string) error {
	query := `
		UPDATE programs
		SET archived = 1, updated_at = ?
		WHERE id = ? AND archived = 0
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to archive program: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrProgramNotFound, id)
	}

	return nil
}

// List retrieves all programs matching the given criteria, excluding archived programs
func (r *ProgramRepository) List(criteria map[string]any) ([]*models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE archived = 0`

	args := []any{}

	if isSub, ok := criteria["is_subprogram"].(bool); ok {
		query += " AND is_subprogram = ?"
		args = append(args, isSub)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query programs: %w", err)
	}
	defer rows.Close()

	var programs []*models.Program
	for rows.Next() {
		program, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, program)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return programs, nil
}

func (r *ProgramRepository) scan(row scannable) (*models.Program, error) {
	var (
		id           string
		sequence     int
		title        string
		elements     string
		programIDs   string
		createdBy    string
		createdAt    time.Time
		updatedAt    time.Time
		archived     bool
		isSubprogram bool
	)

	err := row.Scan(&id, &sequence, &title, &elements, &programIDs, &createdBy, &createdAt, &updatedAt, &archived, &isSubprogram)
	if err == sql.ErrNoRows {
		return nil, shared.ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan program: %w", err)
	}

	elementList, err := unmarshalStrings(elements)
	if err != nil {
		return nil, err
	}
	programList, err := unmarshalStrings(programIDs)
	if err != nil {
		return nil, err
	}

	program := models.NewProgram(sequence, title, createdBy, isSubprogram)
	program.SetID(id)
	program.SetElementIDs(elementList)
	program.SetProgramIDs(programList)
	program.SetCreatedAt(createdAt)
	program.SetUpdatedAt(updatedAt)
	program.SetArchived(archived)

	return program, nil
}
