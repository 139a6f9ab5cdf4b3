package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned for missing rows. It is sql.ErrNoRows so both match with errors.Is.
var ErrNotFound = sql.ErrNoRows

var ErrClaimLost = errors.New("resume is no longer being analyzed")

const (
	StatusPending   = "pending"
	StatusAnalyzing = "analyzing"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const (
	CategoryProgrammingLanguage = "programming_language"
	CategoryFramework           = "framework"
	CategoryDatabase            = "database"
	CategoryDevOps              = "devops"
	CategoryCloud               = "cloud"
	CategorySoftSkill           = "soft_skill"
	CategoryOther               = "other"
)

func ValidCategory(c string) bool {
	switch c {
	case CategoryProgrammingLanguage, CategoryFramework, CategoryDatabase,
		CategoryDevOps, CategoryCloud, CategorySoftSkill, CategoryOther:
		return true
	}
	return false
}

// Store adds transactional operations on top of Queries.
type Store struct {
	*Queries
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		Queries: New(db),
		db:      db,
	}
}

func (s *Store) execTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(s.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %v, rollback err: %w", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

type CompleteAnalysisParams struct {
	ResumeID    uuid.UUID
	AnalysisRef string
	SkillIDs    []uuid.UUID
}

// CompleteAnalysis marks the resume completed, points it at the analysis and replaces
// its skill set in one transaction. It fails with ErrClaimLost if the resume left the
// analyzing state in the meantime.
func (s *Store) CompleteAnalysis(ctx context.Context, arg CompleteAnalysisParams) error {
	return s.execTx(ctx, func(q *Queries) error {
		n, err := q.CompleteResumeAnalysis(ctx, CompleteResumeAnalysisParams{
			ID:          arg.ResumeID,
			AnalysisRef: arg.AnalysisRef,
		})
		if err != nil {
			return fmt.Errorf("failed to complete resume: %w", err)
		}
		if n == 0 {
			return ErrClaimLost
		}

		if err := q.DeleteResumeSkills(ctx, arg.ResumeID); err != nil {
			return fmt.Errorf("failed to clear resume skills: %w", err)
		}
		for _, id := range arg.SkillIDs {
			if err := q.AddResumeSkill(ctx, AddResumeSkillParams{ResumeID: arg.ResumeID, SkillID: id}); err != nil {
				return fmt.Errorf("failed to link skill %s: %w", id, err)
			}
		}
		return nil
	})
}

// GetOrCreateSkill returns the catalog entry for name, creating it when absent.
// A concurrent insert of the same name is not an error.
func (s *Store) GetOrCreateSkill(ctx context.Context, name, category string) (Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Skill{}, errors.New("empty skill name")
	}
	if !ValidCategory(category) {
		category = CategoryOther
	}

	skill, err := s.GetSkillByName(ctx, name)
	if err == nil {
		return skill, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Skill{}, err
	}

	err = s.InsertSkillIfAbsent(ctx, InsertSkillIfAbsentParams{
		ID:       uuid.New(),
		Name:     name,
		Category: category,
	})
	if err != nil {
		return Skill{}, fmt.Errorf("failed to insert skill %q: %w", name, err)
	}
	return s.GetSkillByName(ctx, name)
}
