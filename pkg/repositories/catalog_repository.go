package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/esgdiag/esg-engine/pkg/apperrors"
	"github.com/esgdiag/esg-engine/pkg/database"
	"github.com/esgdiag/esg-engine/pkg/models"
)

// CatalogRepository provides read access to the questionnaire catalog and
// the startup seeding path. The catalog is reference data shared by all
// tenants.
type CatalogRepository interface {
	// GetQuestionnaire returns the full catalog tree in display order.
	GetQuestionnaire(ctx context.Context) (*models.Questionnaire, error)

	// GetQuestion retrieves one question by ID.
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)

	// Seed upserts the catalog from the questionnaire seed file.
	// Existing rows are updated in place so question IDs stay stable.
	Seed(ctx context.Context, q *models.Questionnaire) error
}

type catalogRepository struct{}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository() CatalogRepository {
	return &catalogRepository{}
}

var _ CatalogRepository = (*catalogRepository)(nil)

func (r *catalogRepository) GetQuestionnaire(ctx context.Context) (*models.Questionnaire, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	q := &models.Questionnaire{}

	rows, err := scope.Conn.Query(ctx, `
		SELECT code, name, display_order
		FROM esg_pillars
		ORDER BY display_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pillars: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p models.Pillar
		if err := rows.Scan(&p.Code, &p.Name, &p.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan pillar: %w", err)
		}
		q.Pillars = append(q.Pillars, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pillars: %w", err)
	}
	rows.Close()

	rows, err = scope.Conn.Query(ctx, `
		SELECT id, pillar_code, name, display_order
		FROM esg_themes
		ORDER BY display_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t models.Theme
		if err := rows.Scan(&t.ID, &t.PillarCode, &t.Name, &t.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		q.Themes = append(q.Themes, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate themes: %w", err)
	}
	rows.Close()

	rows, err = scope.Conn.Query(ctx, `
		SELECT id, theme_id, name, display_order
		FROM esg_criteria
		ORDER BY display_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list criteria: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c models.Criteria
		if err := rows.Scan(&c.ID, &c.ThemeID, &c.Name, &c.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan criteria: %w", err)
		}
		q.Criteria = append(q.Criteria, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate criteria: %w", err)
	}
	rows.Close()

	rows, err = scope.Conn.Query(ctx, `
		SELECT id, criteria_id, pillar_code, text, display_order
		FROM esg_questions
		ORDER BY display_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var question models.Question
		if err := rows.Scan(&question.ID, &question.CriteriaID, &question.PillarCode, &question.Text, &question.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Questions = append(q.Questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	return q, nil
}

func (r *catalogRepository) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT id, criteria_id, pillar_code, text, display_order
		FROM esg_questions
		WHERE id = $1`

	var q models.Question
	err := scope.Conn.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.CriteriaID, &q.PillarCode, &q.Text, &q.DisplayOrder,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get question by id: %w", err)
	}
	return &q, nil
}

func (r *catalogRepository) Seed(ctx context.Context, q *models.Questionnaire) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, p := range q.Pillars {
		_, err := tx.Exec(ctx, `
			INSERT INTO esg_pillars (code, name, display_order)
			VALUES ($1, $2, $3)
			ON CONFLICT (code) DO UPDATE SET name = $2, display_order = $3`,
			p.Code, p.Name, p.DisplayOrder)
		if err != nil {
			return fmt.Errorf("seed pillar %s: %w", p.Code, err)
		}
	}

	for _, t := range q.Themes {
		_, err := tx.Exec(ctx, `
			INSERT INTO esg_themes (id, pillar_code, name, display_order)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET pillar_code = $2, name = $3, display_order = $4`,
			t.ID, t.PillarCode, t.Name, t.DisplayOrder)
		if err != nil {
			return fmt.Errorf("seed theme %s: %w", t.Name, err)
		}
	}

	for _, c := range q.Criteria {
		_, err := tx.Exec(ctx, `
			INSERT INTO esg_criteria (id, theme_id, name, display_order)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET theme_id = $2, name = $3, display_order = $4`,
			c.ID, c.ThemeID, c.Name, c.DisplayOrder)
		if err != nil {
			return fmt.Errorf("seed criteria %s: %w", c.Name, err)
		}
	}

	for _, question := range q.Questions {
		_, err := tx.Exec(ctx, `
			INSERT INTO esg_questions (id, criteria_id, pillar_code, text, display_order)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET criteria_id = $2, pillar_code = $3, text = $4, display_order = $5`,
			question.ID, question.CriteriaID, question.PillarCode, question.Text, question.DisplayOrder)
		if err != nil {
			return fmt.Errorf("seed question: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}
