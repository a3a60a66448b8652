package services

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/esgdiag/esg-engine/pkg/models"
	"github.com/esgdiag/esg-engine/pkg/repositories"
)

// CatalogService provides the questionnaire catalog and its startup seeding.
type CatalogService interface {
	// SeedFromFile loads the questionnaire seed YAML and upserts it into
	// the catalog tables. Safe to call on every startup.
	SeedFromFile(ctx context.Context, path string) error

	// GetQuestionnaire returns the full catalog tree.
	GetQuestionnaire(ctx context.Context) (*models.Questionnaire, error)

	// GetQuestion retrieves one question by ID.
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)
}

// seedFile mirrors the questionnaire seed YAML layout.
type seedFile struct {
	Pillars []seedPillar `yaml:"pillars"`
}

type seedPillar struct {
	Code   string      `yaml:"code"`
	Name   string      `yaml:"name"`
	Themes []seedTheme `yaml:"themes"`
}

type seedTheme struct {
	Name     string         `yaml:"name"`
	Criteria []seedCriteria `yaml:"criteria"`
}

type seedCriteria struct {
	Name      string   `yaml:"name"`
	Questions []string `yaml:"questions"`
}

type catalogService struct {
	catalogRepo repositories.CatalogRepository
	logger      *zap.Logger
}

// NewCatalogService creates a new catalog service with dependencies.
func NewCatalogService(catalogRepo repositories.CatalogRepository, logger *zap.Logger) CatalogService {
	return &catalogService{
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

var _ CatalogService = (*catalogService)(nil)

func (s *catalogService) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog seed: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse catalog seed: %w", err)
	}

	q, err := buildQuestionnaire(&seed)
	if err != nil {
		return err
	}

	if err := s.catalogRepo.Seed(ctx, q); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	s.logger.Info("Seeded questionnaire catalog",
		zap.Int("pillars", len(q.Pillars)),
		zap.Int("themes", len(q.Themes)),
		zap.Int("criteria", len(q.Criteria)),
		zap.Int("questions", len(q.Questions)))
	return nil
}

// buildQuestionnaire flattens the seed tree into catalog rows. IDs are
// name-derived (UUIDv5) so reseeding after a text tweak updates rows in
// place instead of duplicating them.
func buildQuestionnaire(seed *seedFile) (*models.Questionnaire, error) {
	q := &models.Questionnaire{}

	for pi, p := range seed.Pillars {
		code := models.PillarCode(p.Code)
		if !models.IsValidPillarCode(code) {
			return nil, fmt.Errorf("catalog seed: unknown pillar code %q", p.Code)
		}

		q.Pillars = append(q.Pillars, models.Pillar{
			Code:         code,
			Name:         p.Name,
			DisplayOrder: pi + 1,
		})

		for ti, t := range p.Themes {
			themeID := seedID("theme", p.Code, t.Name)
			q.Themes = append(q.Themes, models.Theme{
				ID:           themeID,
				PillarCode:   code,
				Name:         t.Name,
				DisplayOrder: pi*100 + ti + 1,
			})

			for ci, c := range t.Criteria {
				criteriaID := seedID("criteria", p.Code, t.Name, c.Name)
				q.Criteria = append(q.Criteria, models.Criteria{
					ID:           criteriaID,
					ThemeID:      themeID,
					Name:         c.Name,
					DisplayOrder: pi*1000 + ti*100 + ci + 1,
				})

				for _, text := range c.Questions {
					q.Questions = append(q.Questions, models.Question{
						ID:           seedID("question", p.Code, t.Name, c.Name, text),
						CriteriaID:   criteriaID,
						PillarCode:   code,
						Text:         text,
						DisplayOrder: len(q.Questions) + 1,
					})
				}
			}
		}
	}

	if len(q.Questions) == 0 {
		return nil, fmt.Errorf("catalog seed: no questions defined")
	}

	return q, nil
}

// seedID derives a stable UUID from the seed path components.
func seedID(parts ...string) uuid.UUID {
	name := ""
	for _, p := range parts {
		name += p + "|"
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

func (s *catalogService) GetQuestionnaire(ctx context.Context) (*models.Questionnaire, error) {
	return s.catalogRepo.GetQuestionnaire(ctx)
}

func (s *catalogService) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	return s.catalogRepo.GetQuestion(ctx, id)
}
