package badges

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Requirement type names accepted in catalog files.
const (
	TypeMinQuizzes        = "min_quizzes"
	TypeMinCorrectAnswers = "min_correct_answers"
	TypeStreak            = "streak"
	TypeScore             = "score"
	TypeCategoryMaster    = "category_master"
	TypeDailyLoginStreak  = "daily_login_streak"
)

type catalogFile struct {
	Badges []badgeEntry `yaml:"badges"`
}

type badgeEntry struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Points      int              `yaml:"points"`
	Icon        string           `yaml:"icon"`
	Requirement requirementEntry `yaml:"requirement"`
}

type requirementEntry struct {
	Type     string  `yaml:"type"`
	N        int     `yaml:"n"`
	MinScore float64 `yaml:"min_score"`
	Count    int     `yaml:"count"`
	Category string  `yaml:"category"`
}

// LoadCatalogFile reads a YAML catalog from path.
func LoadCatalogFile(path string) ([]Badge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog decodes a YAML catalog of the form
//
//	badges:
//	  - id: first_boomer
//	    name: First Boomer
//	    points: 25
//	    requirement: {type: min_quizzes, n: 1}
//
// Badge order in the file is evaluation order.
func LoadCatalog(r io.Reader) ([]Badge, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog is empty")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(file.Badges) == 0 {
		return nil, fmt.Errorf("catalog has no badges")
	}

	seen := make(map[string]bool, len(file.Badges))
	out := make([]Badge, 0, len(file.Badges))
	for i, entry := range file.Badges {
		if entry.ID == "" {
			return nil, fmt.Errorf("badge #%d: id is required", i+1)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("badge %q: duplicate id", entry.ID)
		}
		seen[entry.ID] = true
		if entry.Points < 0 {
			return nil, fmt.Errorf("badge %q: points must be >= 0", entry.ID)
		}

		req, err := entry.Requirement.build()
		if err != nil {
			return nil, fmt.Errorf("badge %q: %w", entry.ID, err)
		}
		name := entry.Name
		if name == "" {
			name = entry.ID
		}
		out = append(out, Badge{
			ID:          entry.ID,
			Name:        name,
			Description: entry.Description,
			Points:      entry.Points,
			Requirement: req,
			Icon:        entry.Icon,
		})
	}
	return out, nil
}

func (s requirementEntry) build() (Requirement, error) {
	needN := func() error {
		if s.N < 1 {
			return fmt.Errorf("requirement %s: n must be >= 1", s.Type)
		}
		return nil
	}

	switch s.Type {
	case TypeMinQuizzes:
		if err := needN(); err != nil {
			return nil, err
		}
		return MinQuizzesRequirement{N: s.N}, nil
	case TypeMinCorrectAnswers:
		if err := needN(); err != nil {
			return nil, err
		}
		return MinCorrectAnswersRequirement{N: s.N}, nil
	case TypeStreak:
		if err := needN(); err != nil {
			return nil, err
		}
		return StreakRequirement{N: s.N}, nil
	case TypeDailyLoginStreak:
		if err := needN(); err != nil {
			return nil, err
		}
		return DailyLoginStreakRequirement{N: s.N}, nil
	case TypeScore:
		if s.MinScore <= 0 || s.MinScore > 100 {
			return nil, fmt.Errorf("requirement score: min_score must be in (0, 100]")
		}
		count := s.Count
		if count == 0 {
			count = 1
		}
		if count < 0 {
			return nil, fmt.Errorf("requirement score: count must be >= 1")
		}
		return ScoreRequirement{MinScore: s.MinScore, Count: count, Category: s.Category}, nil
	case TypeCategoryMaster:
		if s.Category == "" {
			return nil, fmt.Errorf("requirement category_master: category is required")
		}
		return CategoryMasterRequirement{Category: s.Category}, nil
	case "":
		return nil, fmt.Errorf("requirement type is required")
	default:
		return nil, fmt.Errorf("unknown requirement type %q", s.Type)
	}
}
