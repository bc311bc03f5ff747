package areas

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sitestock/sitestock-backend/pkg/db"
	"github.com/sitestock/sitestock-backend/pkg/db/models"
	pkgerrors "github.com/sitestock/sitestock-backend/pkg/errors"
)

const maxNameLength = 120

type areaRepository interface {
	FindAll(ctx context.Context) ([]models.Area, error)
	FindByID(ctx context.Context, id int64) (*models.Area, error)
	Default(ctx context.Context) (*models.Area, error)
	Create(ctx context.Context, name string) (*models.Area, error)
}

// Service exposes area operations.
type Service interface {
	List(ctx context.Context) ([]AreaDTO, error)
	GetByID(ctx context.Context, id int64) (*AreaDTO, error)
	Default(ctx context.Context) (*AreaDTO, error)
	Create(ctx context.Context, name string) (*AreaDTO, error)
}

type service struct {
	repo areaRepository
}

// NewService builds an area service with the provided repository.
func NewService(repo areaRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("area repository required")
	}
	return &service{repo: repo}, nil
}

// AreaDTO is the wire shape for an area.
type AreaDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func fromModel(area *models.Area) *AreaDTO {
	if area == nil {
		return nil
	}
	return &AreaDTO{
		ID:        area.ID,
		Name:      area.Name,
		CreatedAt: area.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *service) List(ctx context.Context) ([]AreaDTO, error) {
	list, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list areas")
	}
	out := make([]AreaDTO, 0, len(list))
	for i := range list {
		out = append(out, *fromModel(&list[i]))
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*AreaDTO, error) {
	area, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "area not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load area")
	}
	return fromModel(area), nil
}

func (s *service) Default(ctx context.Context) (*AreaDTO, error) {
	area, err := s.repo.Default(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no areas configured")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default area")
	}
	return fromModel(area), nil
}

func (s *service) Create(ctx context.Context, name string) (*AreaDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "area name is required")
	}
	if len(name) > maxNameLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "area name is too long")
	}

	area, err := s.repo.Create(ctx, name)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "area already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create area")
	}
	return fromModel(area), nil
}
