package usecase_catalog

import (
	"context"
	"errors"

	"github.com/suprdory/filmvote/core/internal/model"
)

var ErrCatalogUnavailable = errors.New("film catalog unavailable")

//go:generate mockery --name=CatalogRepository --output=./mocks/repository --filename=repository.go
type CatalogRepository interface {
	Load(ctx context.Context) ([]model.Film, error)
}

// Usecase hands the host UI the candidate list. The catalog is an external
// collaborator: the coordinator never mutates it.
type Usecase struct {
	repo CatalogRepository
}

func New(repo CatalogRepository) *Usecase {
	return &Usecase{repo: repo}
}

func (u *Usecase) Films(ctx context.Context) ([]model.Film, error) {
	films, err := u.repo.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrCatalogUnavailable, err)
	}
	return films, nil
}
