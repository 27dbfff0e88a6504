package infra_catalog_jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/suprdory/filmvote/core/internal/model"
)

// Repository reads the film catalog from a films.json file, the same shape
// the host page consumes.
type Repository struct {
	path string
}

func New(path string) *Repository {
	return &Repository{path: path}
}

func (r *Repository) Load(_ context.Context) ([]model.Film, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var films []model.Film
	if err := json.Unmarshal(raw, &films); err != nil {
		return nil, fmt.Errorf("failed to decode catalog file: %w", err)
	}

	return films, nil
}
