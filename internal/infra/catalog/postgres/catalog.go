package infra_catalog_postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/suprdory/filmvote/core/internal/model"
)

type Repository struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Load(ctx context.Context) ([]model.Film, error) {
	query := `
		SELECT id, title, year, runtime, imdb_score, rt_score, box_office,
			director, actors, plot, season, poster_link, watched
		FROM films
		ORDER BY title
	`

	var filmsDB []FilmDB
	if err := r.db.SelectContext(ctx, &filmsDB, query); err != nil {
		return nil, fmt.Errorf("failed to query films: %w", err)
	}

	films := make([]model.Film, len(filmsDB))
	for i, filmDB := range filmsDB {
		films[i] = filmDB.ToDomain()
	}

	return films, nil
}
