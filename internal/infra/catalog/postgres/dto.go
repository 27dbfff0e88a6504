package infra_catalog_postgres

import (
	"database/sql"

	"github.com/suprdory/filmvote/core/internal/model"
)

type FilmDB struct {
	ID         sql.NullString  `db:"id"`
	Title      string          `db:"title"`
	Year       int             `db:"year"`
	Runtime    int             `db:"runtime"`
	ImdbScore  sql.NullFloat64 `db:"imdb_score"`
	RtScore    sql.NullInt64   `db:"rt_score"`
	BoxOffice  sql.NullInt64   `db:"box_office"`
	Director   string          `db:"director"`
	Actors     string          `db:"actors"`
	Plot       string          `db:"plot"`
	Season     int             `db:"season"`
	PosterLink string          `db:"poster_link"`
	Watched    bool            `db:"watched"`
}

func (f *FilmDB) ToDomain() model.Film {
	return model.Film{
		ID:         model.FilmID(f.ID.String),
		Title:      f.Title,
		Year:       f.Year,
		Runtime:    f.Runtime,
		ImdbScore:  f.ImdbScore.Float64,
		RtScore:    int(f.RtScore.Int64),
		BoxOffice:  f.BoxOffice.Int64,
		Director:   f.Director,
		Actors:     f.Actors,
		Plot:       f.Plot,
		Season:     f.Season,
		PosterLink: f.PosterLink,
		Watched:    f.Watched,
	}
}
