package model

type FilmID string

const EmptyFilmID FilmID = ""

// Film is one candidate in a vote. Sourced from the catalog when the host
// starts a session and never mutated afterwards.
type Film struct {
	ID         FilmID  `json:"id"`
	Title      string  `json:"Title"`
	Year       int     `json:"Year"`
	Runtime    int     `json:"Runtime"`
	ImdbScore  float64 `json:"IMDb"`
	RtScore    int     `json:"RT"`
	BoxOffice  int64   `json:"BoxOffice"`
	Director   string  `json:"Director"`
	Actors     string  `json:"Actors"`
	Plot       string  `json:"Plot"`
	Season     int     `json:"Season"`
	PosterLink string  `json:"Poster"`
	Watched    bool    `json:"Watched"`
}

// Key is the stable identity of a film: the external id when the catalog
// supplies one, otherwise the title.
func (f Film) Key() FilmID {
	if f.ID != EmptyFilmID {
		return f.ID
	}
	return FilmID(f.Title)
}
