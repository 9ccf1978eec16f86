// Package movies holds the film, genre and person records served by the
// lookup services, and the collection definitions that bind them to the index.
package movies

// Ref is a nested reference to another entity.
type Ref struct {
	ID   string `json:"id" msgpack:"id"`
	Name string `json:"name" msgpack:"name"`
}

// Film is the full film document. Slice fields carry no omitempty so that an
// empty list and a missing one survive a cache round trip unchanged.
type Film struct {
	ID          string  `json:"id" msgpack:"id"`
	Title       string  `json:"title" msgpack:"title"`
	IMDbRating  float64 `json:"imdb_rating" msgpack:"imdb_rating"`
	Description string  `json:"description,omitempty" msgpack:"description,omitempty"`
	Genres      []Ref   `json:"genres" msgpack:"genres"`
	Actors      []Ref   `json:"actors" msgpack:"actors"`
	Writers     []Ref   `json:"writers" msgpack:"writers"`
	Directors   []Ref   `json:"directors" msgpack:"directors"`
}

func (f Film) GetID() string { return f.ID }

// FilmSummary is the list projection of a film.
type FilmSummary struct {
	UUID       string  `json:"uuid" msgpack:"uuid"`
	Title      string  `json:"title" msgpack:"title"`
	IMDbRating float64 `json:"imdb_rating" msgpack:"imdb_rating"`
}

func (f FilmSummary) GetID() string { return f.UUID }

// Summary projects f.
func (f Film) Summary() FilmSummary {
	return FilmSummary{UUID: f.ID, Title: f.Title, IMDbRating: f.IMDbRating}
}

// Genre is a film genre. The same shape is used for lists and details.
type Genre struct {
	ID          string `json:"id" msgpack:"id"`
	Name        string `json:"name" msgpack:"name"`
	Description string `json:"description,omitempty" msgpack:"description,omitempty"`
}

func (g Genre) GetID() string { return g.ID }

// Person is anyone credited on a film.
type Person struct {
	ID       string   `json:"id" msgpack:"id"`
	FullName string   `json:"full_name" msgpack:"full_name"`
	Roles    []string `json:"roles" msgpack:"roles"`
	FilmIDs  []string `json:"film_ids" msgpack:"film_ids"`
}

func (p Person) GetID() string { return p.ID }

// PersonSummary is the list projection of a person.
type PersonSummary struct {
	UUID     string `json:"uuid" msgpack:"uuid"`
	FullName string `json:"full_name" msgpack:"full_name"`
}

func (p PersonSummary) GetID() string { return p.UUID }

// Summary projects p.
func (p Person) Summary() PersonSummary {
	return PersonSummary{UUID: p.ID, FullName: p.FullName}
}
