package movies

import (
	"github.com/goliatone/go-search-cache/lookup"
	"github.com/goliatone/go-search-cache/searchindex"
)

// Index collection names.
const (
	FilmsCollection   = "movies"
	GenresCollection  = "genres"
	PersonsCollection = "persons"
)

// Films describes the movies collection. The genre filter is a genre id,
// matched against the nested genres objects.
func Films() lookup.Collection[FilmSummary, Film] {
	return lookup.Collection[FilmSummary, Film]{
		Name:         FilmsCollection,
		SourceFields: []string{"id", "title", "imdb_rating", "genres"},
		BuildQuery:   FilmQuery,
		DecodeSummary: func(doc searchindex.Document) (FilmSummary, error) {
			f, err := decodeFilm(doc)
			return f.Summary(), err
		},
		DecodeDetail: decodeFilm,
	}
}

// FilmQuery builds the film search: text over title and description, genre
// filter, sort and page window.
func FilmQuery(p lookup.QueryParams) searchindex.Query {
	q := lookup.DefaultQuery(p)
	if q.Text != "" {
		q.TextFields = []string{"title^3", "description"}
	}
	if p.Genre != "" {
		q.Filters = append(q.Filters, searchindex.Filter{
			Path:  "genres",
			Field: "genres.id",
			Value: p.Genre,
		})
	}
	return q
}

// Genres describes the genres collection.
func Genres() lookup.Collection[Genre, Genre] {
	return lookup.Collection[Genre, Genre]{
		Name:         GenresCollection,
		SourceFields: []string{"id", "name", "description"},
		BuildQuery: func(p lookup.QueryParams) searchindex.Query {
			q := lookup.DefaultQuery(p)
			if q.Text != "" {
				q.TextFields = []string{"name"}
			}
			return q
		},
		DecodeSummary: decodeWithID[Genre],
		DecodeDetail:  decodeWithID[Genre],
	}
}

// Persons describes the persons collection.
func Persons() lookup.Collection[PersonSummary, Person] {
	return lookup.Collection[PersonSummary, Person]{
		Name:         PersonsCollection,
		SourceFields: []string{"id", "full_name"},
		BuildQuery: func(p lookup.QueryParams) searchindex.Query {
			q := lookup.DefaultQuery(p)
			if q.Text != "" {
				q.TextFields = []string{"full_name"}
			}
			return q
		},
		DecodeSummary: func(doc searchindex.Document) (PersonSummary, error) {
			p, err := decodeWithID[Person](doc)
			return p.Summary(), err
		},
		DecodeDetail: decodeWithID[Person],
	}
}

func decodeFilm(doc searchindex.Document) (Film, error) {
	f, err := searchindex.Decode[Film](doc)
	if err != nil {
		return Film{}, err
	}
	if f.ID == "" {
		f.ID = doc.ID
	}
	return f, nil
}

// decodeWithID decodes doc and falls back to the hit id when the source
// carries none.
func decodeWithID[T interface {
	Genre | Person
}](doc searchindex.Document) (T, error) {
	v, err := searchindex.Decode[T](doc)
	if err != nil {
		return v, err
	}
	switch rec := any(&v).(type) {
	case *Genre:
		if rec.ID == "" {
			rec.ID = doc.ID
		}
	case *Person:
		if rec.ID == "" {
			rec.ID = doc.ID
		}
	}
	return v, nil
}
