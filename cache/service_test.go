package cache_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/goliatone/go-search-cache/cache"
	"github.com/goliatone/go-search-cache/movies"
	"github.com/goliatone/go-search-cache/pkg/testsupport"
)

type film struct {
	ID     string   `json:"id" msgpack:"id"`
	Title  string   `json:"title" msgpack:"title"`
	Rating float64  `json:"rating" msgpack:"rating"`
	Tags   []string `json:"tags" msgpack:"tags"`
}

func TestCodecs_RoundTrip(t *testing.T) {
	codecs := map[string]cache.Codec[[]film]{
		"msgpack": cache.NewMsgpackCodec[[]film](),
		"json":    cache.NewJSONCodec[[]film](),
	}
	in := []film{
		{ID: "1", Title: "Batman Begins", Rating: 8.2, Tags: []string{"dc"}},
		{ID: "2", Title: "The Batman", Rating: 7.8, Tags: []string{}},
		{ID: "3", Title: "Batman Forever", Rating: 5.4},
	}

	for name, codec := range codecs {
		t.Run(name, func(t *testing.T) {
			data, err := codec.Encode(in)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			out, err := codec.Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(out, in) {
				t.Errorf("round trip changed the value:\ngot  %#v\nwant %#v", out, in)
			}
		})
	}
}

func TestCodecs_RoundTripFilms(t *testing.T) {
	codecs := map[string]cache.Codec[[]movies.Film]{
		"msgpack": cache.NewMsgpackCodec[[]movies.Film](),
		"json":    cache.NewJSONCodec[[]movies.Film](),
	}
	in := []movies.Film{
		{
			ID:         "1",
			Title:      "Batman Begins",
			IMDbRating: 8.2,
			Genres:     []movies.Ref{{ID: "g1", Name: "Action"}},
			Actors:     []movies.Ref{},
			Directors:  []movies.Ref{{ID: "p1", Name: "Christopher Nolan"}},
		},
		{ID: "2", Title: "Untitled", Genres: []movies.Ref{}},
		{ID: "3"},
	}

	for name, codec := range codecs {
		t.Run(name, func(t *testing.T) {
			data, err := codec.Encode(in)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			out, err := codec.Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(out, in) {
				t.Errorf("round trip changed the value:\ngot  %#v\nwant %#v", out, in)
			}
			if out[1].Genres == nil || out[2].Genres != nil {
				t.Error("empty and missing genre lists must stay distinct")
			}
		})
	}
}

func TestCodecs_CorruptPayload(t *testing.T) {
	garbage := [][]byte{nil, {}, []byte("not a payload \xc1")}
	codecs := map[string]cache.Codec[[]film]{
		"msgpack": cache.NewMsgpackCodec[[]film](),
		"json":    cache.NewJSONCodec[[]film](),
	}

	for name, codec := range codecs {
		for _, data := range garbage {
			if _, err := codec.Decode(data); !errors.Is(err, cache.ErrCorruptPayload) {
				t.Errorf("%s: Decode(%q) error = %v, want ErrCorruptPayload", name, data, err)
			}
		}
	}
}

func TestRead(t *testing.T) {
	ctx := context.Background()
	codec := cache.NewMsgpackCodec[film]()
	store := testsupport.NewRecordingStore()

	if _, outcome, err := cache.Read(ctx, store, codec, "movies::missing"); err != nil || outcome != cache.OutcomeMiss {
		t.Errorf("absent key: outcome = %s, err = %v", outcome, err)
	}

	if err := cache.Put(ctx, store, codec, "movies::1", film{ID: "1", Title: "Heat"}, time.Minute); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, outcome, err := cache.Read(ctx, store, codec, "movies::1")
	if err != nil || outcome != cache.OutcomeHit {
		t.Fatalf("stored key: outcome = %s, err = %v", outcome, err)
	}
	if got.Title != "Heat" {
		t.Errorf("expected Heat, got %q", got.Title)
	}
	if store.TTL("movies::1") != time.Minute {
		t.Errorf("expected ttl of one minute, got %v", store.TTL("movies::1"))
	}

	store.Put("movies::bad", []byte{0xc1})
	if _, outcome, err := cache.Read(ctx, store, codec, "movies::bad"); err != nil || outcome != cache.OutcomeCorrupt {
		t.Errorf("corrupt key: outcome = %s, err = %v", outcome, err)
	}

	boom := errors.New("connection refused")
	store.FailGets(boom)
	if _, _, err := cache.Read(ctx, store, codec, "movies::1"); !errors.Is(err, boom) {
		t.Errorf("expected store error to propagate, got %v", err)
	}
}

func TestGetOrFetch(t *testing.T) {
	ctx := context.Background()
	codec := cache.NewMsgpackCodec[film]()
	store := testsupport.NewRecordingStore()

	calls := 0
	fetch := func(context.Context) (film, error) {
		calls++
		return film{ID: "7", Title: "Alien"}, nil
	}

	got, outcome, err := cache.GetOrFetch(ctx, store, codec, "7", time.Minute, fetch)
	if err != nil {
		t.Fatalf("first call error = %v", err)
	}
	if outcome != cache.OutcomeMiss || got.Title != "Alien" {
		t.Errorf("first call: outcome = %s, got %+v", outcome, got)
	}

	got, outcome, err = cache.GetOrFetch(ctx, store, codec, "7", time.Minute, fetch)
	if err != nil {
		t.Fatalf("second call error = %v", err)
	}
	if outcome != cache.OutcomeHit || got.Title != "Alien" {
		t.Errorf("second call: outcome = %s, got %+v", outcome, got)
	}
	if calls != 1 {
		t.Errorf("expected one fetch, got %d", calls)
	}

	store.Put("7", []byte("garbage"))
	_, outcome, err = cache.GetOrFetch(ctx, store, codec, "7", time.Minute, fetch)
	if err != nil || outcome != cache.OutcomeCorrupt {
		t.Errorf("corrupt entry: outcome = %s, err = %v", outcome, err)
	}
	if calls != 2 {
		t.Errorf("corrupt entry should refetch, got %d fetches", calls)
	}
}

func TestGetOrFetch_Errors(t *testing.T) {
	ctx := context.Background()
	codec := cache.NewMsgpackCodec[film]()

	t.Run("fetch error is not cached", func(t *testing.T) {
		store := testsupport.NewRecordingStore()
		boom := errors.New("index down")
		_, _, err := cache.GetOrFetch(ctx, store, codec, "1", time.Minute, func(context.Context) (film, error) {
			return film{}, boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("expected fetch error, got %v", err)
		}
		if store.Len() != 0 {
			t.Errorf("nothing should be written, got %d keys", store.Len())
		}
	})

	t.Run("write error propagates", func(t *testing.T) {
		store := testsupport.NewRecordingStore()
		boom := errors.New("read only")
		store.FailSets(boom)
		_, _, err := cache.GetOrFetch(ctx, store, codec, "1", time.Minute, func(context.Context) (film, error) {
			return film{ID: "1"}, nil
		})
		if !errors.Is(err, boom) {
			t.Errorf("expected set error, got %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	cfg := cache.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.TTL != cache.DefaultTTL {
		t.Errorf("expected default ttl %v, got %v", cache.DefaultTTL, cfg.TTL)
	}

	store, err := cache.NewMemoryStore(cfg)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	codec := cache.NewMsgpackCodec[film]()
	if err := cache.Put(ctx, store, codec, "movies::a", film{ID: "a"}, cfg.TTL); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, outcome, _ := cache.Read(ctx, store, codec, "movies::a"); outcome != cache.OutcomeHit {
		t.Errorf("expected hit, got %s", outcome)
	}

	bad := cfg
	bad.Capacity = 0
	if _, err := cache.NewMemoryStore(bad); err == nil {
		t.Error("expected invalid config to be rejected")
	}
}
