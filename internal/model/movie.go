package model

import (
    "errors"
    "time"
)

// Kind discriminates catalog entries.  It is exposed as "type" on the wire.
type Kind string

const (
    KindMovie  Kind = "Movie"
    KindTVShow Kind = "TV Show"
)

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
    return k == KindMovie || k == KindTVShow
}

// ErrMovieNotFound is returned when no catalog entry exists for an id.
var ErrMovieNotFound = errors.New("movie not found")

// Movie represents one catalog entry (a movie or a TV show) as stored in
// the `movies` table.  Optional columns are pointers so that NULL survives
// a round trip; PosterURL holds the stored poster reference, which is
// either a local path such as /uploads/x.jpg or an absolute remote URL.
//
// Fields:
//  ID          – primary key, assigned by the database.
//  Title       – required display title.
//  Kind        – Movie or TV Show.
//  Director    – optional, up to 255 characters.
//  Budget      – optional, up to 100 characters.
//  Location    – optional, up to 255 characters.
//  Duration    – optional, up to 100 characters.
//  Year        – optional, up to 50 characters (ranges such as 2008-2013 are allowed).
//  PosterURL   – optional poster reference.
//  Description – optional free text.
//  CreatedAt   – creation timestamp, set by the database.
//  UpdatedAt   – last update timestamp, set by the database.
type Movie struct {
    ID          uint64    `json:"id"`          // movies.id
    Title       string    `json:"title"`       // movies.title
    Kind        Kind      `json:"type"`        // movies.type
    Director    *string   `json:"director"`    // movies.director
    Budget      *string   `json:"budget"`      // movies.budget
    Location    *string   `json:"location"`    // movies.location
    Duration    *string   `json:"duration"`    // movies.duration
    Year        *string   `json:"year"`        // movies.year
    PosterURL   *string   `json:"poster_url"`  // movies.poster_url
    Description *string   `json:"description"` // movies.description
    CreatedAt   time.Time `json:"createdAt"`   // movies.created_at
    UpdatedAt   time.Time `json:"updatedAt"`   // movies.updated_at
}

// Optional is a write value that may be absent from a payload.  When
// Present is true, Value is the new column value and a nil Value means an
// explicit null.
type Optional struct {
    Present bool
    Value   *string
}

// Set returns a present Optional holding s.
func Set(s string) Optional { return Optional{Present: true, Value: &s} }

// MovieInput is a sanitized write payload.  Nil Title/Kind and non-present
// optionals leave the stored column untouched on update and default on
// create.  PosterURL is never part of the validated payload; it is attached
// from the upload step.
type MovieInput struct {
    Title       *string
    Kind        *Kind
    Director    Optional
    Budget      Optional
    Location    Optional
    Duration    Optional
    Year        Optional
    Description Optional
    PosterURL   *string
}
