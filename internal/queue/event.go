// Package queue defines catalog change events exchanged over RabbitMQ, the
// publisher the catalog service uses and the consumer that records them.
package queue

const (
    ActionCreated = "movie.created"
    ActionUpdated = "movie.updated"
    ActionDeleted = "movie.deleted"
)

// MovieEvent is published after a catalog entry is created, updated or
// deleted.  It carries enough for downstream consumers to log, notify or
// reindex without querying the primary database.
type MovieEvent struct {
    Action     string `json:"action"`
    MovieID    uint64 `json:"movie_id"`
    Title      string `json:"title"`
    Type       string `json:"type"`
    OccurredAt string `json:"occurred_at"`
}
