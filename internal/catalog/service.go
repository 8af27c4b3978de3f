// Package catalog implements the catalog operations: create, list, fetch,
// update and delete entries, with poster resolution and pagination.
package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/queue"
	"github.com/iliyamo/movie-catalog/internal/upload"
)

// Repository is the storage the service depends on.
type Repository interface {
	Create(ctx context.Context, m *model.Movie) error
	FindByID(ctx context.Context, id uint64) (*model.Movie, error)
	FindPage(ctx context.Context, limit, offset int) ([]*model.Movie, int64, error)
	Update(ctx context.Context, id uint64, in model.MovieInput) (*model.Movie, error)
	Delete(ctx context.Context, id uint64) error
}

// Publisher receives a change event after every successful write.
type Publisher interface {
	Publish(ctx context.Context, ev queue.MovieEvent) error
}

// Page is the list response.
type Page struct {
	Data   []*model.Movie `json:"data"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// Options configures a Service.
type Options struct {
	BaseURL      string // public base URL for local poster paths
	PageMaxLimit int    // 0 disables the cap
	Publisher    Publisher
	Logger       *zap.Logger
}

type Service struct {
	repo     Repository
	baseURL  string
	maxLimit int
	pub      Publisher
	log      *zap.Logger
}

func NewService(repo Repository, opts Options) *Service {
	if repo == nil {
		panic("nil repository passed to catalog.NewService")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		baseURL:  opts.BaseURL,
		maxLimit: opts.PageMaxLimit,
		pub:      opts.Publisher,
		log:      log,
	}
}

// Create persists a new entry.  A stored poster is attached before the
// insert; the returned entry carries the resolved poster URL.
func (s *Service) Create(ctx context.Context, in model.MovieInput, poster *upload.Result) (*model.Movie, error) {
	ctx = context.WithoutCancel(ctx)

	m := &model.Movie{
		Director:    in.Director.Value,
		Budget:      in.Budget.Value,
		Location:    in.Location.Value,
		Duration:    in.Duration.Value,
		Year:        in.Year.Value,
		Description: in.Description.Value,
		Kind:        model.KindMovie,
	}
	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.Kind != nil {
		m.Kind = *in.Kind
	}
	m.PosterURL = in.PosterURL
	if ref := posterReference(poster); ref != "" {
		m.PosterURL = &ref
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, queue.ActionCreated, m)
	return s.resolved(m), nil
}

// List returns one page of entries, newest first.
func (s *Service) List(ctx context.Context, pageParam, limitParam string) (*Page, error) {
	ctx = context.WithoutCancel(ctx)

	w := ComputePageWindow(pageParam, limitParam, s.maxLimit)
	rows, total, err := s.repo.FindPage(ctx, w.Limit, w.Offset)
	if err != nil {
		return nil, err
	}
	data := make([]*model.Movie, 0, len(rows))
	for _, m := range rows {
		data = append(data, s.resolved(m))
	}
	return &Page{Data: data, Total: total, Limit: w.Limit, Offset: w.Offset}, nil
}

// GetByID returns one entry or model.ErrMovieNotFound.
func (s *Service) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	m, err := s.repo.FindByID(context.WithoutCancel(ctx), id)
	if err != nil {
		return nil, err
	}
	return s.resolved(m), nil
}

// Update merges in (and a newly stored poster) into an existing entry.
func (s *Service) Update(ctx context.Context, id uint64, in model.MovieInput, poster *upload.Result) (*model.Movie, error) {
	ctx = context.WithoutCancel(ctx)

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if ref := posterReference(poster); ref != "" {
		in.PosterURL = &ref
	}
	m, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.ActionUpdated, m)
	return s.resolved(m), nil
}

// Delete removes an entry permanently.
func (s *Service) Delete(ctx context.Context, id uint64) error {
	ctx = context.WithoutCancel(ctx)

	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, queue.ActionDeleted, m)
	return nil
}

// ResolvePoster applies the service's base URL to a stored reference.
func (s *Service) ResolvePoster(ref *string) string {
	if ref == nil {
		return ResolvePosterURL("", s.baseURL)
	}
	return ResolvePosterURL(*ref, s.baseURL)
}

// resolved returns a copy of m whose PosterURL is the absolute poster URL.
func (s *Service) resolved(m *model.Movie) *model.Movie {
	out := *m
	url := s.ResolvePoster(m.PosterURL)
	out.PosterURL = &url
	return &out
}

// posterReference maps an upload result to the reference stored on the entry.
func posterReference(r *upload.Result) string {
	if r == nil {
		return ""
	}
	switch r.Kind {
	case upload.Local:
		return upload.LocalPrefix + r.Name
	case upload.Remote:
		return r.URL
	}
	return ""
}

func (s *Service) publish(ctx context.Context, action string, m *model.Movie) {
	if s.pub == nil {
		return
	}
	ev := queue.MovieEvent{
		Action:     action,
		MovieID:    m.ID,
		Title:      m.Title,
		Type:       string(m.Kind),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warn("publish catalog event failed",
			zap.String("action", action), zap.Uint64("movie_id", m.ID), zap.Error(err))
	}
}
