package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/queue"
	"github.com/iliyamo/movie-catalog/internal/upload"
)

// memRepo is an in-memory Repository keyed by id.
type memRepo struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.Movie
	clock  time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[uint64]*model.Movie{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *memRepo) Create(_ context.Context, m *model.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.clock = r.clock.Add(time.Second)
	m.ID = r.nextID
	m.CreatedAt, m.UpdatedAt = r.clock, r.clock
	cp := *m
	r.rows[m.ID] = &cp
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id uint64) (*model.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return nil, model.ErrMovieNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memRepo) FindPage(_ context.Context, limit, offset int) ([]*model.Movie, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*model.Movie, 0, len(r.rows))
	for _, m := range r.rows {
		cp := *m
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memRepo) Update(_ context.Context, id uint64, in model.MovieInput) (*model.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return nil, model.ErrMovieNotFound
	}
	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.Kind != nil {
		m.Kind = *in.Kind
	}
	for _, f := range []struct {
		opt model.Optional
		dst **string
	}{
		{in.Director, &m.Director}, {in.Budget, &m.Budget}, {in.Location, &m.Location},
		{in.Duration, &m.Duration}, {in.Year, &m.Year}, {in.Description, &m.Description},
	} {
		if f.opt.Present {
			*f.dst = f.opt.Value
		}
	}
	if in.PosterURL != nil {
		m.PosterURL = in.PosterURL
	}
	r.clock = r.clock.Add(time.Second)
	m.UpdatedAt = r.clock
	cp := *m
	return &cp, nil
}

func (r *memRepo) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return model.ErrMovieNotFound
	}
	delete(r.rows, id)
	return nil
}

type recordingPublisher struct {
	events []queue.MovieEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.MovieEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func input(title string, kind model.Kind) model.MovieInput {
	return model.MovieInput{Title: &title, Kind: &kind}
}

func TestServiceCreateAndGet(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewService(newMemRepo(), Options{BaseURL: "http://x", Publisher: pub})

	in := input("Inception", model.KindMovie)
	in.Director = model.Set("Christopher Nolan")
	in.Year = model.Set("2010")
	created, err := svc.Create(ctx, in, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://x/uploads/default-placeholder.jpg", *created.PosterURL)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, "Christopher Nolan", *got.Director)
	assert.Nil(t, got.Budget)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.ActionCreated, pub.events[0].Action)
	assert.Equal(t, created.ID, pub.events[0].MovieID)
	assert.Equal(t, "Movie", pub.events[0].Type)
}

func TestServiceCreatePosterKinds(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo, Options{BaseURL: "http://x/"})

	local := upload.LocalResult("1-abc.png")
	m, err := svc.Create(ctx, input("Local", model.KindMovie), &local)
	require.NoError(t, err)
	assert.Equal(t, "http://x/uploads/1-abc.png", *m.PosterURL)
	stored, _ := repo.FindByID(ctx, m.ID)
	assert.Equal(t, "/uploads/1-abc.png", *stored.PosterURL, "the stored reference stays relative")

	remote := upload.RemoteResult("https://storage.googleapis.com/b/posters/x.jpg")
	m, err = svc.Create(ctx, input("Remote", model.KindTVShow), &remote)
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/b/posters/x.jpg", *m.PosterURL)
}

func TestServiceCreateDefaultsKind(t *testing.T) {
	title := "No type"
	m, err := NewService(newMemRepo(), Options{}).Create(context.Background(), model.MovieInput{Title: &title}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.KindMovie, m.Kind)
}

func TestServiceList(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo(), Options{BaseURL: "http://x", PageMaxLimit: 100})
	for i := 1; i <= 25; i++ {
		_, err := svc.Create(ctx, input(fmt.Sprintf("m%02d", i), model.KindMovie), nil)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, "2", "10")
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 10, page.Offset)
	require.Len(t, page.Data, 10)
	assert.Equal(t, "m15", page.Data[0].Title)
	assert.Equal(t, "m06", page.Data[9].Title)
	for _, m := range page.Data {
		assert.Equal(t, "http://x/uploads/default-placeholder.jpg", *m.PosterURL)
	}

	page, err = svc.List(ctx, "", "1000")
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)
	assert.Len(t, page.Data, 25)

	page, err = svc.List(ctx, "9", "10")
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewService(newMemRepo(), Options{BaseURL: "http://x", Publisher: pub})

	in := input("Breaking Bad", model.KindTVShow)
	in.Director = model.Set("Vince Gilligan")
	created, err := svc.Create(ctx, in, nil)
	require.NoError(t, err)

	upd := input("Breaking Bad", model.KindTVShow)
	upd.Year = model.Set("2008-2013")
	poster := upload.LocalResult("bb.jpg")
	got, err := svc.Update(ctx, created.ID, upd, &poster)
	require.NoError(t, err)
	assert.Equal(t, "Vince Gilligan", *got.Director)
	assert.Equal(t, "2008-2013", *got.Year)
	assert.Equal(t, "http://x/uploads/bb.jpg", *got.PosterURL)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)

	require.Len(t, pub.events, 2)
	assert.Equal(t, queue.ActionUpdated, pub.events[1].Action)
}

func TestServiceUpdateNotFound(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(newMemRepo(), Options{Publisher: pub})
	_, err := svc.Update(context.Background(), 42, input("x", model.KindMovie), nil)
	assert.ErrorIs(t, err, model.ErrMovieNotFound)
	assert.Empty(t, pub.events)
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewService(newMemRepo(), Options{Publisher: pub})

	assert.ErrorIs(t, svc.Delete(ctx, 1), model.ErrMovieNotFound)

	m, err := svc.Create(ctx, input("Gone", model.KindMovie), nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, m.ID))
	_, err = svc.GetByID(ctx, m.ID)
	assert.ErrorIs(t, err, model.ErrMovieNotFound)

	require.Len(t, pub.events, 2)
	assert.Equal(t, queue.ActionDeleted, pub.events[1].Action)
	assert.Equal(t, "Gone", pub.events[1].Title)
}

func TestServicePublishFailureDoesNotFailWrite(t *testing.T) {
	svc := NewService(newMemRepo(), Options{Publisher: &recordingPublisher{err: errors.New("broker down")}})
	_, err := svc.Create(context.Background(), input("x", model.KindMovie), nil)
	assert.NoError(t, err)
}

func TestServiceIgnoresCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := &ctxCheckingRepo{memRepo: newMemRepo()}
	_, err := NewService(repo, Options{}).Create(ctx, input("x", model.KindMovie), nil)
	assert.NoError(t, err)
}

// ctxCheckingRepo fails writes whose context is already done.
type ctxCheckingRepo struct{ *memRepo }

func (r *ctxCheckingRepo) Create(ctx context.Context, m *model.Movie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.memRepo.Create(ctx, m)
}
