package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sakif/gamelog/internal/apperror"
	"github.com/sakif/gamelog/internal/catalog"
	"github.com/sakif/gamelog/internal/model"
	"github.com/sakif/gamelog/internal/repository"
)

// In-memory implementations of the repository and catalog interfaces. They
// are hand-written so each test can see exactly what storage does.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[int64]*model.User
	nextID  int64
	err     error // returned by every call when set
	created int
	// createErr is returned by CreateUser only
	createErr error
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[int64]*model.User), nextID: 1}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return apperror.Conflict("email", "E-mail already in use.")
		}
	}
	u.ID = f.nextID
	f.nextID++
	u.CreatedAt = time.Now()
	copied := *u
	f.byID[u.ID] = &copied
	f.created++
	return nil
}

func (f *fakeUserRepo) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) UserByID(ctx context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", fmt.Sprint(id))
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpsertGitHubUser(ctx context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if existing.GitHubID != nil && *existing.GitHubID == *u.GitHubID {
			*u = *existing
			return nil
		}
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			existing.GitHubID = u.GitHubID
			*u = *existing
			return nil
		}
	}
	u.ID = f.nextID
	f.nextID++
	copied := *u
	f.byID[u.ID] = &copied
	return nil
}

type fakeGameRepo struct {
	mu      sync.Mutex
	byAPIID map[int64]*model.Game
	nextID  int64
	creates int
	// beforeCreate runs inside CreateGame before the uniqueness check, to let
	// a test slip a competing row in the way a concurrent request would.
	beforeCreate func(f *fakeGameRepo, g *model.Game)
	lookupErr    error
	createErr    error
}

var _ repository.GameRepository = (*fakeGameRepo)(nil)

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{byAPIID: make(map[int64]*model.Game), nextID: 1}
}

// insertLocked stores g as if another request had won the insert.
func (f *fakeGameRepo) insertLocked(g *model.Game) {
	g.ID = f.nextID
	f.nextID++
	copied := *g
	f.byAPIID[g.APIID] = &copied
}

func (f *fakeGameRepo) GameByAPIID(ctx context.Context, apiID int64) (*model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	g, ok := f.byAPIID[apiID]
	if !ok {
		return nil, apperror.NotFound("game", fmt.Sprint(apiID))
	}
	copied := *g
	return &copied, nil
}

func (f *fakeGameRepo) CreateGame(ctx context.Context, g *model.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.beforeCreate != nil {
		f.beforeCreate(f, g)
	}
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byAPIID[g.APIID]; ok {
		return apperror.DuplicateKey("game", errors.New("UNIQUE constraint failed: games.api_id"))
	}
	f.insertLocked(g)
	return nil
}

func (f *fakeGameRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byAPIID)
}

type reviewKey struct{ userID, gameID int64 }

type fakeReviewRepo struct {
	mu      sync.Mutex
	byKey   map[reviewKey]*model.Review
	games   *fakeGameRepo
	nextID  int64
	upserts int
	err     error
}

var _ repository.ReviewRepository = (*fakeReviewRepo)(nil)

func newFakeReviewRepo(games *fakeGameRepo) *fakeReviewRepo {
	return &fakeReviewRepo{byKey: make(map[reviewKey]*model.Review), games: games, nextID: 1}
}

func (f *fakeReviewRepo) UpsertReview(ctx context.Context, r *model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserts++
	key := reviewKey{r.UserID, r.GameID}
	if existing, ok := f.byKey[key]; ok {
		existing.Rating = r.Rating
		existing.ReviewText = r.ReviewText
		existing.UpdatedAt = time.Now()
		r.ID = existing.ID
		return nil
	}
	r.ID = f.nextID
	f.nextID++
	copied := *r
	f.byKey[key] = &copied
	return nil
}

func (f *fakeReviewRepo) ReviewByID(ctx context.Context, id int64) (*model.ReviewDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.byKey {
		if r.ID == id {
			d := &model.ReviewDetail{ID: r.ID, UserID: r.UserID, GameID: r.GameID, Rating: r.Rating, ReviewText: r.ReviewText}
			if g := f.gameByID(r.GameID); g != nil {
				d.Name, d.BackgroundImage = g.Name, g.BackgroundImage
			}
			return d, nil
		}
	}
	return nil, apperror.NotFound("review", fmt.Sprint(id))
}

func (f *fakeReviewRepo) DeleteReview(ctx context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	for key, r := range f.byKey {
		if r.ID == id {
			delete(f.byKey, key)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeReviewRepo) Library(ctx context.Context, userID int64, nameFilter string) ([]model.LibraryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	entries := []model.LibraryEntry{}
	for _, r := range f.byKey {
		if r.UserID != userID {
			continue
		}
		g := f.gameByID(r.GameID)
		if g == nil || !strings.Contains(strings.ToLower(g.Name), strings.ToLower(nameFilter)) {
			continue
		}

		var sum, n float64
		for _, other := range f.byKey {
			if other.GameID == r.GameID {
				sum += float64(other.Rating)
				n++
			}
		}
		avg := sum / n
		entries = append(entries, model.LibraryEntry{
			ReviewID: r.ID, UserID: r.UserID, GameID: r.GameID, Rating: r.Rating,
			ReviewText: r.ReviewText, Name: g.Name, BackgroundImage: g.BackgroundImage,
			CommunityRating: &avg,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (f *fakeReviewRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byKey)
}

func (f *fakeReviewRepo) gameByID(id int64) *model.Game {
	if f.games == nil {
		return nil
	}
	f.games.mu.Lock()
	defer f.games.mu.Unlock()
	for _, g := range f.games.byAPIID {
		if g.ID == id {
			return g
		}
	}
	return nil
}

type fakeGateway struct {
	mu       sync.Mutex
	entries  map[int64]catalog.Entry
	searches int
	err      error
}

var _ catalog.Gateway = (*fakeGateway)(nil)

func newFakeGateway(entries ...catalog.Entry) *fakeGateway {
	f := &fakeGateway{entries: make(map[int64]catalog.Entry)}
	for _, e := range entries {
		f.entries[e.ID] = e
	}
	return f
}

func (f *fakeGateway) Search(ctx context.Context, query string) ([]catalog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.err != nil {
		return nil, f.err
	}
	out := []catalog.Entry{}
	for _, e := range f.entries {
		if strings.Contains(strings.ToLower(e.Name), strings.ToLower(query)) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeGateway) FetchByID(ctx context.Context, id int64) (*catalog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.entries[id]
	if !ok {
		return nil, apperror.CatalogNotFound(id)
	}
	return &e, nil
}
