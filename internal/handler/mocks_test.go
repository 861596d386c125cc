package handler_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gamelog/internal/apperror"
	"github.com/sakif/gamelog/internal/auth"
	"github.com/sakif/gamelog/internal/catalog"
	"github.com/sakif/gamelog/internal/handler"
	"github.com/sakif/gamelog/internal/model"
	"github.com/sakif/gamelog/internal/service"
	"github.com/sakif/gamelog/internal/view"
)

// MockLibrary records every call so tests can assert that gated handlers
// never reached the service.
type MockLibrary struct {
	mu sync.Mutex

	SearchResult []catalog.Entry
	SearchErr    error
	Searches     []string

	Entries  map[int64]*catalog.Entry
	EntryErr error

	SaveErr      error
	Saved        []service.ReviewInput
	SavedBy      []auth.Identity
	NextReviewID int64

	Reviews map[int64]*model.ReviewDetail

	Deleted []int64

	LibraryResult []model.LibraryEntry
	LibraryErr    error
	LibraryCalls  []string
	LibraryUsers  []int64
}

func (m *MockLibrary) Search(ctx context.Context, query string) ([]catalog.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Searches = append(m.Searches, query)
	return m.SearchResult, m.SearchErr
}

func (m *MockLibrary) CatalogEntry(ctx context.Context, apiGameID int64) (*catalog.Entry, error) {
	if m.EntryErr != nil {
		return nil, m.EntryErr
	}
	e, ok := m.Entries[apiGameID]
	if !ok {
		return nil, apperror.CatalogNotFound(apiGameID)
	}
	return e, nil
}

func (m *MockLibrary) SaveReview(ctx context.Context, id auth.Identity, in service.ReviewInput) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return 0, m.SaveErr
	}
	m.Saved = append(m.Saved, in)
	m.SavedBy = append(m.SavedBy, id)
	m.NextReviewID++
	return m.NextReviewID, nil
}

func (m *MockLibrary) Review(ctx context.Context, reviewID int64) (*model.ReviewDetail, error) {
	r, ok := m.Reviews[reviewID]
	if !ok {
		return nil, apperror.NotFound("review", "x")
	}
	return r, nil
}

func (m *MockLibrary) DeleteReview(ctx context.Context, id auth.Identity, reviewID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, reviewID)
	if _, ok := m.Reviews[reviewID]; ok {
		return 1, nil
	}
	return 0, nil
}

func (m *MockLibrary) Library(ctx context.Context, userID int64, nameFilter string) ([]model.LibraryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LibraryUsers = append(m.LibraryUsers, userID)
	m.LibraryCalls = append(m.LibraryCalls, nameFilter)
	return m.LibraryResult, m.LibraryErr
}

// MockAccounts accepts exactly one credential.
type MockAccounts struct {
	Identity    auth.Identity
	Password    string
	RegisterErr error
	Registered  []string
	GitHubUsers []*auth.GitHubUser
}

func (m *MockAccounts) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	if m.RegisterErr != nil {
		return nil, m.RegisterErr
	}
	m.Registered = append(m.Registered, email)
	return &model.User{ID: 99, Email: email, Name: name}, nil
}

func (m *MockAccounts) Login(ctx context.Context, email, password string) (auth.Identity, error) {
	if email == m.Identity.Email && password == m.Password {
		return m.Identity, nil
	}
	if email == "broken@example.com" {
		return auth.Identity{}, errors.New("sql: connection refused")
	}
	return auth.Identity{}, apperror.ValidationFailed("email", "Invalid email or password.")
}

func (m *MockAccounts) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (auth.Identity, error) {
	m.GitHubUsers = append(m.GitHubUsers, gh)
	return m.Identity, nil
}

type MockGitHub struct {
	User *auth.GitHubUser
}

func (m *MockGitHub) AuthURL(state string) string {
	return "https://github.test/authorize?state=" + state
}

func (m *MockGitHub) Exchange(ctx context.Context, code string) (*auth.GitHubUser, error) {
	return m.User, nil
}

var ada = auth.Identity{UserID: 5, Name: "Ada", Email: "ada@example.com"}

type testApp struct {
	router   http.Handler
	library  *MockLibrary
	accounts *MockAccounts
	sessions *auth.SessionManager
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestApp mounts the handlers the same way the server does: public pages
// with the optional session, gated pages inside RequireSession.
func newTestApp(t *testing.T, github handler.GitHubLogin) *testApp {
	t.Helper()

	views, err := view.New()
	require.NoError(t, err)
	sessions, err := auth.NewSessionManager("test-secret-at-least-16-chars!!", time.Hour, false)
	require.NoError(t, err)

	library := &MockLibrary{Entries: map[int64]*catalog.Entry{}, Reviews: map[int64]*model.ReviewDetail{}}
	accounts := &MockAccounts{Identity: ada, Password: "secret1"}
	logger := testLogger()

	authH := handler.NewAuthHandler(accounts, sessions, github, views, logger)
	gameH := handler.NewGameHandler(library, views, logger)
	apiH := handler.NewAPIHandler(library, logger)

	r := chi.NewRouter()
	r.Get("/api/user/{userId}/library", apiH.HandleUserLibrary)
	r.Group(func(r chi.Router) {
		r.Use(auth.LoadSession(sessions))
		r.Get("/", gameH.HandleHome)
		r.Get("/login", authH.HandleLoginForm)
		r.Post("/login", authH.HandleLogin)
		r.Get("/register", authH.HandleRegisterForm)
		r.Post("/register", authH.HandleRegister)
		r.Post("/logout", authH.HandleLogout)
		r.Get("/auth/github/login", authH.HandleGitHubLogin)
		r.Get("/auth/github/callback", authH.HandleGitHubCallback)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(sessions))
		r.Get("/search", gameH.HandleSearchForm)
		r.Post("/search", gameH.HandleSearch)
		r.Get("/library", gameH.HandleLibrary)
		r.Get("/review/{apiGameId}", gameH.HandleNewReview)
		r.Post("/review", gameH.HandleSaveReview)
		r.Get("/edit-review/{reviewId}", gameH.HandleEditReview)
		r.Post("/delete-review", gameH.HandleDeleteReview)
	})

	return &testApp{router: r, library: library, accounts: accounts, sessions: sessions}
}

func (a *testApp) sessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	token, err := a.sessions.Issue(ada)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.SessionCookie, Value: token}
}
