// Package remotetest runs an in-memory notes service over httptest for tests
// of code that talks to the remote API.
package remotetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/notex/internal/client/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const sessionCookie = "notex_session"

type account struct {
	user     models.User
	password string
}

// Server is a fake notes service. The zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]*account
	notes    map[string]models.Note
	shares   map[string][]string
	nextID   int
	forced   int
	calls    []string
	now      func() time.Time
}

// New starts a server that is closed when t finishes.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts: make(map[string]*account),
		notes:    make(map[string]models.Note),
		shares:   make(map[string][]string),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Get("/seed", s.seed)
		r.Post("/auth/login", s.login)
		r.Post("/auth/signup", s.signup)
		r.Get("/auth/me", s.me)

		r.Get("/notes", s.listNotes)
		r.Post("/notes", s.createNote)
		r.Put("/notes/{id}", s.updateNote)
		r.Delete("/notes/{id}", s.deleteNote)
		r.Post("/notes/{id}/share", s.shareNote)
		r.Post("/notes/{id}/unlock", s.unlockNote)

		r.Get("/search/users", s.searchUsers)
		r.Put("/user/settings/{id}", s.updateSettings)
	})
	return r
}

// record logs each call and short-circuits when a status is forced.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		forced := s.forced
		s.mu.Unlock()

		if forced != 0 {
			writeError(w, forced, http.StatusText(forced))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ForceStatus makes every request answer with code. Zero restores normal
// behaviour.
func (s *Server) ForceStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced = code
}

// Calls returns "METHOD /path" for every request received so far.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// AddUser registers an account directly.
func (s *Server) AddUser(username, password, name string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.now()
	u := models.User{
		Id:        s.newID("u"),
		Username:  strings.ToLower(username),
		Name:      name,
		CreatedAt: &created,
	}
	s.accounts[u.Id] = &account{user: u, password: password}
	return u
}

// AddNote stores n, assigning an id and timestamps when missing.
func (s *Server) AddNote(n models.Note) models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.Id == "" {
		n.Id = s.newID("n")
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	n.Offline = false
	s.notes[n.Id] = n
	return n
}

// Notes returns every stored note ordered by id.
func (s *Server) Notes() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

// SharedWith returns the usernames note id was shared with.
func (s *Server) SharedWith(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.shares[id]...)
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

func (s *Server) byUsername(username string) *account {
	username = strings.ToLower(username)
	for _, a := range s.accounts {
		if a.user.Username == username {
			return a
		}
	}
	return nil
}

func (s *Server) sessionUser(r *http.Request) *account {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	return s.accounts[c.Value]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func startSession(w http.ResponseWriter, a *account) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: a.user.Id, Path: "/", HttpOnly: true})
}

func (s *Server) seed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Admin already exists"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.byUsername(creds.Username)
	if a == nil || a.password != creds.Password {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	startSession(w, a)
	writeJSON(w, http.StatusOK, map[string]any{"user": a.user})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if creds.Username == "" || creds.Password == "" || creds.Name == "" {
		writeError(w, http.StatusBadRequest, "Name, username and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byUsername(creds.Username) != nil {
		writeError(w, http.StatusBadRequest, "Username already exists")
		return
	}
	created := s.now()
	a := &account{
		user: models.User{
			Id:             s.newID("u"),
			Username:       strings.ToLower(creds.Username),
			Name:           creds.Name,
			ProfilePicture: creds.Image,
			CreatedAt:      &created,
		},
		password: creds.Password,
	}
	s.accounts[a.user.Id] = a
	startSession(w, a)
	writeJSON(w, http.StatusCreated, map[string]any{"user": a.user})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.sessionUser(r)
	if a == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": a.user})
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	author := r.URL.Query().Get("authorId")
	if author == "" {
		writeError(w, http.StatusBadRequest, "Author ID is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]models.Note, 0)
	for _, n := range s.notes {
		if n.AuthorID == author {
			list = append(list, n)
		}
	}
	models.SortNotes(list)
	writeJSON(w, http.StatusOK, map[string]any{"notes": list})
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var d models.NoteDraft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if d.AuthorID == "" {
		writeError(w, http.StatusBadRequest, "Author ID is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := models.Note{
		Id:        s.newID("n"),
		Title:     d.Title,
		Content:   d.Content,
		AuthorID:  d.AuthorID,
		IsLocked:  d.IsLocked,
		Password:  d.Password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if d.CreatedAt != nil {
		n.CreatedAt = *d.CreatedAt
	}
	s.notes[n.Id] = n
	writeJSON(w, http.StatusCreated, map[string]any{"note": n})
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p models.NotePatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	n.Apply(p)
	n.UpdatedAt = s.now()
	s.notes[id] = n
	writeJSON(w, http.StatusOK, map[string]any{"note": n})
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	delete(s.notes, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted"})
}

func (s *Server) shareNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	target := s.byUsername(body.Username)
	if target == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	s.shares[id] = append(s.shares[id], target.user.Username)
	writeJSON(w, http.StatusCreated, map[string]any{
		"sharedNote": map[string]string{"noteId": id, "userId": target.user.Id},
	})
}

func (s *Server) unlockNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	if n.IsLocked && n.Password != body.Password {
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"unlocked": true})
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	current := r.URL.Query().Get("currentUserId")

	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]models.UserSummary, 0)
	if q != "" {
		for _, a := range s.accounts {
			if a.user.Id == current {
				continue
			}
			if strings.Contains(a.user.Username, q) || strings.Contains(strings.ToLower(a.user.Name), q) {
				users = append(users, models.UserSummary{
					Id:             a.user.Id,
					Name:           a.user.Name,
					Username:       a.user.Username,
					ProfilePicture: a.user.ProfilePicture,
				})
			}
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p models.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if p.Username != nil {
		if other := s.byUsername(*p.Username); other != nil && other.user.Id != id {
			writeError(w, http.StatusBadRequest, "Username already taken")
			return
		}
	}
	a.user.Apply(p)
	if p.NewPassword != nil && *p.NewPassword != "" {
		a.password = *p.NewPassword
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": a.user})
}
