// internal/httpserver/auth.go
//
// Accounts and tokens.
//   - POST /auth/signup, /auth/login, /auth/logout; GET /auth/me, /stats/me.
//   - Tokens are HS256 JWTs carried in the auth cookie or a Bearer header.
//   - Guests get a random anon cookie so the daily challenge can tell them apart.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	errNoToken       = errors.New("no token")
	errBadToken      = errors.New("invalid token")
	errUsernameTaken = errors.New("username taken")
)

var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRE.MatchString(fl.Field().String())
	})
	return v
}

// credentials is the signup/login payload. Tags apply at signup only.
type credentials struct {
	Username string `json:"username" validate:"required,min=3,max=24,username"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// authUser is placed into the request context by the auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

func userFrom(ctx context.Context) *authUser {
	me, _ := ctx.Value(ctxUserKey{}).(*authUser)
	return me
}

// tokenClaims carries the user id as the subject.
type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (s *Server) mountAuthRoutes() {
	s.r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.With(s.requireAuth()).Get("/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, userFrom(r.Context()))
		})
	})
	s.r.With(s.requireAuth()).Get("/stats/me", s.handleStats)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decode(r, &body); err != nil {
		writeGameError(w, err)
		return
	}
	u, err := s.users.create(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, errUsernameTaken):
		writeError(w, http.StatusConflict, "username_taken")
		return
	case err != nil:
		writeGameError(w, err)
		return
	}
	if s.issueToken(w, u) {
		writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeGameError(w, errBadJSON)
		return
	}
	u, err := s.users.byName(r.Context(), body.Username)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(body.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if s.issueToken(w, u) {
		writeJSON(w, http.StatusOK, authUser{ID: u.ID, Username: u.Username})
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setCookie(w, s.cfg.CookieName, "", time.Unix(0, 0))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.byID(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          u.ID,
		"gamesPlayed": u.GamesPlayed,
		"wins":        u.Wins,
		"streak":      u.Streak,
	})
}

func (s *Server) issueToken(w http.ResponseWriter, u *userRow) bool {
	now := time.Now()
	exp := now.Add(time.Duration(s.cfg.JWTExpiresDays) * 24 * time.Hour)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.setCookie(w, s.cfg.CookieName, tok, exp)
	return true
}

// ------------------------------ middleware ---------------------------------

// withOptionalAuth attaches the caller when a valid token is present and
// never rejects the request.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if me, err := s.parseToken(r); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			me, err := s.parseToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me)))
		})
	}
}

// parseToken validates the request's JWT and checks the account still exists.
func (s *Server) parseToken(r *http.Request) (*authUser, error) {
	raw := ""
	if a := r.Header.Get("Authorization"); len(a) > 7 && strings.EqualFold(a[:7], "bearer ") {
		raw = strings.TrimSpace(a[7:])
	} else if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		raw = c.Value
	}
	if raw == "" {
		return nil, errNoToken
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || claims.Subject == "" {
		return nil, errBadToken
	}
	if _, err := s.users.byID(r.Context(), claims.Subject); err != nil {
		return nil, errBadToken
	}
	return &authUser{ID: claims.Subject, Username: claims.Username}, nil
}

// ------------------------------- cookies -----------------------------------

const anonCookieName = "numbergame_anon"

// ensureAnonID returns the caller's anon cookie, issuing one if missing.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	s.setCookie(w, anonCookieName, id, time.Now().Add(180*24*time.Hour))
	return id
}

// setCookie writes an HttpOnly cookie; a zero-epoch expiry deletes it.
func (s *Server) setCookie(w http.ResponseWriter, name, value string, exp time.Time) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	}
	if s.cfg.Production {
		c.SameSite = http.SameSiteNoneMode
	}
	if exp.Unix() <= 0 {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

// -------------------------------- users ------------------------------------

// userRow matches the users table.
type userRow struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	GamesPlayed  int
	Wins         int
	Streak       int
}

// users is the account table. Usernames are unique case-insensitively.
type users struct{ db *sql.DB }

const userColumns = `id, username, password_hash, created_at, games_played, wins, streak`

func (u *users) create(ctx context.Context, username, pw string) (*userRow, error) {
	username = strings.TrimSpace(username)
	if _, err := u.byName(ctx, username); err == nil {
		return nil, errUsernameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	row := &userRow{ID: uuid.NewString(), Username: username, PasswordHash: string(hash),
		CreatedAt: time.Now().UTC().Truncate(time.Second)}
	_, err = u.db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		row.ID, row.Username, row.PasswordHash, row.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (u *users) byName(ctx context.Context, username string) (*userRow, error) {
	return u.scan(u.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username)=lower(?)`, strings.TrimSpace(username)))
}

func (u *users) byID(ctx context.Context, id string) (*userRow, error) {
	return u.scan(u.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id))
}

func (u *users) scan(row *sql.Row) (*userRow, error) {
	var (
		r       userRow
		created string
	)
	if err := row.Scan(&r.ID, &r.Username, &r.PasswordHash, &created, &r.GamesPlayed, &r.Wins, &r.Streak); err != nil {
		return nil, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &r, nil
}

// recordGame counts a finished session; a loss resets the win streak.
func (u *users) recordGame(ctx context.Context, id string, won bool) error {
	_, err := u.db.ExecContext(ctx, `UPDATE users SET
		games_played = games_played + 1,
		wins   = wins + CASE WHEN ? THEN 1 ELSE 0 END,
		streak = CASE WHEN ? THEN streak + 1 ELSE 0 END
		WHERE id=?`, won, won, id)
	return err
}
