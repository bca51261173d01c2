package auth

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
)

const (
	SessionName = "warbler_session"
	CurrUserKey = "curr_user"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// Sessions wraps the cookie store holding the current user id and flashes.
type Sessions struct {
	store sessions.Store
}

func NewSessions(secret string) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

func (s *Sessions) Store() sessions.Store { return s.store }

// session returns the request's session. A cookie that fails to decode yields
// a fresh session instead of an error.
func (s *Sessions) session(r *http.Request) *sessions.Session {
	sess, err := s.store.Get(r, SessionName)
	if err != nil {
		logrus.WithError(err).Debug("discarding undecodable session cookie")
	}
	return sess
}

func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, userID uint) error {
	sess := s.session(r)
	sess.Values[CurrUserKey] = userID
	return sess.Save(r, w)
}

func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	sess := s.session(r)
	delete(sess.Values, CurrUserKey)
	return sess.Save(r, w)
}

// UserID returns the id stored under CurrUserKey, if it is a usable integer.
func (s *Sessions) UserID(r *http.Request) (uint, bool) {
	switch v := s.session(r).Values[CurrUserKey].(type) {
	case uint:
		return v, true
	case int:
		if v > 0 {
			return uint(v), true
		}
	case int64:
		if v > 0 {
			return uint(v), true
		}
	}
	return 0, false
}

func (s *Sessions) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) error {
	sess := s.session(r)
	sess.AddFlash(Flash{Category: category, Message: message})
	return sess.Save(r, w)
}

// Flashes pops pending flashes. It must run before the response body is written.
func (s *Sessions) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess := s.session(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		logrus.WithError(err).Warn("could not save session after reading flashes")
	}
	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	return flashes
}
