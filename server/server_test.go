package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"warbler/auth"
	"warbler/confs"
	"warbler/db"
	"warbler/entities"

	"gorm.io/gorm"
)

const (
	testUserID         = 4321
	unauthorizedUserID = 76543
	testMessageID      = 1234
)

type testApp struct {
	server *Server
	http   *httptest.Server
	db     *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gdb, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "warbler-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := confs.Config{
		SecretKey:     "test-secret",
		Port:          "0",
		LogLevel:      "error",
		GinMode:       "test",
		TokenValidity: time.Hour,
	}
	srv, err := NewServer(cfg, &db.GormDatabase{DB: gdb})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv.feed.Start(ctx)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	app := &testApp{server: srv, http: hs, db: gdb}
	app.createUser(t, testUserID, "testuser")
	return app
}

func (a *testApp) createUser(t *testing.T, id uint, name string) *entities.User {
	t.Helper()
	user, err := entities.Signup(name, name+"@test.com", "password", "")
	if err != nil {
		t.Fatal(err)
	}
	user.ID = id
	if err := a.db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func (a *testApp) createMessage(t *testing.T, id, userID uint, text string) {
	t.Helper()
	msg := &entities.Message{ID: id, Text: text, UserID: userID}
	if err := a.db.Omit("User").Create(msg).Error; err != nil {
		t.Fatalf("create message: %v", err)
	}
}

func (a *testApp) messageCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := a.db.Model(&entities.Message{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

// client returns a cookie-keeping client. With userID set, the jar already
// holds a session cookie naming that user.
func (a *testApp) client(t *testing.T, userID any, followRedirects bool) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	c := &http.Client{Jar: jar}
	if !followRedirects {
		c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	}
	if userID != nil {
		u, _ := url.Parse(a.http.URL)
		jar.SetCookies(u, []*http.Cookie{a.sessionCookie(t, userID)})
	}
	return c
}

func (a *testApp) sessionCookie(t *testing.T, userID any) *http.Cookie {
	t.Helper()
	store := a.server.Sessions().Store()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	sess, _ := store.New(req, auth.SessionName)
	sess.Values[auth.CurrUserKey] = userID
	if err := sess.Save(req, rec); err != nil {
		t.Fatalf("save session: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie written")
	}
	return cookies[0]
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func (a *testApp) postForm(t *testing.T, c *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(a.http.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) *http.Response {
	t.Helper()
	resp, err := c.Get(a.http.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func TestAddMessage(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, uint(testUserID), false)

	resp := app.postForm(t, c, "/messages/new", url.Values{"text": {"Hello"}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/users/4321" {
		t.Errorf("Location = %q", loc)
	}

	var msg entities.Message
	if err := app.db.First(&msg).Error; err != nil {
		t.Fatalf("load message: %v", err)
	}
	if msg.Text != "Hello" || msg.UserID != testUserID {
		t.Errorf("message = %+v", msg)
	}
}

func TestAddMessageValidation(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, uint(testUserID), true)

	resp := app.postForm(t, c, "/messages/new", url.Values{"text": {strings.Repeat("x", 141)}})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "between 1 and 140") {
		t.Fatalf("status = %d body = %s", resp.StatusCode, body)
	}
	if n := app.messageCount(t); n != 0 {
		t.Errorf("messages = %d, want 0", n)
	}
}

func TestAddMessageNoSession(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, nil, true)

	resp := app.postForm(t, c, "/messages/new", url.Values{"text": {"Hello"}})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Access unauthorized") {
		t.Error("missing unauthorized flash")
	}
	if n := app.messageCount(t); n != 0 {
		t.Errorf("messages = %d, want 0", n)
	}
}

func TestAddMessageInvalidUser(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, uint(99222224), true)

	resp := app.postForm(t, c, "/messages/new", url.Values{"text": {"Hello"}})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Access unauthorized") {
		t.Fatalf("status = %d, flash present = %v", resp.StatusCode, strings.Contains(body, "Access unauthorized"))
	}
	if n := app.messageCount(t); n != 0 {
		t.Errorf("messages = %d, want 0", n)
	}
}

func TestNonIntegerSessionValueIsAnonymous(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, "not-a-number", true)

	resp := app.postForm(t, c, "/messages/new", url.Values{"text": {"Hello"}})
	body := readBody(t, resp)
	if !strings.Contains(body, "Access unauthorized") {
		t.Error("missing unauthorized flash")
	}
	if n := app.messageCount(t); n != 0 {
		t.Errorf("messages = %d, want 0", n)
	}
}

func TestMessageShow(t *testing.T) {
	app := newTestApp(t)
	app.createMessage(t, testMessageID, testUserID, "a test message")
	c := app.client(t, uint(testUserID), true)

	resp := app.get(t, c, "/messages/1234")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "a test message") {
		t.Error("message text not rendered")
	}
}

func TestInvalidMessageShow(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, uint(testUserID), true)

	for _, path := range []string{"/messages/99999999", "/messages/abc"} {
		resp := app.get(t, c, path)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestMessageDelete(t *testing.T) {
	app := newTestApp(t)
	app.createMessage(t, testMessageID, testUserID, "a test message")
	c := app.client(t, uint(testUserID), true)

	resp := app.postForm(t, c, "/messages/1234/delete", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Request.URL.Path != "/users/4321" {
		t.Errorf("landed on %s", resp.Request.URL.Path)
	}
	if err := app.db.First(&entities.Message{}, testMessageID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("message still present (err %v)", err)
	}
}

func TestUnauthorizedMessageDelete(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, unauthorizedUserID, "unauthorized-user")
	app.createMessage(t, testMessageID, testUserID, "a test message")
	c := app.client(t, uint(unauthorizedUserID), true)

	resp := app.postForm(t, c, "/messages/1234/delete", nil)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Access unauthorized") {
		t.Fatalf("status = %d, flash present = %v", resp.StatusCode, strings.Contains(body, "Access unauthorized"))
	}
	if err := app.db.First(&entities.Message{}, testMessageID).Error; err != nil {
		t.Errorf("message should remain: %v", err)
	}
}

func TestMessageDeleteNoAuthentication(t *testing.T) {
	app := newTestApp(t)
	app.createMessage(t, testMessageID, testUserID, "a test message")
	c := app.client(t, nil, true)

	resp := app.postForm(t, c, "/messages/1234/delete", nil)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Access unauthorized") {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if err := app.db.First(&entities.Message{}, testMessageID).Error; err != nil {
		t.Errorf("message should remain: %v", err)
	}
}

func TestInvalidMessageDelete(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, uint(testUserID), true)

	resp := app.postForm(t, c, "/messages/99999999/delete", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSignupLoginLogout(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, nil, true)

	resp := app.postForm(t, c, "/signup", url.Values{
		"username": {"newbie"},
		"email":    {"newbie@test.com"},
		"password": {"secret1"},
	})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "@newbie") {
		t.Fatalf("after signup status = %d, body lacks user", resp.StatusCode)
	}

	resp = app.get(t, c, "/logout")
	body = readBody(t, resp)
	if !strings.Contains(body, "You have successfully logged out.") {
		t.Error("missing logout flash")
	}

	resp = app.postForm(t, c, "/login", url.Values{"username": {"newbie"}, "password": {"wrong-password"}})
	body = readBody(t, resp)
	if !strings.Contains(body, "Invalid credentials.") {
		t.Error("missing invalid credentials flash")
	}

	resp = app.postForm(t, c, "/login", url.Values{"username": {"newbie"}, "password": {"secret1"}})
	body = readBody(t, resp)
	if !strings.Contains(body, "Hello, newbie!") {
		t.Error("missing welcome flash")
	}
}

func TestSignupRejectsDuplicatesAndShortPasswords(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, nil, true)

	resp := app.postForm(t, c, "/signup", url.Values{
		"username": {"testuser"},
		"email":    {"other@test.com"},
		"password": {"password"},
	})
	body := readBody(t, resp)
	if !strings.Contains(body, "Username or email already taken") {
		t.Error("missing duplicate flash")
	}

	resp = app.postForm(t, c, "/signup", url.Values{
		"username": {"shorty"},
		"email":    {"shorty@test.com"},
		"password": {"abc"},
	})
	body = readBody(t, resp)
	if !strings.Contains(body, "at least 6 characters") {
		t.Error("missing password length error")
	}

	var n int64
	app.db.Model(&entities.User{}).Count(&n)
	if n != 1 {
		t.Errorf("users = %d, want 1", n)
	}
}

func TestSignupRejectsOverlongPasswords(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, nil, true)

	// 80 ASCII bytes fail the form rule; 40 two-byte runes pass it but are
	// still past the bcrypt limit.
	tests := []struct {
		name     string
		password string
		want     string
	}{
		{"ascii", strings.Repeat("p", 80), "at most 72 characters"},
		{"multibyte", strings.Repeat("é", 40), "at most 72 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := app.postForm(t, c, "/signup", url.Values{
				"username": {"long-" + tt.name},
				"email":    {"long-" + tt.name + "@test.com"},
				"password": {tt.password},
			})
			body := readBody(t, resp)
			if resp.StatusCode != http.StatusOK || !strings.Contains(body, tt.want) {
				t.Fatalf("status = %d, want 200 with %q", resp.StatusCode, tt.want)
			}

			apiResp, out := app.apiCall(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
				"username": "api-" + tt.name,
				"email":    "api-" + tt.name + "@test.com",
				"password": tt.password,
			})
			if apiResp.StatusCode != http.StatusBadRequest {
				t.Fatalf("api status = %d (%v), want 400", apiResp.StatusCode, out)
			}
		})
	}

	var n int64
	app.db.Model(&entities.User{}).Count(&n)
	if n != 1 {
		t.Errorf("users = %d, want 1", n)
	}
}

func TestFollowAndLikeViews(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, unauthorizedUserID, "other")
	app.createMessage(t, testMessageID, unauthorizedUserID, "follow me")
	c := app.client(t, uint(testUserID), true)

	resp := app.postForm(t, c, "/users/follow/76543", nil)
	body := readBody(t, resp)
	if resp.Request.URL.Path != "/users/4321/following" || !strings.Contains(body, "@other") {
		t.Fatalf("follow landed on %s", resp.Request.URL.Path)
	}

	resp = app.get(t, c, "/")
	body = readBody(t, resp)
	if !strings.Contains(body, "follow me") {
		t.Error("timeline misses followed user's message")
	}

	req, _ := http.NewRequest(http.MethodPost, app.http.URL+"/users/add_like/1234", nil)
	req.Header.Set("Referer", app.http.URL+"/messages/1234")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body = readBody(t, resp)
	if resp.Request.URL.Path != "/messages/1234" || !strings.Contains(body, "Unlike") {
		t.Errorf("like landed on %s", resp.Request.URL.Path)
	}

	var likes int64
	app.db.Model(&entities.Like{}).Count(&likes)
	if likes != 1 {
		t.Errorf("likes = %d, want 1", likes)
	}

	// a protocol-relative referer path must not send the browser off-site
	noFollow := app.client(t, uint(testUserID), false)
	req, _ = http.NewRequest(http.MethodPost, app.http.URL+"/users/add_like/1234", nil)
	req.Header.Set("Referer", app.http.URL+"//evil.example/phish")
	resp, err = noFollow.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); resp.StatusCode != http.StatusFound || loc != "/" {
		t.Errorf("unlike redirect = %d %q, want 302 /", resp.StatusCode, loc)
	}

	resp = app.postForm(t, c, "/users/follow/4321", nil)
	body = readBody(t, resp)
	if !strings.Contains(body, "You cannot follow yourself.") {
		t.Error("missing self-follow flash")
	}
}

func TestEditProfileWrongPassword(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, uint(testUserID), true)

	resp := app.postForm(t, c, "/users/profile", url.Values{
		"username": {"renamed"},
		"email":    {"testuser@test.com"},
		"password": {"not-it"},
	})
	body := readBody(t, resp)
	if !strings.Contains(body, "Wrong password, please try again.") {
		t.Error("missing wrong password flash")
	}
	var user entities.User
	app.db.First(&user, testUserID)
	if user.Username != "testuser" {
		t.Errorf("username changed to %q", user.Username)
	}

	resp = app.postForm(t, c, "/users/profile", url.Values{
		"username": {"renamed"},
		"email":    {"testuser@test.com"},
		"bio":      {"hi there"},
		"password": {"password"},
	})
	resp.Body.Close()
	app.db.First(&user, testUserID)
	if user.Username != "renamed" || user.Bio != "hi there" {
		t.Errorf("profile not updated: %+v", user)
	}
}

func TestDeleteAccount(t *testing.T) {
	app := newTestApp(t)
	app.createMessage(t, testMessageID, testUserID, "bye")
	c := app.client(t, uint(testUserID), true)

	resp := app.postForm(t, c, "/users/delete", nil)
	resp.Body.Close()
	if resp.Request.URL.Path != "/signup" {
		t.Errorf("landed on %s", resp.Request.URL.Path)
	}
	if n := app.messageCount(t); n != 0 {
		t.Errorf("messages = %d, want 0", n)
	}
	var users int64
	app.db.Model(&entities.User{}).Count(&users)
	if users != 0 {
		t.Errorf("users = %d, want 0", users)
	}
}

func TestUnknownRouteAndUser(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, nil, true)
	for _, path := range []string{"/nowhere", "/users/999"} {
		resp := app.get(t, c, path)
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusNotFound || !strings.Contains(body, "404") {
			t.Errorf("GET %s status = %d", path, resp.StatusCode)
		}
	}
}
