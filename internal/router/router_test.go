package router

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/db/dbtest"
	"yatube/internal/repository"
	"yatube/internal/services"
	"yatube/internal/web"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type app struct {
	t      *testing.T
	engine *gin.Engine
	deps   Deps
}

func newApp(t *testing.T) *app {
	t.Helper()
	cfg := &config.Config{
		Session:   config.SessionConfig{Name: "yatube_session", Secret: "test-secret"},
		Media:     config.MediaConfig{Root: t.TempDir(), MaxUploadMB: 2},
		RateLimit: config.RateLimitConfig{},
	}

	repos := repository.New(dbtest.New(t))
	media := services.NewMediaStore(cfg.Media.Root, cfg.Media.MaxUploadMB)
	store, err := cache.NewMemoryStore(16)
	require.NoError(t, err)
	tmpl, err := web.Load()
	require.NoError(t, err)

	deps := Deps{
		Config:    cfg,
		Posts:     services.NewPostService(repos, media),
		Comments:  services.NewCommentService(repos),
		Follows:   services.NewFollowService(repos),
		Groups:    services.NewGroupService(repos),
		Auth:      services.NewAuthService(repos),
		Listing:   cache.NewListingCache(store, 20*time.Second),
		Templates: tmpl,
	}
	return &app{t: t, engine: New(deps), deps: deps}
}

// client keeps the session cookie between requests like a browser would.
type client struct {
	app     *app
	cookies map[string]*http.Cookie
}

func (a *app) client() *client {
	return &client{app: a, cookies: map[string]*http.Cookie{}}
}

func (c *client) send(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.app.engine.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(target string) *httptest.ResponseRecorder {
	return c.send(httptest.NewRequest(http.MethodGet, target, nil))
}

func (c *client) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req)
}

func (c *client) signup(username string) {
	c.app.t.Helper()
	w := c.post("/auth/signup/", url.Values{
		"username":  {username},
		"password1": {"password123"},
		"password2": {"password123"},
	})
	require.Equal(c.app.t, http.StatusFound, w.Code, w.Body.String())
}

func (c *client) login(username string) *httptest.ResponseRecorder {
	return c.post("/auth/login/", url.Values{"username": {username}, "password": {"password123"}})
}

func (c *client) createPost(text string) {
	c.app.t.Helper()
	w := c.post("/create/", url.Values{"text": {text}})
	require.Equal(c.app.t, http.StatusFound, w.Code, w.Body.String())
}

func (a *app) latestPostID() uint {
	a.t.Helper()
	page, err := a.deps.Posts.ListAll(context.Background(), "")
	require.NoError(a.t, err)
	require.NotEmpty(a.t, page.Items)
	return page.Items[0].ID
}

func TestGuestIsSentToLogin(t *testing.T) {
	a := newApp(t)
	alice := a.client()
	alice.signup("alice")
	alice.createPost("Hello")
	id := a.latestPostID()

	guest := a.client()
	cases := map[string]string{
		"/create/":                         "/auth/login/?next=/create/",
		"/follow/":                         "/auth/login/?next=/follow/",
		fmt.Sprintf("/posts/%d/edit/", id): fmt.Sprintf("/auth/login/?next=/posts/%d/edit/", id),
		"/profile/alice/follow/":           "/auth/login/?next=/profile/alice/follow/",
	}
	for target, want := range cases {
		w := guest.get(target)
		assert.Equal(t, http.StatusFound, w.Code, target)
		assert.Equal(t, want, w.Header().Get("Location"), target)
	}

	w := guest.post(fmt.Sprintf("/posts/%d/comment/", id), url.Values{"text": {"hi"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/auth/login/")
}

func TestPublicPagesRender(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.deps.Groups.SeedDefaults(context.Background(), services.DefaultGroups))
	alice := a.client()
	alice.signup("alice")
	alice.createPost("Hello")

	guest := a.client()
	for _, target := range []string{"/", "/groups/", "/group/tech/", "/profile/alice/", "/auth/login/", "/auth/signup/"} {
		w := guest.get(target)
		assert.Equal(t, http.StatusOK, w.Code, target)
	}
}

func TestAliceHelloNice(t *testing.T) {
	a := newApp(t)
	alice := a.client()
	alice.signup("alice")

	w := alice.post("/create/", url.Values{"text": {"Hello"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/alice/", w.Header().Get("Location"))

	w = alice.get("/profile/alice/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hello")

	id := a.latestPostID()
	detail := fmt.Sprintf("/posts/%d/", id)

	w = alice.post(detail+"comment/", url.Values{"text": {"Nice!"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detail, w.Header().Get("Location"))

	w = a.client().get(detail)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Hello")
	assert.Contains(t, body, "Nice!")
}

func TestEmptyPostRerendersForm(t *testing.T) {
	a := newApp(t)
	alice := a.client()
	alice.signup("alice")

	w := alice.post("/create/", url.Values{"text": {"   "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")

	page, err := a.deps.Posts.ListAll(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, page.Count)
}

func TestEmptyCommentRerendersDetail(t *testing.T) {
	a := newApp(t)
	alice := a.client()
	alice.signup("alice")
	alice.createPost("Hello")
	id := a.latestPostID()

	w := alice.post(fmt.Sprintf("/posts/%d/comment/", id), url.Values{"text": {""}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")
}

func TestNonAuthorEditDoesNotChangePost(t *testing.T) {
	a := newApp(t)
	alice, bob := a.client(), a.client()
	alice.signup("alice")
	bob.signup("bob")
	alice.createPost("Hello")
	id := a.latestPostID()
	edit := fmt.Sprintf("/posts/%d/edit/", id)

	w := bob.post(edit, url.Values{"text": {"hijacked"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next="+edit, w.Header().Get("Location"))

	w = bob.get(edit)
	assert.Equal(t, http.StatusFound, w.Code)

	post, err := a.deps.Posts.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Hello", post.Text)

	w = alice.get(edit)
	assert.Equal(t, http.StatusOK, w.Code)
	w = alice.post(edit, url.Values{"text": {"Hello, edited"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", id), w.Header().Get("Location"))

	post, err = a.deps.Posts.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Hello, edited", post.Text)
}

func TestAuthorDeletesPost(t *testing.T) {
	a := newApp(t)
	alice, bob := a.client(), a.client()
	alice.signup("alice")
	bob.signup("bob")
	alice.createPost("Hello")
	id := a.latestPostID()
	target := fmt.Sprintf("/posts/%d/delete/", id)

	w := bob.post(target, url.Values{})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/auth/login/")

	w = alice.post(target, url.Values{})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/alice/", w.Header().Get("Location"))

	w = alice.get(fmt.Sprintf("/posts/%d/", id))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIndexCacheIsStaleUntilCleared(t *testing.T) {
	a := newApp(t)
	_, err := a.deps.Auth.CreateStaff(context.Background(), services.SignupInput{Username: "admin", Password: "password123"})
	require.NoError(t, err)
	admin := a.client()
	require.Equal(t, http.StatusFound, admin.login("admin").Code)

	alice := a.client()
	alice.signup("alice")
	alice.createPost("first post")

	w := alice.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "first post")

	alice.createPost("second post")

	w = a.client().get("/")
	assert.NotContains(t, w.Body.String(), "second post", "home page is served from cache")

	w = a.client().get("/?page=1")
	assert.Contains(t, w.Body.String(), "second post", "explicit pages bypass the cache")

	w = alice.post("/admin/cache/clear/", url.Values{})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/auth/login/")
	assert.NotContains(t, a.client().get("/").Body.String(), "second post")

	w = admin.post("/admin/cache/clear/", url.Values{})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = a.client().get("/")
	assert.Contains(t, w.Body.String(), "second post")
}

func TestCachedHomeStillShowsViewer(t *testing.T) {
	a := newApp(t)
	alice := a.client()
	alice.signup("alice")

	a.client().get("/")
	w := alice.get("/")
	assert.Contains(t, w.Body.String(), `href="/profile/alice/"`)
}

func TestFollowFlow(t *testing.T) {
	a := newApp(t)
	alice, bob, carol := a.client(), a.client(), a.client()
	alice.signup("alice")
	bob.signup("bob")
	carol.signup("carol")
	alice.createPost("alice writes")

	w := bob.get("/profile/alice/follow/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/alice/", w.Header().Get("Location"))
	bob.get("/profile/alice/follow/")

	assert.Contains(t, bob.get("/follow/").Body.String(), "alice writes")
	assert.NotContains(t, carol.get("/follow/").Body.String(), "alice writes")
	assert.Contains(t, bob.get("/profile/alice/").Body.String(), "Unfollow")

	w = bob.get("/profile/alice/unfollow/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.NotContains(t, bob.get("/follow/").Body.String(), "alice writes")

	w = alice.get("/profile/alice/follow/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/alice/", w.Header().Get("Location"))
	assert.NotContains(t, alice.get("/follow/").Body.String(), "alice writes")

	assert.Equal(t, http.StatusNotFound, bob.get("/profile/ghost/follow/").Code)
}

func TestNotFoundPages(t *testing.T) {
	a := newApp(t)
	guest := a.client()
	for _, target := range []string{"/group/nope/", "/profile/ghost/", "/posts/999/", "/posts/abc/", "/no/such/page/"} {
		w := guest.get(target)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.Contains(t, w.Body.String(), "Page not found", target)
	}
}

func TestPagination(t *testing.T) {
	a := newApp(t)
	alice := a.client()
	alice.signup("alice")
	for i := 0; i < 13; i++ {
		alice.createPost(fmt.Sprintf("post number %d", i))
	}

	count := func(body string) int { return strings.Count(body, `<article class="post">`) }

	assert.Equal(t, 10, count(alice.get("/profile/alice/").Body.String()))
	assert.Equal(t, 3, count(alice.get("/profile/alice/?page=2").Body.String()))
	assert.Equal(t, 10, count(alice.get("/profile/alice/?page=abc").Body.String()))
	assert.Equal(t, 3, count(alice.get("/?page=99").Body.String()))
}

func TestLoginHonoursNext(t *testing.T) {
	a := newApp(t)
	a.client().signup("alice")

	c := a.client()
	w := c.post("/auth/login/", url.Values{"username": {"alice"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.post("/auth/login/", url.Values{"username": {"alice"}, "password": {"password123"}, "next": {"/follow/"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/follow/", w.Header().Get("Location"))
	assert.Equal(t, http.StatusOK, c.get("/follow/").Code)

	w = c.post("/auth/login/", url.Values{"username": {"alice"}, "password": {"password123"}, "next": {"//evil.example"}})
	assert.Equal(t, "/", w.Header().Get("Location"))

	c.get("/auth/logout/")
	assert.Equal(t, http.StatusFound, c.get("/follow/").Code)
}

func (c *client) postImage(text, filename string, content []byte) *httptest.ResponseRecorder {
	c.app.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(c.app.t, mw.WriteField("text", text))
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(c.app.t, err)
	_, err = io.Copy(part, bytes.NewReader(content))
	require.NoError(c.app.t, err)
	require.NoError(c.app.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/create/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req)
}

func TestImageUploadIsServed(t *testing.T) {
	a := newApp(t)
	alice := a.client()
	alice.signup("alice")

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 1, 1))))

	w := alice.postImage("with image", "dot.html", img.Bytes())
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	post, err := a.deps.Posts.Get(context.Background(), a.latestPostID())
	require.NoError(t, err)
	require.NotEmpty(t, post.Image)

	detail := alice.get(fmt.Sprintf("/posts/%d/", post.ID)).Body.String()
	assert.Contains(t, detail, services.URL(post.Image))

	w = alice.get(services.URL(post.Image))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestHTMLDisguisedAsImageIsRejected(t *testing.T) {
	a := newApp(t)
	alice := a.client()
	alice.signup("alice")

	w := alice.postImage("sneaky", "evil.html", []byte("GIF89a<html><script>alert(document.domain)</script></html>"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	page, err := a.deps.Posts.ListAll(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}
