package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ginsessions "github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookie = "sid"

func newTestRouter(t *testing.T, backend Backend) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := NewStore(backend, []byte("0123456789abcdef0123456789abcdef"))
	store.Options(ginsessions.Options{Path: "/", MaxAge: 3600, HttpOnly: true})

	router := gin.New()
	router.Use(ginsessions.Sessions(testCookie, store))
	router.GET("/set", func(c *gin.Context) {
		s := ginsessions.Default(c)
		s.Set("name", c.Query("name"))
		if err := s.Save(); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	})
	router.GET("/get", func(c *gin.Context) {
		name, _ := ginsessions.Default(c).Get("name").(string)
		c.String(http.StatusOK, name)
	})
	router.GET("/load", func(c *gin.Context) {
		if _, err := store.Get(c.Request, testCookie); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	})
	router.GET("/destroy", func(c *gin.Context) {
		s := ginsessions.Default(c)
		s.Clear()
		s.Options(ginsessions.Options{Path: "/", MaxAge: -1})
		if err := s.Save(); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	})
	return router
}

func do(router http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", testCookie)
	return nil
}

func TestStoreRoundTrip(t *testing.T) {
	backend := NewMemoryBackend()
	router := newTestRouter(t, backend)

	rec := do(router, "/set?name=Ann")
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookie := sessionCookie(t, rec)

	assert.Equal(t, 3600, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.NotContains(t, cookie.Value, "Ann", "cookie must only carry the signed id")
	assert.Equal(t, 1, backend.Len())

	rec = do(router, "/get", cookie)
	assert.Equal(t, "Ann", rec.Body.String())
}

func TestStoreIgnoresTamperedCookie(t *testing.T) {
	router := newTestRouter(t, NewMemoryBackend())

	cookie := sessionCookie(t, do(router, "/set?name=Ann"))
	cookie.Value = strings.ToUpper(cookie.Value)

	rec := do(router, "/get", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestStoreDestroy(t *testing.T) {
	backend := NewMemoryBackend()
	router := newTestRouter(t, backend)

	cookie := sessionCookie(t, do(router, "/set?name=Ann"))

	rec := do(router, "/destroy", cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, backend.Len())
	assert.Less(t, sessionCookie(t, rec).MaxAge, 0)

	rec = do(router, "/get", cookie)
	assert.Empty(t, rec.Body.String())
}

func TestStoreExpiredRecord(t *testing.T) {
	backend := NewMemoryBackend()
	now := time.Now()
	backend.now = func() time.Time { return now }
	router := newTestRouter(t, backend)

	cookie := sessionCookie(t, do(router, "/set?name=Ann"))
	now = now.Add(2 * time.Hour)

	rec := do(router, "/get", cookie)
	assert.Empty(t, rec.Body.String())
}

type failingBackend struct{ err error }

func (f failingBackend) Get(context.Context, string) (map[string]any, error) { return nil, f.err }
func (f failingBackend) Set(context.Context, string, map[string]any, time.Duration) error {
	return f.err
}
func (f failingBackend) Destroy(context.Context, string) error { return f.err }

func TestStoreSurfacesBackendErrors(t *testing.T) {
	valid := sessionCookie(t, do(newTestRouter(t, NewMemoryBackend()), "/set?name=Ann"))

	router := newTestRouter(t, failingBackend{err: errors.New("store down")})

	rec := do(router, "/load", valid)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "store down")

	rec = do(router, "/set?name=Ann")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewSessionIDIsRandom(t *testing.T) {
	a, err := newSessionID()
	require.NoError(t, err)
	b, err := newSessionID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
}

func TestRegenerateIssuesFreshID(t *testing.T) {
	backend := NewMemoryBackend()
	router := newTestRouter(t, backend)
	store := NewStore(backend, []byte("0123456789abcdef0123456789abcdef"))
	store.Options(ginsessions.Options{Path: "/", MaxAge: 3600, HttpOnly: true})
	router.GET("/regenerate", func(c *gin.Context) {
		s, err := store.Regenerate(c.Request, testCookie)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		s.Values["name"] = "Bob"
		if err := s.Save(c.Request, c.Writer); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	})

	old := sessionCookie(t, do(router, "/set?name=Ann"))

	rec := do(router, "/regenerate", old)
	require.Equal(t, http.StatusNoContent, rec.Code)
	fresh := sessionCookie(t, rec)
	assert.NotEqual(t, old.Value, fresh.Value)
	assert.Equal(t, 1, backend.Len())

	assert.Empty(t, do(router, "/get", old).Body.String())
	assert.Equal(t, "Bob", do(router, "/get", fresh).Body.String())
}
