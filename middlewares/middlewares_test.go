package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MediCore/authz"
	"MediCore/models"
	"MediCore/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// tokenTable resolves a fixed set of tokens.
type tokenTable map[string]*models.User

func (t tokenTable) Authenticate(_ context.Context, token string) (*models.User, error) {
	user, ok := t[token]
	if !ok {
		return nil, utils.Unauthenticated("Invalid access token")
	}
	if !user.IsActive {
		return nil, utils.Unauthenticated("Account is deactivated")
	}
	return user, nil
}

func testUser(id string, role models.Role, plan models.SubscriptionPlan, active bool) *models.User {
	user := &models.User{Role: role, SubscriptionPlan: plan, IsActive: active}
	user.ID = id
	return user
}

func newRouter(sessions SessionResolver, production bool) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(zerolog.Nop(), production))
	router.Use(ErrorHandler(zerolog.Nop(), production))
	router.NoRoute(NoRoute(zerolog.Nop(), production))

	protected := router.Group("/api", Authenticate(sessions))
	protected.GET("/me", func(c *gin.Context) {
		utils.OK(c, gin.H{"id": CurrentUser(c).ID, "role": CurrentIdentity(c).Role}, "")
	})
	protected.GET("/admin", RequirePermission(authz.ManageUsers), func(c *gin.Context) {
		utils.OK(c, nil, "ok")
	})
	protected.GET("/pro", RequirePlan(models.PlanPro), func(c *gin.Context) {
		utils.OK(c, nil, "ok")
	})
	protected.DELETE("/users/:id", RequirePermission(authz.ManageUsers), ForbidSelf("id", "delete"), func(c *gin.Context) {
		utils.OK(c, nil, "deleted")
	})
	router.GET("/boom", func(c *gin.Context) {
		panic("database exploded")
	})
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(utils.Internal(errors.New("connection refused")))
	})
	return router
}

func decode(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func get(router http.Handler, path string, configure func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if configure != nil {
		configure(req)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func TestAuthenticateRequiresToken(t *testing.T) {
	router := newRouter(tokenTable{}, false)

	w := get(router, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, utils.KindUnauthenticated, body.Kind)
	assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
	assert.NotNil(t, body.Errors)

	w = get(router, "/api/me", bearer("forged"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticatePrefersCookie(t *testing.T) {
	sessions := tokenTable{
		"cookie-token": testUser("from-cookie", models.RoleDoctor, models.PlanFree, true),
		"header-token": testUser("from-header", models.RoleAdmin, models.PlanFree, true),
	}
	router := newRouter(sessions, false)

	w := get(router, "/api/me", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: utils.AccessCookieName, Value: "cookie-token"})
		r.Header.Set("Authorization", "Bearer header-token")
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"from-cookie"`)

	w = get(router, "/api/me", bearer("header-token"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"from-header"`)
}

func TestAuthenticateRejectsDeactivatedIdentity(t *testing.T) {
	router := newRouter(tokenTable{"t": testUser("u", models.RoleAdmin, models.PlanPro, false)}, false)

	w := get(router, "/api/me", bearer("t"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Account is deactivated", decode(t, w).Message)
}

func TestRequirePermissionAndPlan(t *testing.T) {
	sessions := tokenTable{
		"doctor": testUser("d", models.RoleDoctor, models.PlanFree, true),
		"admin":  testUser("a", models.RoleAdmin, models.PlanPro, true),
	}
	router := newRouter(sessions, false)

	w := get(router, "/api/admin", bearer("doctor"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, utils.KindForbidden, decode(t, w).Kind)

	assert.Equal(t, http.StatusOK, get(router, "/api/admin", bearer("admin")).Code)
	assert.Equal(t, http.StatusForbidden, get(router, "/api/pro", bearer("doctor")).Code)
	assert.Equal(t, http.StatusOK, get(router, "/api/pro", bearer("admin")).Code)
}

func TestForbidSelf(t *testing.T) {
	router := newRouter(tokenTable{"admin": testUser("a", models.RoleAdmin, models.PlanPro, true)}, false)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/a", nil)
	req.Header.Set("Authorization", "Bearer admin")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You cannot delete your own account", decode(t, w).Message)

	req = httptest.NewRequest(http.MethodDelete, "/api/users/someone-else", nil)
	req.Header.Set("Authorization", "Bearer admin")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInternalErrorsHideDetailsInProduction(t *testing.T) {
	dev := decode(t, get(newRouter(tokenTable{}, false), "/fail", nil))
	assert.Equal(t, "Internal server error", dev.Message)
	assert.Contains(t, dev.Stack, "connection refused")

	prod := get(newRouter(tokenTable{}, true), "/fail", nil)
	assert.Equal(t, http.StatusInternalServerError, prod.Code)
	assert.NotContains(t, prod.Body.String(), "connection refused")
	assert.Empty(t, decode(t, prod).Stack)
}

func TestRecoveryAndNoRoute(t *testing.T) {
	router := newRouter(tokenTable{}, true)

	w := get(router, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, utils.KindInternal, decode(t, w).Kind)
	assert.NotContains(t, w.Body.String(), "database exploded")

	w = get(router, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route GET /nowhere not found", decode(t, w).Message)
}

func TestRateLimiter(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(zerolog.Nop(), true))
	router.Use(NewRateLimiterMiddleware(RateLimiterConfig{Requests: 3, Window: time.Hour, Message: "Too many authentication attempts"}))
	router.POST("/login", func(c *gin.Context) { utils.OK(c, nil, "ok") })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{}"))
		req.RemoteAddr = ip + ":4242"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	}
	w := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	body := decode(t, w)
	assert.Equal(t, utils.KindRateLimited, body.Kind)
	assert.Equal(t, "Too many authentication attempts", body.Message)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code, "limits are per client")
}

func TestRefreshTokenSources(t *testing.T) {
	router := gin.New()
	router.POST("/refresh", func(c *gin.Context) {
		c.String(http.StatusOK, RefreshToken(c))
	})

	req := httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader(`{"refreshToken":"from-body"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "from-body", w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader(`{"refreshToken":"from-body"}`))
	req.AddCookie(&http.Cookie{Name: utils.RefreshCookieName, Value: "from-cookie"})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "from-cookie", w.Body.String())
}
