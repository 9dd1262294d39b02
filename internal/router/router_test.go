package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/events"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/testutil"
	"github.com/javajoker/storefront-backend/internal/utils"
)

func newTestRouter(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("router-test")

	db := testutil.NewTestDB(t)
	testutil.CreateProduct(t, db, "Classic Tee", "24.00")

	cfg := &config.Config{Environment: "test"}
	cfg.Server.Host = "localhost"
	cfg.Server.Port = "8080"
	cfg.Frontend.BaseURL = "https://shop.example"
	cfg.Payment.MappingTTL = time.Minute
	cfg.I18n.DefaultLocale = "en"

	svc, err := NewServices(db, cfg, events.NoopPublisher{})
	require.NoError(t, err)
	return Initialize(db, cfg, svc), cfg
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.Contains(t, w.Body.String(), `"languages":[`)
}

func TestPublicCatalogRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	w := serve(r, http.MethodGet, "/v1/products?search=tee", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Total-Count"))

	w = serve(r, http.MethodGet, "/v1/categories", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/v1/orders", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/v1/admin/dashboard/stats", "").Code)

	customer, err := utils.GenerateJWT(uuid.New(), "shopper", string(models.UserRoleCustomer), 1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/v1/admin/dashboard/stats", customer).Code)

	admin, err := utils.GenerateJWT(uuid.New(), "boss", string(models.UserRoleAdmin), 1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/v1/admin/dashboard/stats", admin).Code)
}

func TestStripeSyncWithoutCredentials(t *testing.T) {
	r, _ := newTestRouter(t)

	w := serve(r, http.MethodGet, "/v1/stripe/mappings?refresh=true", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = serve(r, http.MethodGet, "/v1/stripe/mappings", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
