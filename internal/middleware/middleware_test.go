package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-report-batch/internal/models"
	"github.com/noah-isme/sma-report-batch/internal/service"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Wrap(errors.New("bad signature"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	return v.claims, nil
}

func protectedRouter(role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/batch", JWT(validatorStub{claims: &models.JWTClaims{UserID: "u1", Role: role}}),
		RequireRoles(models.RoleTeacher, models.RoleAdmin),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func serve(r http.Handler, header string) int {
	req := httptest.NewRequest(http.MethodGet, "/batch", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestJWTAndRoles(t *testing.T) {
	teacher := protectedRouter(models.RoleTeacher)
	assert.Equal(t, http.StatusOK, serve(teacher, "Bearer good"))
	assert.Equal(t, http.StatusUnauthorized, serve(teacher, ""))
	assert.Equal(t, http.StatusUnauthorized, serve(teacher, "Basic good"))
	assert.Equal(t, http.StatusUnauthorized, serve(teacher, "Bearer bad"))

	student := protectedRouter(models.RoleStudent)
	assert.Equal(t, http.StatusForbidden, serve(student, "Bearer good"))
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/batch", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, serve(r, ""))
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/batch", func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, serve(r, ""))
	count, err := testutil.GatherAndCount(metrics.Registry(), "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAuditSkipsFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.POST("/batch/print", Audit(zap.New(core), "batch.print"), func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher})
		c.Header("X-Batch-ID", "b1")
		c.Status(http.StatusAccepted)
	})
	r.POST("/batch/save", Audit(zap.New(core), "batch.save"), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	for _, path := range []string{"/batch/print", "/batch/save"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "batch.print", fields["action"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "b1", fields["batch_id"])
}
