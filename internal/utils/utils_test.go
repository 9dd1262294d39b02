package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	token, err := GenerateJWT(userID, "alice", "admin", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "admin", claims.Role)

	SetJWTSecret("rotated")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestRefreshTokenSubject(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	token, err := GenerateRefreshToken(userID, 1)
	require.NoError(t, err)

	subject, err := ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), subject)

	_, err = ValidateJWT(token)
	assert.Error(t, err, "refresh tokens must not authenticate requests")

	access, err := GenerateJWT(userID, "ada", "customer", 1)
	require.NoError(t, err)
	_, err = ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Classic Tee":        "classic-tee",
		"  Logo -- Hoodie! ": "logo-hoodie",
		"Mug 2.0":            "mug-2-0",
		"":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestValidateSlugTag(t *testing.T) {
	type payload struct {
		Slug string `validate:"required,slug"`
	}
	assert.NoError(t, ValidateStruct(&payload{Slug: "classic-tee"}))

	errs := GetValidationErrors(ValidateStruct(&payload{Slug: "Classic Tee"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "slug", errs[0].Tag)
}

func TestGetPaginationParamsClampsInput(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=-2&limit=500&order=sideways", nil)

	params := GetPaginationParams(c)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.Limit)
	assert.Equal(t, "desc", params.Order)

	result := CreatePaginationResult([]int{}, 41, params)
	assert.Equal(t, 3, result.TotalPages)
	assert.True(t, result.HasNext)
}

func TestGetPaginationParamsPerPageAlias(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=3&per_page=10", nil)

	params := GetPaginationParams(c)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, 20, params.Offset())

	result := CreatePaginationResult([]int{}, 30, params)
	assert.False(t, result.HasNext)
}

func TestGeneratePaymentReference(t *testing.T) {
	ref, err := GeneratePaymentReference()
	require.NoError(t, err)
	assert.Len(t, ref, 16)
	assert.Equal(t, "CRY-", ref[:4])
}
