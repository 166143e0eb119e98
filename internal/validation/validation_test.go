package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type genreRequest struct {
	Name string `json:"name" binding:"required,max=40"`
}

func bind(t *testing.T, body string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req genreRequest
	return w, BindAndValidateJSON(c, &req)
}

func TestBindAndValidateJSON_OK(t *testing.T) {
	_, ok := bind(t, `{"name":"Novel"}`)
	assert.True(t, ok)
}

func TestBindAndValidateJSON_Required(t *testing.T) {
	w, ok := bind(t, `{}`)
	require.False(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, FieldError{Field: "name", Rule: "required", Message: "name is required"}, resp.Errors[0])
}

func TestBindAndValidateJSON_TooLong(t *testing.T) {
	w, ok := bind(t, `{"name":"`+strings.Repeat("x", 41)+`"}`)
	require.False(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "name must be at most 40 characters")
}

func TestBindAndValidateJSON_Malformed(t *testing.T) {
	w, ok := bind(t, `{"name":`)
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"rule":"syntax"`)
}
