package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/marketsync/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type channelRequest struct {
	Channel string `json:"channel" binding:"required,channel"`
	Note    string `json:"note" binding:"max=5"`
}

func TestSetupValidator(t *testing.T) {
	require.NoError(t, SetupValidator())

	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req channelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.String(http.StatusOK, req.Channel)
	})

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("accepts a supported channel", func(t *testing.T) {
		w := send(`{"channel":"depop"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("reports json field names", func(t *testing.T) {
		w := send(`{"channel":"amazon","note":"too long"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"channel"`)
		assert.Contains(t, w.Body.String(), "Unsupported sales channel")
		assert.Contains(t, w.Body.String(), `"field":"note"`)
		assert.Contains(t, w.Body.String(), "Must be at most 5 characters")
	})

	t.Run("malformed json", func(t *testing.T) {
		w := send(`{"channel":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
	})
}

func TestFormatValidationErrors_PlainError(t *testing.T) {
	resp := FormatValidationErrors(errors.New("bad"), "req-1")
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
}
