package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/marketsync/backend/internal/domain/trade"
	"github.com/marketsync/backend/internal/interfaces/http/dto"
	"github.com/marketsync/backend/internal/interfaces/http/middleware"
	"github.com/marketsync/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// envelope mirrors dto.Response with the data left raw
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func newTestRouter(registrars ...router.RouteRegistrar) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.NewRouter(engine).Register(registrars...).Setup()
	return engine
}

func doRequest(t *testing.T, engine http.Handler, method, target string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	require.NotNil(t, env.Data)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func decodeBody(t *testing.T, body []byte, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, out))
}

func TestBaseHandler_Responses(t *testing.T) {
	h := &BaseHandler{}
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/ok", func(c *gin.Context) { h.Success(c, gin.H{"a": 1}) })
	engine.GET("/created", func(c *gin.Context) { h.Created(c, gin.H{"a": 1}) })
	engine.GET("/page", func(c *gin.Context) { h.SuccessWithMeta(c, []int{1, 2}, 45, 2, 20) })
	engine.GET("/bad", func(c *gin.Context) { h.BadRequest(c, "nope") })

	t.Run("success", func(t *testing.T) {
		w, env := doRequest(t, engine, http.MethodGet, "/ok", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
		assert.JSONEq(t, `{"a":1}`, string(env.Data))
	})

	t.Run("created", func(t *testing.T) {
		w, env := doRequest(t, engine, http.MethodGet, "/created", nil)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, env.Success)
	})

	t.Run("pagination meta", func(t *testing.T) {
		w, env := doRequest(t, engine, http.MethodGet, "/page", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(45), env.Meta.Total)
		assert.Equal(t, 2, env.Meta.Page)
		assert.Equal(t, 3, env.Meta.TotalPages)
	})

	t.Run("bad request carries request id", func(t *testing.T) {
		w, env := doRequest(t, engine, http.MethodGet, "/bad", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Success)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeBadRequest, env.Error.Code)
		assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), env.Error.RequestID)
		assert.NotEmpty(t, env.Error.RequestID)
	})
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", trade.ErrOrderNotFound, http.StatusNotFound, "ERR_ORDER_NOT_FOUND"},
		{"conflict", trade.ErrIngestionInProgress, http.StatusConflict, "ERR_INGESTION_IN_PROGRESS"},
		{"invalid state", trade.ErrShippingTransition, http.StatusConflict, "ERR_INVALID_SHIPPING_TRANSITION"},
		{"validation", shared.NewValidationError("bad"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"wrapped", fmt.Errorf("lookup: %w", trade.ErrOrderNotFound), http.StatusNotFound, "ERR_ORDER_NOT_FOUND"},
		{"store", shared.NewStoreError("find order", errors.New("conn refused")), http.StatusInternalServerError, dto.ErrCodeStoreUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			engine := gin.New()
			engine.GET("/", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w, env := doRequest(t, engine, http.MethodGet, "/", nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}

	t.Run("internal details are not exposed", func(t *testing.T) {
		h := &BaseHandler{}
		engine := gin.New()
		engine.GET("/", func(c *gin.Context) { h.HandleError(c, errors.New("password=hunter2")) })

		w, _ := doRequest(t, engine, http.MethodGet, "/", nil)
		assert.NotContains(t, w.Body.String(), "hunter2")
	})
}

func TestBaseHandler_UUIDParam(t *testing.T) {
	h := &BaseHandler{}
	engine := gin.New()
	engine.GET("/items/:id", func(c *gin.Context) {
		id, ok := h.uuidParam(c, "id")
		if !ok {
			return
		}
		h.Success(c, id)
	})

	id := uuid.New()
	w, _ := doRequest(t, engine, http.MethodGet, "/items/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := doRequest(t, engine, http.MethodGet, "/items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Invalid id format", env.Error.Message)
}
