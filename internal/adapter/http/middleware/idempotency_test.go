package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"subpay/internal/core/domain"
	"subpay/internal/core/ports"
	"subpay/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testTTL = 24 * time.Hour

func idempotencyRouter(store ports.IdempotencyStore, handlerCalls *int) *gin.Engine {
	r := gin.New()
	r.Use(Idempotency(store, testTTL, zerolog.Nop()))
	handler := func(c *gin.Context) {
		*handlerCalls++
		c.JSON(http.StatusCreated, gin.H{"result": "fresh"})
	}
	r.POST("/subscriptions", handler)
	r.GET("/subscriptions", func(c *gin.Context) {
		*handlerCalls++
		c.JSON(http.StatusOK, gin.H{"result": "list"})
	})
	return r
}

func TestIdempotency_GetBypassed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIdempotencyStore(ctrl) // no expectations: store untouched

	calls := 0
	r := idempotencyRouter(store, &calls)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/subscriptions", nil)
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_MissingKeyBypassed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIdempotencyStore(ctrl)

	calls := 0
	r := idempotencyRouter(store, &calls)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader("{}"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
	assert.Empty(t, w.Header().Get(HeaderIdempotencyReplayed))
}

func TestIdempotency_MissStoresResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().Get(gomock.Any(), "key-1").Return(nil, nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *domain.IdempotencyRecord) error {
			assert.Equal(t, "key-1", rec.Key)
			assert.Equal(t, http.MethodPost, rec.RequestMethod)
			assert.Equal(t, "/subscriptions", rec.RequestPath)
			assert.Equal(t, http.StatusCreated, rec.StatusCode)
			assert.Contains(t, rec.ContentType, "application/json")
			assert.Contains(t, string(rec.ResponseBody), "fresh")
			assert.WithinDuration(t, rec.CreatedAt.Add(testTTL), rec.ExpiresAt, time.Second)
			return nil
		})

	calls := 0
	r := idempotencyRouter(store, &calls)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader("{}"))
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
	assert.Empty(t, w.Header().Get(HeaderIdempotencyReplayed))
}

func TestIdempotency_HitReplaysStoredResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIdempotencyStore(ctrl)

	stored := &domain.IdempotencyRecord{
		Key:           "key-1",
		RequestMethod: http.MethodPost,
		RequestPath:   "/subscriptions",
		StatusCode:    http.StatusCreated,
		ContentType:   "application/json; charset=utf-8",
		ResponseBody:  []byte(`{"result":"original"}`),
		CreatedAt:     time.Now().Add(-time.Minute),
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	store.EXPECT().Get(gomock.Any(), "key-1").Return(stored, nil)

	calls := 0
	r := idempotencyRouter(store, &calls)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader("{}"))
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	r.ServeHTTP(w, req)

	// Byte-for-byte replay; the handler never ran.
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, `{"result":"original"}`, w.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "true", w.Header().Get(HeaderIdempotencyReplayed))
	assert.Equal(t, 0, calls)
}

func TestIdempotency_ExpiredRecordIsAMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIdempotencyStore(ctrl)

	expired := &domain.IdempotencyRecord{
		Key:          "key-1",
		StatusCode:   http.StatusCreated,
		ResponseBody: []byte(`{"result":"stale"}`),
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	store.EXPECT().Get(gomock.Any(), "key-1").Return(expired, nil)
	// The stale row still holds the key; the fresh save conflicts and the
	// conflict is swallowed. The sweeper reclaims the row later.
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(ports.ErrDuplicateIdempotencyKey)

	calls := 0
	r := idempotencyRouter(store, &calls)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader("{}"))
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "fresh")
	assert.Equal(t, 1, calls)
	assert.Empty(t, w.Header().Get(HeaderIdempotencyReplayed))
}

func TestIdempotency_LookupErrorFailsOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIdempotencyStore(ctrl)

	// Lookup fails: the handler runs and nothing is saved.
	store.EXPECT().Get(gomock.Any(), "key-1").Return(nil, errors.New("db down"))

	calls := 0
	r := idempotencyRouter(store, &calls)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader("{}"))
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_SaveErrorDoesNotAffectResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().Get(gomock.Any(), "key-1").Return(nil, nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	calls := 0
	r := idempotencyRouter(store, &calls)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader("{}"))
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "fresh")
}

func TestIdempotency_ErrorResponsesAreCachedToo(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().Get(gomock.Any(), "key-err").Return(nil, nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *domain.IdempotencyRecord) error {
			assert.Equal(t, http.StatusConflict, rec.StatusCode)
			return nil
		})

	r := gin.New()
	r.Use(Idempotency(store, testTTL, zerolog.Nop()))
	r.POST("/subscriptions", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"error_code": "PAY_002"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader("{}"))
	req.Header.Set(HeaderIdempotencyKey, "key-err")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}
