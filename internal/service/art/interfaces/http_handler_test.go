package interfaces

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"artshop/internal/pkg/auth"
	"artshop/internal/pkg/bootstrap"
	"artshop/internal/pkg/database"
	"artshop/internal/pkg/response"
	"artshop/internal/service/art/application"
	"artshop/internal/service/art/infrastructure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestMux(t *testing.T) *http.ServeMux {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(bootstrap.DatabaseConfig{
		Driver:       "sqlite",
		Path:         "file:" + name + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, infrastructure.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	dir := t.TempDir()
	images, err := infrastructure.NewDiskImageStorage(dir)
	require.NoError(t, err)

	svc := application.NewArtApplicationService(
		infrastructure.NewGormArtRepository(db),
		database.NewTxManager(db),
		infrastructure.NoopArtCache{},
		images,
		infrastructure.NewLocalStockLocker(),
		nil,
		noop.NewTracerProvider().Tracer("test"),
	)
	mux := http.NewServeMux()
	NewArtHandler(svc, dir).RegisterRoutes(mux)
	return mux
}

func multipartBody(t *testing.T, fields map[string]string, image string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != "" {
		fw, err := mw.CreateFormFile("image", "art.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte(image))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(mux http.Handler, req *http.Request, admin bool) *httptest.ResponseRecorder {
	req.Header.Set(auth.HeaderUserID, "1")
	if admin {
		req.Header.Set(auth.HeaderRole, auth.RoleAdmin)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func createArt(t *testing.T, mux http.Handler, fields map[string]string, image string) ArtResponse {
	body, ct := multipartBody(t, fields, image)
	req := httptest.NewRequest(http.MethodPost, "/art", body)
	req.Header.Set("Content-Type", ct)
	rec := do(mux, req, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var art ArtResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&art))
	return art
}

func TestCreateArtMultipartAndServeImage(t *testing.T) {
	mux := newTestMux(t)
	art := createArt(t, mux, map[string]string{
		"title":       "Sunflowers",
		"description": "still life",
		"price":       "10",
		"quantity":    "5",
		"category":    "painting",
	}, "png-bytes")

	assert.Equal(t, "10.00", art.Price)
	assert.True(t, art.InStock)
	require.NotEmpty(t, art.ImageURL)

	rec := do(mux, httptest.NewRequest(http.MethodGet, art.ImageURL, nil), false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
}

func TestCreateArtErrors(t *testing.T) {
	mux := newTestMux(t)
	fields := map[string]string{
		"title":       "Sunflowers",
		"description": "still life",
		"price":       "ten",
		"quantity":    "5",
		"category":    "painting",
	}

	body, ct := multipartBody(t, fields, "")
	req := httptest.NewRequest(http.MethodPost, "/art", body)
	req.Header.Set("Content-Type", ct)
	rec := do(mux, req, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errBody response.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errBody))
	require.Len(t, errBody.Violations, 1)
	assert.Equal(t, "price", errBody.Violations[0].Field)

	fields["price"] = "10"
	body, ct = multipartBody(t, fields, "")
	req = httptest.NewRequest(http.MethodPost, "/art", body)
	req.Header.Set("Content-Type", ct)
	rec = do(mux, req, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestArtJSONLifecycle(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/art", strings.NewReader(`{"title":"Oak","description":"bronze","price":"120.5","quantity":1,"category":"nature"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := do(mux, req, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created ArtResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "120.50", created.Price)

	rec = do(mux, httptest.NewRequest(http.MethodGet, "/art?filter="+`category+%3D%3D+%22nature%22`, nil), false)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []ArtResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	assert.Len(t, listed, 1)

	rec = do(mux, httptest.NewRequest(http.MethodGet, "/art?filter=price+%3C", nil), false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPatch, "/art/1", strings.NewReader(`{"quantity":0}`))
	req.Header.Set("Content-Type", "application/json")
	rec = do(mux, req, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated ArtResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.False(t, updated.InStock)
	assert.Equal(t, "Oak", updated.Title)

	rec = do(mux, httptest.NewRequest(http.MethodDelete, "/art/1", nil), true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(mux, httptest.NewRequest(http.MethodGet, "/art/1", nil), false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(mux, httptest.NewRequest(http.MethodGet, "/art/abc", nil), false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
