package v1_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"merchandiser-backend/config"
	"merchandiser-backend/internal/delivery/http/middleware"
	"merchandiser-backend/internal/delivery/http/response"
	v1 "merchandiser-backend/internal/delivery/http/v1"
	"merchandiser-backend/internal/domain"
	"merchandiser-backend/internal/repository/memory"
	"merchandiser-backend/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

const (
	merchA = "merch-a"
	merchB = "merch-b"
	staff  = "staff-1"
	admin  = "admin-1"
)

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Error     json.RawMessage `json:"error"`
	RequestID string          `json:"request_id"`
}

type api struct {
	t      *testing.T
	store  *memory.Store
	router *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	store.AddJobType(domain.JobType{ID: 1, Name: "Promotion"})
	store.AddJobType(domain.JobType{ID: 2, Name: "Sampling"})
	store.AddSpecialization(domain.Specialization{ID: 10, Name: "Food", JobTypeID: 1})
	store.AddSpecialization(domain.Specialization{ID: 20, Name: "Cosmetics", JobTypeID: 2})
	store.AddCountry(domain.Country{ID: 1, Name: "Germany", Code: "DE"})
	store.AddCity(domain.City{ID: 1, Name: "Berlin", PostalCode: "10115", CountryID: 1})

	store.AddUser(domain.User{ID: merchA, Email: "a@example.com", FirstName: "Anna", LastName: "Arndt", Role: domain.RoleMerchandiser})
	store.AddUser(domain.User{ID: merchB, Email: "b@example.com", FirstName: "Ben", LastName: "Bauer", Role: domain.RoleMerchandiser})
	store.AddUser(domain.User{ID: staff, Email: "staff@example.com", FirstName: "Sara", LastName: "Stein", Role: domain.RoleAkzente})
	store.AddUser(domain.User{ID: admin, Email: "admin@example.com", FirstName: "Otto", LastName: "Admin", Role: domain.RoleAdmin})
	store.AddAkzente(domain.Akzente{UserID: staff, Name: "Akzente Berlin"})

	stores := store.Stores()
	cfg := &config.Config{
		JWTSecret:                testSecret,
		FrontendURL:              "https://app.example.com",
		RateLimitWindowSeconds:   60,
		RateLimitSearchThreshold: 1000,
	}

	router := v1.NewRouter(v1.RouterDeps{
		MerchandiserUC: usecase.NewMerchandiserUsecase(stores, store.Catalogs(), nil),
		FavoriteUC:     usecase.NewFavoriteUsecase(stores.Merchandisers, stores.Akzente, stores.Favorites),
		ReviewUC:       usecase.NewReviewUsecase(stores.Merchandisers, stores.Reviews),
		HealthUC:       usecase.NewHealthUsecase(nil),
		Users:          stores.Users,
		Metrics:        middleware.NewMetrics(),
		Config:         cfg,
	})
	return &api{t: t, store: store, router: router}
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": userID + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do sends a request as userID; an empty userID sends no token.
func (a *api) do(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = strings.NewReader(raw)
		} else {
			payload, err := json.Marshal(body)
			require.NoError(a.t, err)
			reader = bytes.NewReader(payload)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(a.t, userID))
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// register creates the profile of userID and returns its id.
func (a *api) register(userID string) int64 {
	a.t.Helper()
	w := a.do(http.MethodPost, "/v1/merchandisers", userID, nil)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	var profile domain.MerchandiserWithRelations
	decode(a.t, w, &profile)
	return profile.ID
}

func profilePath(id int64, suffix string) string {
	return fmt.Sprintf("/v1/merchandisers/%d%s", id, suffix)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	t.Run("health reports ok with a request id", func(t *testing.T) {
		w := a.do(http.MethodGet, "/v1/health", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var status map[string]string
		env := decode(t, w, &status)
		assert.Equal(t, "ok", status["status"])
		assert.NotEmpty(t, env.RequestID)
		assert.Equal(t, env.RequestID, w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("metrics expose request counters by route", func(t *testing.T) {
		a.do(http.MethodGet, "/v1/health", "", nil)

		w := a.do(http.MethodGet, "/v1/metrics", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `merchandiser_http_requests_total{method="GET",route="/v1/health",status="200"}`)
	})
}

func TestMerchandiserProfileRoutes(t *testing.T) {
	a := newAPI(t)

	t.Run("register requires a token", func(t *testing.T) {
		w := a.do(http.MethodPost, "/v1/merchandisers", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	id := a.register(merchA)

	t.Run("second registration conflicts", func(t *testing.T) {
		w := a.do(http.MethodPost, "/v1/merchandisers", merchA, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.False(t, decode(t, w, nil).Success)
	})

	t.Run("staff cannot register a profile", func(t *testing.T) {
		w := a.do(http.MethodPost, "/v1/merchandisers", staff, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("profile is public", func(t *testing.T) {
		w := a.do(http.MethodGet, profilePath(id, ""), "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var profile domain.MerchandiserWithRelations
		decode(t, w, &profile)
		assert.Equal(t, merchA, profile.UserID)
		assert.Equal(t, domain.StatusNew, profile.Status)
	})

	t.Run("malformed id is a bad request", func(t *testing.T) {
		w := a.do(http.MethodGet, "/v1/merchandisers/abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		w := a.do(http.MethodGet, profilePath(9999, ""), "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("owner update derives job types", func(t *testing.T) {
		w := a.do(http.MethodPatch, profilePath(id, ""), merchA, map[string]interface{}{
			"city_id":         1,
			"website":         "https://anna.example",
			"specializations": []map[string]interface{}{{"specialization_id": 10}},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var profile domain.MerchandiserWithRelations
		decode(t, w, &profile)
		require.NotNil(t, profile.City)
		assert.Equal(t, "Berlin", profile.City.Name)
		require.Len(t, profile.JobTypes, 1)
		assert.Equal(t, int64(1), profile.JobTypes[0].JobTypeID)
	})

	t.Run("null clears a field", func(t *testing.T) {
		w := a.do(http.MethodPatch, profilePath(id, ""), merchA, `{"website": null}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var profile domain.MerchandiserWithRelations
		decode(t, w, &profile)
		assert.Nil(t, profile.Website)
		require.NotNil(t, profile.CityID)
	})

	t.Run("another merchandiser cannot update", func(t *testing.T) {
		a.register(merchB)
		w := a.do(http.MethodPatch, profilePath(id, ""), merchB, map[string]interface{}{"status": "ACTIVE"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("staff may update any profile", func(t *testing.T) {
		w := a.do(http.MethodPatch, profilePath(id, ""), staff, map[string]interface{}{"status": "ACTIVE"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var profile domain.MerchandiserWithRelations
		decode(t, w, &profile)
		assert.Equal(t, "ACTIVE", profile.Status)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		w := a.do(http.MethodPatch, profilePath(id, ""), merchA, `{"city_id": "x"`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown catalog id is a validation error", func(t *testing.T) {
		w := a.do(http.MethodPatch, profilePath(id, ""), merchA, map[string]interface{}{
			"specializations": []map[string]interface{}{{"specialization_id": 999}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("resync is staff only", func(t *testing.T) {
		w := a.do(http.MethodPost, profilePath(id, "/resync"), merchA, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = a.do(http.MethodPost, profilePath(id, "/resync"), admin, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("owner removes the profile", func(t *testing.T) {
		w := a.do(http.MethodDelete, profilePath(id, ""), merchA, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = a.do(http.MethodGet, profilePath(id, ""), "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSearchAndFavoriteRoutes(t *testing.T) {
	a := newAPI(t)
	idA := a.register(merchA)
	idB := a.register(merchB)

	w := a.do(http.MethodPatch, profilePath(idA, ""), merchA, map[string]interface{}{"city_id": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	t.Run("anonymous search filters by city", func(t *testing.T) {
		w := a.do(http.MethodGet, "/v1/merchandisers?city_ids=1", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page domain.PaginatedResult[domain.MerchandiserSearchItem]
		decode(t, w, &page)
		assert.Equal(t, int64(1), page.Total)
		require.Len(t, page.Data, 1)
		assert.Equal(t, idA, page.Data[0].ID)
		assert.False(t, page.Data[0].IsFavorite)
	})

	t.Run("invalid token on search is treated as anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/merchandisers", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("sorting and paging come from the query", func(t *testing.T) {
		w := a.do(http.MethodGet, "/v1/merchandisers?sort=lastName:desc&limit=1&page=1", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page domain.PaginatedResult[domain.MerchandiserSearchItem]
		decode(t, w, &page)
		assert.Equal(t, int64(2), page.Total)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Data, 1)
		assert.Equal(t, idB, page.Data[0].ID)
	})

	t.Run("merchandisers cannot favorite", func(t *testing.T) {
		w := a.do(http.MethodPost, profilePath(idA, "/favorite"), merchB, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("staff toggles a favorite", func(t *testing.T) {
		var state struct {
			IsFavorite bool `json:"is_favorite"`
		}
		w := a.do(http.MethodPost, profilePath(idA, "/favorite"), staff, nil)
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &state)
		assert.True(t, state.IsFavorite)

		w = a.do(http.MethodGet, "/v1/merchandisers/favorites", staff, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var page domain.PaginatedResult[domain.MerchandiserSearchItem]
		decode(t, w, &page)
		require.Len(t, page.Data, 1)
		assert.True(t, page.Data[0].IsFavorite)

		w = a.do(http.MethodPost, profilePath(idA, "/favorite"), staff, nil)
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &state)
		assert.False(t, state.IsFavorite)
	})

	t.Run("export is staff only", func(t *testing.T) {
		w := a.do(http.MethodGet, "/v1/merchandisers/export", merchA, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("export returns a workbook", func(t *testing.T) {
		w := a.do(http.MethodGet, "/v1/merchandisers/export?city_ids=1", staff, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, response.ContentTypeXLSX, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=\"merchandisers_")
		assert.NotEmpty(t, w.Body.Bytes())
	})
}

func TestReviewRoutes(t *testing.T) {
	a := newAPI(t)
	id := a.register(merchA)

	var reviewID int64

	t.Run("staff reviews a merchandiser", func(t *testing.T) {
		w := a.do(http.MethodPost, profilePath(id, "/reviews"), staff, map[string]interface{}{"rating": 4, "text": "Reliable"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var review domain.Review
		decode(t, w, &review)
		reviewID = review.ID
		assert.Equal(t, staff, review.ReviewerID)
	})

	t.Run("second review by the same reviewer conflicts", func(t *testing.T) {
		w := a.do(http.MethodPost, profilePath(id, "/reviews"), staff, map[string]interface{}{"rating": 5})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("rating out of range is rejected", func(t *testing.T) {
		w := a.do(http.MethodPost, profilePath(id, "/reviews"), admin, map[string]interface{}{"rating": 6})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("reviews and stats are public", func(t *testing.T) {
		w := a.do(http.MethodGet, profilePath(id, "/reviews"), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var reviews []domain.Review
		decode(t, w, &reviews)
		assert.Len(t, reviews, 1)

		w = a.do(http.MethodGet, profilePath(id, "/reviews/stats"), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var stats domain.ReviewStats
		decode(t, w, &stats)
		assert.Equal(t, domain.ReviewStats{AverageRating: 4, ReviewCount: 1}, stats)
	})

	t.Run("only the author changes a review", func(t *testing.T) {
		path := fmt.Sprintf("/v1/reviews/%d", reviewID)

		w := a.do(http.MethodPut, path, admin, map[string]interface{}{"rating": 1})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = a.do(http.MethodPut, path, staff, map[string]interface{}{"rating": 5})
		require.Equal(t, http.StatusOK, w.Code)

		w = a.do(http.MethodDelete, path, staff, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = a.do(http.MethodGet, profilePath(id, "/reviews/stats"), "", nil)
		var stats domain.ReviewStats
		decode(t, w, &stats)
		assert.Zero(t, stats.ReviewCount)
	})
}
