package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"merchandiser-backend/internal/domain"
	"merchandiser-backend/internal/repository/memory"
	"merchandiser-backend/internal/usecase"
	"merchandiser-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// fixture is an in-memory catalog with a few seeded reference entries.
type fixture struct {
	ctx   context.Context
	store *memory.Store
	uc    domain.MerchandiserUsecase
}

func seedCatalogs(store *memory.Store) {
	store.AddJobType(domain.JobType{ID: 1, Name: "Promotion"})
	store.AddJobType(domain.JobType{ID: 2, Name: "Sampling"})
	store.AddJobType(domain.JobType{ID: 3, Name: "Merchandising"})
	store.AddSpecialization(domain.Specialization{ID: 10, Name: "Food", JobTypeID: 1})
	store.AddSpecialization(domain.Specialization{ID: 11, Name: "Drinks", JobTypeID: 1})
	store.AddSpecialization(domain.Specialization{ID: 20, Name: "Cosmetics", JobTypeID: 2})
	store.AddLanguage(domain.Language{ID: 1, Name: "German"})
	store.AddLanguage(domain.Language{ID: 2, Name: "English"})
	store.AddCountry(domain.Country{ID: 1, Name: "Germany", Code: "DE"})
	store.AddCity(domain.City{ID: 1, Name: "Berlin", PostalCode: "10115", CountryID: 1})
	store.AddCity(domain.City{ID: 2, Name: "Hamburg", PostalCode: "20095", CountryID: 1})
	store.AddContractual(domain.Contractual{ID: 1, Name: "Freelance"})
}

func newFixture(t *testing.T, opts ...usecase.Option) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SetClock(func() time.Time { return fixedNow })
	seedCatalogs(store)

	opts = append([]usecase.Option{usecase.WithClock(func() time.Time { return fixedNow })}, opts...)
	return &fixture{
		ctx:   context.Background(),
		store: store,
		uc:    usecase.NewMerchandiserUsecase(store.Stores(), store.Catalogs(), nil, opts...),
	}
}

// withStores rebuilds the usecase over a modified set of stores.
func (f *fixture) withStores(stores domain.MerchandiserStores, signer domain.AssetURLSigner) {
	f.uc = usecase.NewMerchandiserUsecase(stores, f.store.Catalogs(), signer,
		usecase.WithClock(func() time.Time { return fixedNow }))
}

func (f *fixture) register(t *testing.T, n int) *domain.MerchandiserWithRelations {
	t.Helper()
	userID := fmt.Sprintf("merch-%d", n)
	f.store.AddUser(domain.User{
		ID:        userID,
		Email:     fmt.Sprintf("merch%d@example.com", n),
		FirstName: "Anna",
		LastName:  fmt.Sprintf("Schmidt%c", 'A'+n),
		Role:      domain.RoleMerchandiser,
	})
	profile, err := f.uc.Register(f.ctx, userID)
	require.NoError(t, err)
	return profile
}

func (f *fixture) addAkzente(t *testing.T, userID string) domain.Akzente {
	t.Helper()
	f.store.AddUser(domain.User{ID: userID, Email: userID + "@akzente.example", FirstName: "Staff", LastName: "Member", Role: domain.RoleAkzente})
	return f.store.AddAkzente(domain.Akzente{UserID: userID, Name: "Staff Member"})
}

func jobTypeIDs(links []domain.JobTypeLink) []int64 {
	out := make([]int64, 0, len(links))
	for _, l := range links {
		out = append(out, l.JobTypeID)
	}
	return out
}

func requireKind(t *testing.T, err error, kind apperror.Kind) *apperror.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, apperror.IsKind(err, kind), "got kind %v: %s", appErr.Kind, appErr.Message)
	return appErr
}

// ============================================================================
// Mocks
// ============================================================================

type MockFavoriteRepo struct {
	mock.Mock
}

func (m *MockFavoriteRepo) Exists(ctx context.Context, akzenteID, merchandiserID int64) (bool, error) {
	args := m.Called(ctx, akzenteID, merchandiserID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFavoriteRepo) Create(ctx context.Context, akzenteID, merchandiserID int64) (bool, error) {
	args := m.Called(ctx, akzenteID, merchandiserID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFavoriteRepo) Delete(ctx context.Context, akzenteID, merchandiserID int64) (bool, error) {
	args := m.Called(ctx, akzenteID, merchandiserID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFavoriteRepo) ListMerchandiserIDs(ctx context.Context, akzenteID int64) ([]int64, error) {
	args := m.Called(ctx, akzenteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockAkzenteRepo struct {
	mock.Mock
}

func (m *MockAkzenteRepo) GetByUserID(ctx context.Context, userID string) (*domain.Akzente, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Akzente), args.Error(1)
}

type MockMerchandiserRepo struct {
	mock.Mock
}

func (m *MockMerchandiserRepo) Create(ctx context.Context, merch *domain.Merchandiser) error {
	return m.Called(ctx, merch).Error(0)
}

func (m *MockMerchandiserRepo) GetByID(ctx context.Context, id int64) (*domain.Merchandiser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Merchandiser), args.Error(1)
}

func (m *MockMerchandiserRepo) GetByUserID(ctx context.Context, userID string) (*domain.Merchandiser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Merchandiser), args.Error(1)
}

func (m *MockMerchandiserRepo) Update(ctx context.Context, merch *domain.Merchandiser) error {
	return m.Called(ctx, merch).Error(0)
}

func (m *MockMerchandiserRepo) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockMerchandiserRepo) Search(ctx context.Context, q domain.SearchQuery) ([]domain.MerchandiserSearchItem, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.MerchandiserSearchItem), args.Get(1).(int64), args.Error(2)
}

type MockSigner struct {
	mock.Mock
}

func (m *MockSigner) SignURL(ctx context.Context, storageKey string) (string, error) {
	args := m.Called(ctx, storageKey)
	return args.String(0), args.Error(1)
}

// failingChildRepo wraps a child store and fails every Apply with err.
type failingChildRepo[T any] struct {
	domain.ChildRepository[T]
	err error
}

func (r failingChildRepo[T]) Apply(ctx context.Context, merchandiserID int64, changes domain.ChangeSet[T]) error {
	return r.err
}

// cancellingChildRepo commits normally, then cancels the caller's context.
type cancellingChildRepo[T any] struct {
	domain.ChildRepository[T]
	cancel context.CancelFunc
}

func (r cancellingChildRepo[T]) Apply(ctx context.Context, merchandiserID int64, changes domain.ChangeSet[T]) error {
	err := r.ChildRepository.Apply(ctx, merchandiserID, changes)
	r.cancel()
	return err
}

// failingReviewStats fails every aggregate lookup.
type failingReviewStats struct {
	domain.ReviewRepository
}

func (failingReviewStats) StatsByMerchandiserIDs(ctx context.Context, ids []int64) (map[int64]domain.ReviewStats, error) {
	return nil, fmt.Errorf("connection reset")
}
