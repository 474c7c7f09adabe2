package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"merchandiser-backend/internal/domain"
)

// ============================================================================
// Catalog readers
// ============================================================================

func (c *catalog[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	v, ok := c.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (c *catalog[T]) FindByIDs(ctx context.Context, ids []int64) ([]T, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	seen := make(map[int64]bool, len(ids))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if v, ok := c.rows[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// ============================================================================
// Child collections
// ============================================================================

type childRepository[T any] struct {
	store   *Store
	table   *childTable[T]
	hydrate func(*T)
}

func (r *childRepository[T]) ListByMerchandiser(ctx context.Context, merchandiserID int64) ([]T, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := r.table.byMerchandiser(merchandiserID)
	if r.hydrate != nil {
		for i := range rows {
			r.hydrate(&rows[i])
		}
	}
	return rows, nil
}

// Apply checks the whole change set before touching any row, so a rejected
// set leaves the collection unchanged.
func (r *childRepository[T]) Apply(ctx context.Context, merchandiserID int64, changes domain.ChangeSet[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	owned := func(id int64) bool {
		row, ok := r.table.rows[id]
		if !ok {
			return false
		}
		_, owner := r.table.keys(row)
		return owner == merchandiserID
	}
	for _, id := range changes.Delete {
		if !owned(id) {
			return fmt.Errorf("delete %d: %w", id, domain.ErrNotFound)
		}
	}
	for _, row := range changes.Update {
		id, _ := r.table.keys(row)
		if !owned(id) {
			return fmt.Errorf("update %d: %w", id, domain.ErrNotFound)
		}
	}

	for _, id := range changes.Delete {
		delete(r.table.rows, id)
	}
	for _, row := range changes.Update {
		id, _ := r.table.keys(row)
		r.table.assign(&row, id, merchandiserID)
		r.table.rows[id] = row
	}
	for _, row := range changes.Create {
		r.table.next++
		r.table.assign(&row, r.table.next, merchandiserID)
		r.table.rows[r.table.next] = row
	}
	return nil
}

// ============================================================================
// Merchandisers
// ============================================================================

type merchandiserRepository struct {
	store *Store
}

func (r *merchandiserRepository) Create(ctx context.Context, m *domain.Merchandiser) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.merchandisers {
		if existing.UserID == m.UserID && existing.DeletedAt == nil {
			return domain.ErrDuplicate
		}
	}

	now := r.store.now()
	m.ID = r.store.nextID("merchandisers")
	m.CreatedAt, m.UpdatedAt = now, now
	if m.Status == "" {
		m.Status = domain.StatusNew
	}
	r.store.merchandisers[m.ID] = *m
	return nil
}

func (r *merchandiserRepository) GetByID(ctx context.Context, id int64) (*domain.Merchandiser, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	m, ok := r.store.merchandisers[id]
	if !ok || m.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

func (r *merchandiserRepository) GetByUserID(ctx context.Context, userID string) (*domain.Merchandiser, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, m := range r.store.merchandisers {
		if m.UserID == userID && m.DeletedAt == nil {
			return &m, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *merchandiserRepository) Update(ctx context.Context, m *domain.Merchandiser) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.merchandisers[m.ID]
	if !ok || current.DeletedAt != nil {
		return domain.ErrNotFound
	}
	m.UserID = current.UserID
	m.CreatedAt = current.CreatedAt
	m.UpdatedAt = r.store.now()
	r.store.merchandisers[m.ID] = *m
	return nil
}

func (r *merchandiserRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	m, ok := r.store.merchandisers[id]
	if !ok || m.DeletedAt != nil {
		return domain.ErrNotFound
	}
	m.DeletedAt = &at
	r.store.merchandisers[id] = m
	return nil
}

// ============================================================================
// Identity
// ============================================================================

type userRepository struct {
	store *Store
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.users[user.ID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, other := range r.store.users {
		if other.ID != user.ID && strings.EqualFold(other.Email, user.Email) {
			return domain.ErrDuplicate
		}
	}
	user.Role = current.Role
	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = r.store.now()
	r.store.users[user.ID] = *user
	return nil
}

type akzenteRepository struct {
	store *Store
}

func (r *akzenteRepository) GetByUserID(ctx context.Context, userID string) (*domain.Akzente, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, a := range r.store.akzente {
		if a.UserID == userID {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ============================================================================
// Favorites
// ============================================================================

type favoriteRepository struct {
	store *Store
}

func (r *favoriteRepository) Exists(ctx context.Context, akzenteID, merchandiserID int64) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.favorites[favoriteKey{akzenteID, merchandiserID}]
	return ok, nil
}

func (r *favoriteRepository) Create(ctx context.Context, akzenteID, merchandiserID int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := favoriteKey{akzenteID, merchandiserID}
	if _, ok := r.store.favorites[key]; ok {
		return false, nil
	}
	r.store.favorites[key] = domain.Favorite{
		AkzenteID:      akzenteID,
		MerchandiserID: merchandiserID,
		CreatedAt:      r.store.now(),
	}
	return true, nil
}

func (r *favoriteRepository) Delete(ctx context.Context, akzenteID, merchandiserID int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := favoriteKey{akzenteID, merchandiserID}
	if _, ok := r.store.favorites[key]; !ok {
		return false, nil
	}
	delete(r.store.favorites, key)
	return true, nil
}

func (r *favoriteRepository) ListMerchandiserIDs(ctx context.Context, akzenteID int64) ([]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ids := []int64{}
	for key := range r.store.favorites {
		if key.akzenteID == akzenteID {
			ids = append(ids, key.merchandiserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ============================================================================
// Reviews
// ============================================================================

type reviewRepository struct {
	store *Store
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.reviews {
		if existing.ReviewerID == review.ReviewerID && existing.MerchandiserID == review.MerchandiserID {
			return domain.ErrDuplicate
		}
	}

	now := r.store.now()
	review.ID = r.store.nextID("reviews")
	review.CreatedAt, review.UpdatedAt = now, now
	r.store.reviews[review.ID] = *review
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	review, ok := r.store.reviews[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &review, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *domain.Review) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.reviews[review.ID]
	if !ok {
		return domain.ErrNotFound
	}
	current.Rating = review.Rating
	current.Text = review.Text
	current.UpdatedAt = r.store.now()
	r.store.reviews[review.ID] = current
	*review = current
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.reviews[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store.reviews, id)
	return nil
}

func (r *reviewRepository) ListByMerchandiser(ctx context.Context, merchandiserID int64) ([]domain.Review, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []domain.Review{}
	for _, review := range r.store.reviews {
		if review.MerchandiserID == merchandiserID {
			out = append(out, review)
		}
	}
	// Newest first.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *reviewRepository) Stats(ctx context.Context, merchandiserID int64) (domain.ReviewStats, error) {
	stats, err := r.StatsByMerchandiserIDs(ctx, []int64{merchandiserID})
	if err != nil {
		return domain.ReviewStats{}, err
	}
	return stats[merchandiserID], nil
}

func (r *reviewRepository) StatsByMerchandiserIDs(ctx context.Context, ids []int64) (map[int64]domain.ReviewStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	sums := make(map[int64]int64)
	counts := make(map[int64]int)
	for _, review := range r.store.reviews {
		if wanted[review.MerchandiserID] {
			sums[review.MerchandiserID] += int64(review.Rating)
			counts[review.MerchandiserID]++
		}
	}

	out := make(map[int64]domain.ReviewStats, len(counts))
	for id, count := range counts {
		out[id] = domain.NewReviewStats(sums[id], count)
	}
	return out, nil
}

// ============================================================================
// Assets
// ============================================================================

type assetRepository struct {
	store *Store
}

func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	asset.ID = r.store.nextID("assets")
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = r.store.now()
	}
	r.store.assets[asset.ID] = *asset
	return nil
}

func (r *assetRepository) FindEarliestByMerchandiserIDs(ctx context.Context, ids []int64, kind domain.AssetKind) (map[int64]domain.Asset, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	out := make(map[int64]domain.Asset)
	for _, asset := range r.store.assets {
		if asset.Kind != kind || !wanted[asset.MerchandiserID] {
			continue
		}
		best, ok := out[asset.MerchandiserID]
		if !ok || asset.CreatedAt.Before(best.CreatedAt) ||
			(asset.CreatedAt.Equal(best.CreatedAt) && asset.ID < best.ID) {
			out[asset.MerchandiserID] = asset
		}
	}
	return out, nil
}
