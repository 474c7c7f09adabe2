// Package memory provides an in-memory implementation of every relation store
// used for tests and ephemeral environments.
package memory

import (
	"sort"
	"sync"
	"time"

	"merchandiser-backend/internal/domain"
)

type favoriteKey struct {
	akzenteID      int64
	merchandiserID int64
}

// Store holds every table behind a single lock so that reads joining several
// tables (search) observe one consistent state.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users         map[string]domain.User
	akzente       map[int64]domain.Akzente
	merchandisers map[int64]domain.Merchandiser
	favorites     map[favoriteKey]domain.Favorite
	reviews       map[int64]domain.Review
	assets        map[int64]domain.Asset

	jobTypeLinks        *childTable[domain.JobTypeLink]
	specializationLinks *childTable[domain.SpecializationLink]
	languageLinks       *childTable[domain.LanguageLink]
	education           *childTable[domain.EducationEntry]
	references          *childTable[domain.ReferenceEntry]
	contractualLinks    *childTable[domain.ContractualLink]

	jobTypes        *catalog[domain.JobType]
	specializations *catalog[domain.Specialization]
	languages       *catalog[domain.Language]
	cities          *catalog[domain.City]
	countries       *catalog[domain.Country]
	contractuals    *catalog[domain.Contractual]

	seq map[string]int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{
		now:           func() time.Time { return time.Now().UTC() },
		users:         make(map[string]domain.User),
		akzente:       make(map[int64]domain.Akzente),
		merchandisers: make(map[int64]domain.Merchandiser),
		favorites:     make(map[favoriteKey]domain.Favorite),
		reviews:       make(map[int64]domain.Review),
		assets:        make(map[int64]domain.Asset),
		seq:           make(map[string]int64),
	}

	s.jobTypeLinks = newChildTable(
		func(l domain.JobTypeLink) (int64, int64) { return l.ID, l.MerchandiserID },
		func(l *domain.JobTypeLink, id, merchandiserID int64) { l.ID, l.MerchandiserID = id, merchandiserID },
	)
	s.specializationLinks = newChildTable(
		func(l domain.SpecializationLink) (int64, int64) { return l.ID, l.MerchandiserID },
		func(l *domain.SpecializationLink, id, merchandiserID int64) { l.ID, l.MerchandiserID = id, merchandiserID },
	)
	s.languageLinks = newChildTable(
		func(l domain.LanguageLink) (int64, int64) { return l.ID, l.MerchandiserID },
		func(l *domain.LanguageLink, id, merchandiserID int64) { l.ID, l.MerchandiserID = id, merchandiserID },
	)
	s.education = newChildTable(
		func(e domain.EducationEntry) (int64, int64) { return e.ID, e.MerchandiserID },
		func(e *domain.EducationEntry, id, merchandiserID int64) { e.ID, e.MerchandiserID = id, merchandiserID },
	)
	s.references = newChildTable(
		func(r domain.ReferenceEntry) (int64, int64) { return r.ID, r.MerchandiserID },
		func(r *domain.ReferenceEntry, id, merchandiserID int64) { r.ID, r.MerchandiserID = id, merchandiserID },
	)
	s.contractualLinks = newChildTable(
		func(l domain.ContractualLink) (int64, int64) { return l.ID, l.MerchandiserID },
		func(l *domain.ContractualLink, id, merchandiserID int64) { l.ID, l.MerchandiserID = id, merchandiserID },
	)

	s.jobTypes = newCatalog(s, func(v domain.JobType) int64 { return v.ID })
	s.specializations = newCatalog(s, func(v domain.Specialization) int64 { return v.ID })
	s.languages = newCatalog(s, func(v domain.Language) int64 { return v.ID })
	s.cities = newCatalog(s, func(v domain.City) int64 { return v.ID })
	s.countries = newCatalog(s, func(v domain.Country) int64 { return v.ID })
	s.contractuals = newCatalog(s, func(v domain.Contractual) int64 { return v.ID })

	return s
}

// SetClock overrides the time source used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// nextID must be called with the write lock held.
func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// Stores exposes the store through the relation interfaces.
func (s *Store) Stores() domain.MerchandiserStores {
	return domain.MerchandiserStores{
		Merchandisers: &merchandiserRepository{store: s},
		JobTypes: &childRepository[domain.JobTypeLink]{store: s, table: s.jobTypeLinks, hydrate: func(l *domain.JobTypeLink) {
			if jt, ok := s.jobTypes.rows[l.JobTypeID]; ok {
				l.JobTypeName = jt.Name
			}
		}},
		Specializations: &childRepository[domain.SpecializationLink]{store: s, table: s.specializationLinks, hydrate: func(l *domain.SpecializationLink) {
			if sp, ok := s.specializations.rows[l.SpecializationID]; ok {
				l.SpecializationName = sp.Name
			}
		}},
		Languages: &childRepository[domain.LanguageLink]{store: s, table: s.languageLinks, hydrate: func(l *domain.LanguageLink) {
			if lang, ok := s.languages.rows[l.LanguageID]; ok {
				l.LanguageName = lang.Name
			}
		}},
		Education:  &childRepository[domain.EducationEntry]{store: s, table: s.education},
		References: &childRepository[domain.ReferenceEntry]{store: s, table: s.references},
		Contractuals: &childRepository[domain.ContractualLink]{store: s, table: s.contractualLinks, hydrate: func(l *domain.ContractualLink) {
			if c, ok := s.contractuals.rows[l.ContractualID]; ok {
				l.ContractualName = c.Name
			}
		}},
		Favorites: &favoriteRepository{store: s},
		Reviews:   &reviewRepository{store: s},
		Assets:    &assetRepository{store: s},
		Users:     &userRepository{store: s},
		Akzente:   &akzenteRepository{store: s},
	}
}

// Catalogs exposes the read-only catalog views.
func (s *Store) Catalogs() domain.Catalogs {
	return domain.Catalogs{
		JobTypes:        s.jobTypes,
		Specializations: s.specializations,
		Languages:       s.languages,
		Cities:          s.cities,
		Countries:       s.countries,
		Contractuals:    s.contractuals,
	}
}

// ============================================================================
// Seeding: catalogs and identities are owned by other services.
// ============================================================================

func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
		u.UpdatedAt = u.CreatedAt
	}
	s.users[u.ID] = u
}

// AddAkzente stores a staff record and returns it with its assigned id.
func (s *Store) AddAkzente(a domain.Akzente) domain.Akzente {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.nextID("akzente")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.akzente[a.ID] = a
	return a
}

func (s *Store) AddJobType(v domain.JobType)               { s.jobTypes.put(v) }
func (s *Store) AddSpecialization(v domain.Specialization) { s.specializations.put(v) }
func (s *Store) AddLanguage(v domain.Language)             { s.languages.put(v) }
func (s *Store) AddCity(v domain.City)                     { s.cities.put(v) }
func (s *Store) AddCountry(v domain.Country)               { s.countries.put(v) }
func (s *Store) AddContractual(v domain.Contractual)       { s.contractuals.put(v) }

// ============================================================================
// Child tables
// ============================================================================

type childTable[T any] struct {
	rows   map[int64]T
	next   int64
	keys   func(T) (id, merchandiserID int64)
	assign func(t *T, id, merchandiserID int64)
}

func newChildTable[T any](keys func(T) (int64, int64), assign func(*T, int64, int64)) *childTable[T] {
	return &childTable[T]{rows: make(map[int64]T), keys: keys, assign: assign}
}

// byMerchandiser must be called with the lock held.
func (t *childTable[T]) byMerchandiser(merchandiserID int64) []T {
	var out []T
	for _, row := range t.rows {
		if _, owner := t.keys(row); owner == merchandiserID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := t.keys(out[i])
		b, _ := t.keys(out[j])
		return a < b
	})
	return out
}

// ============================================================================
// Catalogs
// ============================================================================

type catalog[T any] struct {
	store *Store
	rows  map[int64]T
	id    func(T) int64
}

func newCatalog[T any](s *Store, id func(T) int64) *catalog[T] {
	return &catalog[T]{store: s, rows: make(map[int64]T), id: id}
}

func (c *catalog[T]) put(v T) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.rows[c.id(v)] = v
}
