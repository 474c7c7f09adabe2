package postgres

import (
	"testing"
	"time"

	"merchandiser-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchQueries(t *testing.T) {
	t.Run("Should exclude soft-removed profiles and count distinct roots", func(t *testing.T) {
		count, page, countArgs, pageArgs, err := buildSearchQueries(domain.SearchQuery{})

		require.NoError(t, err)
		assert.Contains(t, count, "COUNT(DISTINCT m.id)")
		assert.Contains(t, count, "m.deleted_at IS NULL")
		assert.Empty(t, countArgs)
		assert.Empty(t, pageArgs)
		assert.Contains(t, page, "ORDER BY m.created_at DESC, m.id ASC")
	})

	t.Run("Should skip LIMIT and OFFSET when limit is zero", func(t *testing.T) {
		_, page, _, _, err := buildSearchQueries(domain.SearchQuery{Limit: 0, Offset: 40})

		require.NoError(t, err)
		assert.NotContains(t, page, "LIMIT")
		assert.NotContains(t, page, "OFFSET")
	})

	t.Run("Should number placeholders after the predicates", func(t *testing.T) {
		q := domain.SearchQuery{
			Predicates: []domain.Predicate{
				domain.TextMatch{Fields: []domain.SearchField{domain.FieldFullName, domain.FieldEmail}, Value: "50%_off"},
				domain.IDSetMatch{Field: domain.FieldJobTypeID, IDs: []int64{1, 2}},
			},
			Order: []domain.OrderTerm{{Key: domain.SortKeyLastName}, {Key: domain.SortKeyID}},
			Limit: 20, Offset: 20,
		}

		count, page, countArgs, pageArgs, err := buildSearchQueries(q)

		require.NoError(t, err)
		assert.Len(t, countArgs, 2)
		assert.Len(t, pageArgs, 4)
		assert.Equal(t, `%50\%\_off%`, countArgs[0])
		assert.Contains(t, count, "TRIM(u.first_name || ' ' || u.last_name) ILIKE $1 OR u.email ILIKE $1")
		assert.Contains(t, count, "EXISTS (SELECT 1 FROM merchandiser_job_types x WHERE x.merchandiser_id = m.id AND x.job_type_id = ANY($2))")
		assert.Contains(t, page, "ORDER BY LOWER(u.last_name) ASC NULLS LAST, m.id ASC NULLS LAST")
		assert.Contains(t, page, "LIMIT $3 OFFSET $4")
		assert.Equal(t, 20, pageArgs[2])
	})

	t.Run("Should translate ranges and flags", func(t *testing.T) {
		after := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
		upTo := time.Date(2000, 5, 1, 0, 0, 0, 0, time.UTC)
		q := domain.SearchQuery{Predicates: []domain.Predicate{
			domain.RangeMatch{Field: domain.FieldBirthday, After: &after, OnOrBefore: &upTo},
			domain.BooleanFlagMatch{Field: domain.FieldWebsite, Want: false},
		}}

		count, _, args, _, err := buildSearchQueries(q)

		require.NoError(t, err)
		assert.Contains(t, count, "m.birthday > $1::date")
		assert.Contains(t, count, "m.birthday <= $2::date")
		assert.Contains(t, count, "(m.website IS NULL OR m.website = '')")
		assert.Equal(t, []interface{}{"1990-05-01", "2000-05-01"}, args)
	})

	t.Run("Should match nothing for an empty id set", func(t *testing.T) {
		count, _, args, _, err := buildSearchQueries(domain.SearchQuery{Predicates: []domain.Predicate{
			domain.IDSetMatch{Field: domain.FieldID, IDs: []int64{}},
		}})

		require.NoError(t, err)
		assert.Contains(t, count, "AND FALSE")
		assert.Empty(t, args)
	})

	t.Run("Should reject fields a predicate cannot target", func(t *testing.T) {
		_, _, _, _, err := buildSearchQueries(domain.SearchQuery{Predicates: []domain.Predicate{
			domain.RangeMatch{Field: domain.FieldEmail},
		}})

		assert.Error(t, err)
	})
}
