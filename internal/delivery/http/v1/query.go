package v1

import (
	"strconv"
	"strings"

	"merchandiser-backend/internal/domain"
	"merchandiser-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 20

// parseSearchRequest reads filters, sorting and paging from the query string.
// Malformed list entries are skipped; limit=0 asks for every row.
func parseSearchRequest(c *gin.Context) domain.SearchRequest {
	filter := domain.MerchandiserFilter{
		Search:             strings.TrimSpace(c.Query("search")),
		City:               strings.TrimSpace(c.Query("city")),
		JobTypeName:        c.Query("job_type_name"),
		SpecializationName: c.Query("specialization_name"),
		LanguageName:       c.Query("language_name"),
		Age:                c.Query("age"),
		HasWebsite:         c.Query("has_website"),
		Status:             c.Query("status"),
	}
	if ids := c.Query("job_type_ids"); ids != "" {
		filter.JobTypeIDs = parseIDList(ids)
	}
	if ids := c.Query("city_ids"); ids != "" {
		filter.CityIDs = parseIDList(ids)
	}
	if ids := c.Query("country_ids"); ids != "" {
		filter.CountryIDs = parseIDList(ids)
	}
	if ids := c.Query("language_ids"); ids != "" {
		filter.LanguageIDs = parseIDList(ids)
	}
	if ids := c.Query("specialization_ids"); ids != "" {
		filter.SpecializationIDs = parseIDList(ids)
	}

	return domain.SearchRequest{
		Filter:     filter,
		Sort:       parseSort(c.Query("sort")),
		Pagination: parsePagination(c),
	}
}

func parsePagination(c *gin.Context) domain.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil {
		limit = defaultPageSize
	}
	return domain.Pagination{Page: page, Limit: limit}
}

// parseSort reads "field:dir,field:dir". A missing direction means asc.
func parseSort(s string) []domain.SortField {
	if s == "" {
		return nil
	}
	var fields []domain.SortField
	for _, part := range strings.Split(s, ",") {
		name, dir, _ := strings.Cut(strings.TrimSpace(part), ":")
		if name == "" {
			continue
		}
		if dir == "" {
			dir = "asc"
		}
		fields = append(fields, domain.SortField{Field: name, Direction: strings.ToLower(dir)})
	}
	return fields
}

// parseIDList parses a comma-separated list of positive ids. A list whose
// entries are all invalid yields an empty, non-nil slice.
func parseIDList(s string) []int64 {
	parts := strings.Split(s, ",")
	result := make([]int64, 0, len(parts))
	for _, p := range parts {
		if v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64); err == nil && v > 0 {
			result = append(result, v)
		}
	}
	return result
}

func parseID(c *gin.Context, label string) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.BadRequest("Invalid " + label + " ID")
	}
	return id, nil
}

func viewerID(c *gin.Context) string {
	return c.GetString(string(domain.KeyUserID))
}

func viewerRole(c *gin.Context) string {
	return c.GetString(string(domain.KeyUserRole))
}
