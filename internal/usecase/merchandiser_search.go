package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"merchandiser-backend/internal/domain"
	"merchandiser-backend/internal/search"
	"merchandiser-backend/pkg/apperror"
	"merchandiser-backend/pkg/logger"

	"github.com/xuri/excelize/v2"
)

// Search runs a filtered, sorted page and enriches every row with favorite
// status, review stats and the portrait. Zero matches is an empty page.
func (u *merchandiserUsecase) Search(ctx context.Context, req domain.SearchRequest, viewerUserID string) (*domain.PaginatedResult[domain.MerchandiserSearchItem], error) {
	q, page := search.BuildQuery(req, u.now())

	items, total, err := u.stores.Merchandisers.Search(ctx, q)
	if err != nil {
		return nil, storeError(err, "")
	}

	if err := u.enrich(ctx, items, viewerUserID); err != nil {
		return nil, err
	}
	return search.NewPage(items, total, page), nil
}

// ListFavorites returns the viewer's favorite merchandisers as a search page.
func (u *merchandiserUsecase) ListFavorites(ctx context.Context, viewerUserID string, page domain.Pagination) (*domain.PaginatedResult[domain.MerchandiserSearchItem], error) {
	akzente, err := u.stores.Akzente.GetByUserID(ctx, viewerUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.Forbidden("Only Akzente staff have favorites")
		}
		return nil, storeError(err, "")
	}

	ids, err := u.stores.Favorites.ListMerchandiserIDs(ctx, akzente.ID)
	if err != nil {
		return nil, storeError(err, "")
	}
	if ids == nil {
		ids = []int64{}
	}

	return u.Search(ctx, domain.SearchRequest{
		Filter:     domain.MerchandiserFilter{IDs: ids},
		Pagination: page,
	}, viewerUserID)
}

// enrich fills the per-viewer and aggregated fields of a page. Favorite and
// portrait lookups are best effort; review stats failures are returned.
func (u *merchandiserUsecase) enrich(ctx context.Context, items []domain.MerchandiserSearchItem, viewerUserID string) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}

	favorites := u.favoriteSet(ctx, viewerUserID)

	stats, err := u.stores.Reviews.StatsByMerchandiserIDs(ctx, ids)
	if err != nil {
		return storeError(err, "")
	}

	portraits := u.loadPortraits(ctx, ids)

	for i := range items {
		items[i].IsFavorite = favorites[items[i].ID]
		items[i].ReviewStats = stats[items[i].ID]
		if p, ok := portraits[items[i].ID]; ok {
			items[i].Portrait = &p
		}
	}
	return nil
}

// favoriteSet loads the viewer's favorites once. An anonymous viewer, a
// viewer who is not Akzente staff or a failed lookup all give an empty set.
func (u *merchandiserUsecase) favoriteSet(ctx context.Context, viewerUserID string) map[int64]bool {
	if viewerUserID == "" {
		return nil
	}

	akzente, err := u.stores.Akzente.GetByUserID(ctx, viewerUserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Log.Warn("Akzente lookup failed", "user_id", viewerUserID, "error", err)
		}
		return nil
	}

	ids, err := u.stores.Favorites.ListMerchandiserIDs(ctx, akzente.ID)
	if err != nil {
		logger.Log.Warn("Favorite lookup failed", "akzente_id", akzente.ID, "error", err)
		return nil
	}

	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

var exportColumns = []string{
	"ID", "FIRST NAME", "LAST NAME", "EMAIL", "PHONE", "CITY", "POSTAL CODE",
	"NATIONALITY", "STATUS", "AGE", "WEBSITE", "AVERAGE RATING", "REVIEWS", "REGISTERED AT",
}

// ExportSearch writes every row matching the request to an xlsx workbook.
func (u *merchandiserUsecase) ExportSearch(ctx context.Context, req domain.SearchRequest) ([]byte, string, error) {
	req.Pagination = domain.Pagination{Page: 1, Limit: 0}

	result, err := u.Search(ctx, req, "")
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheetName := "Merchandisers"
	f.SetSheetName("Sheet1", sheetName)

	for i, header := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	f.SetCellStyle(sheetName, "A1", endCell, headerStyle)

	now := u.now()
	for rowIdx, item := range result.Data {
		for colIdx, value := range exportRow(item, now) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range exportColumns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	filename := fmt.Sprintf("merchandisers_%s.xlsx", now.Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

func exportRow(it domain.MerchandiserSearchItem, now time.Time) []interface{} {
	city := ""
	if it.CityName != nil {
		city = *it.CityName
	}
	var age interface{} = ""
	if a := domain.AgeAt(it.Birthday, now); a != nil {
		age = *a
	}
	website := ""
	if it.Website != nil {
		website = *it.Website
	}

	return []interface{}{
		it.ID, it.FirstName, it.LastName, it.Email, it.Phone, city, it.PostalCode,
		it.Nationality, it.Status, age, website, it.ReviewStats.AverageRating, it.ReviewStats.ReviewCount,
		it.CreatedAt.Format("2006-01-02"),
	}
}
