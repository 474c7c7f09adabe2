package v1

import (
	"net/http"
	"strconv"

	"merchandiser-backend/internal/delivery/http/response"
	"merchandiser-backend/internal/domain"
	"merchandiser-backend/pkg/apperror"
	"merchandiser-backend/pkg/audit"

	"github.com/gin-gonic/gin"
)

type MerchandiserHandler struct {
	merchandiserUC domain.MerchandiserUsecase
	favoriteUC     domain.FavoriteUsecase
}

// staffRoles may manage any profile.
var staffRoles = []string{domain.RoleAdmin, domain.RoleAkzente}

func isStaff(role string) bool {
	for _, r := range staffRoles {
		if r == role {
			return true
		}
	}
	return false
}

// NewMerchandiserHandler registers profile, search and favorite routes.
// public carries optional authentication, protected requires it.
func NewMerchandiserHandler(public, protected *gin.RouterGroup, merchandiserUC domain.MerchandiserUsecase, favoriteUC domain.FavoriteUsecase, searchLimit, exportLimit, staffOnly gin.HandlerFunc) {
	handler := &MerchandiserHandler{merchandiserUC: merchandiserUC, favoriteUC: favoriteUC}

	public.GET("/merchandisers", searchLimit, handler.Search)
	public.GET("/merchandisers/:id", handler.GetProfile)

	m := protected.Group("/merchandisers")
	{
		m.POST("", handler.Register)
		m.GET("/export", staffOnly, exportLimit, handler.Export)
		m.GET("/favorites", searchLimit, handler.ListFavorites)
		m.PATCH("/:id", handler.Update)
		m.DELETE("/:id", handler.Remove)
		m.POST("/:id/resync", staffOnly, handler.ResyncJobTypes)
		m.POST("/:id/favorite", handler.ToggleFavorite)
	}
}

// Search godoc
// @Summary      Search merchandisers
// @Description  Filtered, sorted page of merchandiser profiles. limit=0 returns every match.
// @Tags         merchandisers
// @Produce      json
// @Param        search              query  string  false  "Substring of name, email or website"
// @Param        city                query  string  false  "Substring of city name or postal code"
// @Param        job_type_ids        query  string  false  "Comma-separated job type ids"
// @Param        city_ids            query  string  false  "Comma-separated city ids"
// @Param        country_ids         query  string  false  "Comma-separated country ids"
// @Param        language_ids        query  string  false  "Comma-separated language ids"
// @Param        specialization_ids  query  string  false  "Comma-separated specialization ids"
// @Param        age                 query  string  false  "18-30, 31-45, 46-60, 60+ or min-max"
// @Param        has_website         query  string  false  "true or false"
// @Param        sort                query  string  false  "field:dir list, e.g. lastName:asc,age:desc"
// @Param        page                query  int     false  "Page number (default: 1)"
// @Param        limit               query  int     false  "Page size (default: 20, max: 100, 0: all)"
// @Success      200  {object}  response.Response
// @Router       /merchandisers [get]
func (h *MerchandiserHandler) Search(c *gin.Context) {
	result, err := h.merchandiserUC.Search(c.Request.Context(), parseSearchRequest(c), viewerID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Merchandisers retrieved", result)
}

// Export godoc
// @Summary      Export merchandisers
// @Description  Downloads every merchandiser matching the search filters as xlsx
// @Tags         merchandisers
// @Produce      application/octet-stream
// @Security     BearerAuth
// @Success      200  {file}    binary
// @Failure      403  {object}  response.Response
// @Router       /merchandisers/export [get]
func (h *MerchandiserHandler) Export(c *gin.Context) {
	data, filename, err := h.merchandiserUC.ExportSearch(c.Request.Context(), parseSearchRequest(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Attachment(c, filename, response.ContentTypeXLSX, data)
}

// ListFavorites godoc
// @Summary      List my favorite merchandisers
// @Tags         merchandisers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /merchandisers/favorites [get]
func (h *MerchandiserHandler) ListFavorites(c *gin.Context) {
	result, err := h.merchandiserUC.ListFavorites(c.Request.Context(), viewerID(c), parsePagination(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Favorites retrieved", result)
}

// Register godoc
// @Summary      Create my merchandiser profile
// @Tags         merchandisers
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /merchandisers [post]
func (h *MerchandiserHandler) Register(c *gin.Context) {
	profile, err := h.merchandiserUC.Register(c.Request.Context(), viewerID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Merchandiser profile created", profile)
}

// GetProfile godoc
// @Summary      Get a merchandiser profile
// @Tags         merchandisers
// @Produce      json
// @Param        id   path      int  true  "Merchandiser ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /merchandisers/{id} [get]
func (h *MerchandiserHandler) GetProfile(c *gin.Context) {
	id, err := parseID(c, "merchandiser")
	if err != nil {
		c.Error(err)
		return
	}

	profile, err := h.merchandiserUC.GetProfile(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Merchandiser retrieved", profile)
}

// Update godoc
// @Summary      Update a merchandiser profile
// @Description  Partial update. Omitted fields are kept, null clears, collections are replaced by id.
// @Tags         merchandisers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Merchandiser ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /merchandisers/{id} [patch]
func (h *MerchandiserHandler) Update(c *gin.Context) {
	id, ok := h.authorizeManage(c)
	if !ok {
		return
	}

	var payload domain.MerchandiserUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	profile, err := h.merchandiserUC.Update(c.Request.Context(), id, &payload)
	if err != nil {
		c.Error(err)
		return
	}
	logChange(c, audit.EventProfileChanged, "merchandiser", id)
	response.Success(c, http.StatusOK, "Merchandiser updated", profile)
}

// Remove godoc
// @Summary      Remove a merchandiser profile
// @Tags         merchandisers
// @Security     BearerAuth
// @Param        id   path      int  true  "Merchandiser ID"
// @Success      200  {object}  response.Response
// @Router       /merchandisers/{id} [delete]
func (h *MerchandiserHandler) Remove(c *gin.Context) {
	id, ok := h.authorizeManage(c)
	if !ok {
		return
	}

	if err := h.merchandiserUC.Remove(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	logChange(c, audit.EventProfileRemoved, "merchandiser", id)
	response.Success(c, http.StatusOK, "Merchandiser removed", nil)
}

// ResyncJobTypes rebuilds the derived job types of one profile.
func (h *MerchandiserHandler) ResyncJobTypes(c *gin.Context) {
	id, err := parseID(c, "merchandiser")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.merchandiserUC.ResyncJobTypes(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Job types resynced", nil)
}

// ToggleFavorite godoc
// @Summary      Toggle a favorite
// @Tags         merchandisers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Merchandiser ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /merchandisers/{id}/favorite [post]
func (h *MerchandiserHandler) ToggleFavorite(c *gin.Context) {
	id, err := parseID(c, "merchandiser")
	if err != nil {
		c.Error(err)
		return
	}

	state, err := h.favoriteUC.Toggle(c.Request.Context(), id, viewerID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Favorite updated", gin.H{"is_favorite": state})
}

// authorizeManage lets staff manage any profile and merchandisers only their
// own. On failure the error is already recorded.
func (h *MerchandiserHandler) authorizeManage(c *gin.Context) (int64, bool) {
	id, err := parseID(c, "merchandiser")
	if err != nil {
		c.Error(err)
		return 0, false
	}
	if isStaff(viewerRole(c)) {
		return id, true
	}

	profile, err := h.merchandiserUC.GetProfile(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return 0, false
	}
	if profile.UserID != viewerID(c) {
		c.Error(apperror.Forbidden("You can only manage your own profile"))
		return 0, false
	}
	return id, true
}

func logChange(c *gin.Context, event audit.EventType, subjectType string, id int64) {
	audit.Default().Log(c.Request.Context(), audit.Event{
		Event:       event,
		ActorID:     viewerID(c),
		SubjectType: subjectType,
		SubjectID:   strconv.FormatInt(id, 10),
		IP:          c.ClientIP(),
		RequestID:   c.GetString("RequestID"),
		Path:        c.FullPath(),
		Details:     map[string]interface{}{"method": c.Request.Method},
	})
}
