package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/knockline/backend/internal/address"
	"github.com/knockline/backend/internal/db"
	"github.com/knockline/backend/internal/geocode"
	"github.com/knockline/backend/internal/models"
	"github.com/knockline/backend/internal/suggest"
	"github.com/knockline/backend/internal/workflow"
)

type Handler struct {
	Store          *db.Store
	Geocoder       geocode.Geocoder
	Engine         *workflow.Engine
	Searcher       *suggest.Searcher
	Sessions       *SessionRegistry
	Validator      *validator.Validate
	Logger         zerolog.Logger
	AdminKey       string
	CountryDefault string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ContactsList(c *gin.Context) {
	list := normalizeListName(c.Query("list"))
	q := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Store.ListContacts(c.Request.Context(), list, q, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list contacts", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) ContactDetails(c *gin.Context) {
	result, err := h.Store.GetContactDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Contact not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get contact", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

type CreateContactRequest struct {
	Name    string   `json:"name"`
	Address string   `json:"address" validate:"required"`
	Phone   string   `json:"phone"`
	Email   string   `json:"email"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	List    string   `json:"list"`
}

// @Summary Create contact
// @Description Manual contact entry; the address is resolved against known contacts first
// @Tags contacts
// @Accept json
// @Produce json
// @Success 201 {object} models.Contact
// @Failure 409 {object} map[string]any
// @Router /api/contacts [post]
func (h *Handler) ContactCreate(c *gin.Context) {
	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	if existing := h.resolveAddress(c.Request.Context(), req.Address); existing != nil {
		writeError(c, http.StatusConflict, "ADDRESS_EXISTS", "A contact at this address already exists", existing)
		return
	}

	contact := models.Contact{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Address:   strings.TrimSpace(req.Address),
		Phone:     req.Phone,
		Email:     req.Email,
		Lat:       req.Lat,
		Lon:       req.Lon,
		List:      normalizeListName(req.List),
		CreatedAt: time.Now().UTC(),
	}
	if contact.List == "" {
		contact.List = models.ListProspects
	}
	if contact.Lat == nil || contact.Lon == nil {
		if place, err := h.Geocoder.Geocode(c.Request.Context(), geocode.BuildQuery(contact.Address, "", h.CountryDefault)); err == nil {
			contact.Lat = &place.Lat
			contact.Lon = &place.Lon
		} else {
			h.Logger.Warn().Str("address", contact.Address).Err(err).Msg("contact left without coordinate")
		}
	}

	if err := h.Store.InsertContact(c.Request.Context(), contact); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert contact", err.Error())
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *Handler) ContactDelete(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Store.GetContact(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Contact not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load contact", err.Error())
		return
	}
	if err := h.Store.PurgeContact(c.Request.Context(), id); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to delete contact", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// @Summary Resolve address identity
// @Description Matches a free-text address against known prospects and customers
// @Tags resolve
// @Produce json
// @Param address query string true "Address to resolve"
// @Success 200 {object} map[string]any
// @Router /api/resolve [get]
func (h *Handler) Resolve(c *gin.Context) {
	addr := strings.TrimSpace(c.Query("address"))
	if addr == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "address is required", nil)
		return
	}
	match := h.resolveAddress(c.Request.Context(), addr)
	c.JSON(http.StatusOK, gin.H{"match": match, "normalized": address.Normalize(addr)})
}

func (h *Handler) ObjectionsList(c *gin.Context) {
	items, err := h.Store.ListObjections(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list objections", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type CreateObjectionRequest struct {
	Text     string `json:"text" validate:"required"`
	Response string `json:"response"`
}

func (h *Handler) ObjectionCreate(c *gin.Context) {
	var req CreateObjectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	obj := models.Objection{
		ID:        uuid.NewString(),
		Text:      req.Text,
		Response:  req.Response,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.InsertObjection(c.Request.Context(), obj); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert objection", err.Error())
		return
	}
	c.JSON(http.StatusCreated, obj)
}

// @Summary Next neighbor suggestion
// @Description Proposes one un-visited address near a known customer
// @Tags suggestions
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/suggestions/next [get]
func (h *Handler) SuggestionNext(c *gin.Context) {
	contacts, err := h.Store.ListAllContacts(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load contacts", err.Error())
		return
	}

	var customers []models.Contact
	known := make([]string, 0, len(contacts))
	for _, contact := range contacts {
		known = append(known, contact.Address)
		if contact.IsCustomer() {
			customers = append(customers, contact)
		}
	}

	suggestion, err := h.Searcher.Next(c.Request.Context(), customers, known)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "SUGGEST_ERROR", "Suggestion search failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": suggestion})
}

func (h *Handler) AppointmentsList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	items, err := h.Store.ListAppointments(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list appointments", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) TripsList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	items, err := h.Store.ListTrips(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list trips", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// resolveAddress classifies an address against the full contact snapshot.
// Returns nil when nothing matches or the snapshot cannot be loaded.
func (h *Handler) resolveAddress(ctx context.Context, addr string) *models.Contact {
	contacts, err := h.Store.ListAllContacts(ctx)
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to load contacts for resolution")
		return nil
	}
	var prospects, customers []models.Contact
	for _, contact := range contacts {
		if contact.IsCustomer() {
			customers = append(customers, contact)
		} else {
			prospects = append(prospects, contact)
		}
	}
	return address.ResolveContact(addr, prospects, customers)
}

func normalizeListName(value string) string {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "PROSPECTS", "PROSPECT":
		return models.ListProspects
	case "CUSTOMERS", "CUSTOMER":
		return models.ListCustomers
	default:
		return ""
	}
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
