package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/knockline/backend/internal/geocode"
	"github.com/knockline/backend/internal/models"
	"github.com/knockline/backend/internal/utils"
	"github.com/knockline/backend/internal/workflow"
)

// SessionRegistry keeps the in-flight workflow sessions. The engine does no
// locking of its own, so the registry enforces the single-open-session-per-
// contact rule on behalf of the UI.
type SessionRegistry struct {
	mu        sync.Mutex
	byID      map[string]*workflow.Session
	byContact map[string]string
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byID:      map[string]*workflow.Session{},
		byContact: map[string]string{},
	}
}

var errSessionConflict = errors.New("contact already has an open session")

func (r *SessionRegistry) Open(s *workflow.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.byContact[s.Contact.ID]; busy {
		return errSessionConflict
	}
	r.byID[s.ID] = s
	r.byContact[s.Contact.ID] = s.ID
	return nil
}

func (r *SessionRegistry) Get(id string) (*workflow.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	return s, ok
}

func (r *SessionRegistry) OpenSessionFor(contactID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byContact[contactID]
	return id, ok
}

// Rebind moves the contact key after a conversion replaced the session's
// contact identity.
func (r *SessionRegistry) Rebind(oldContactID, newContactID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byContact, oldContactID)
	r.byContact[newContactID] = sessionID
}

func (r *SessionRegistry) Remove(s *workflow.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, s.ID)
	delete(r.byContact, s.Contact.ID)
}

type CreateSessionRequest struct {
	ContactID string `json:"contact_id"`
	Address   string `json:"address"`
	Name      string `json:"name"`
	Outcome   string `json:"outcome" validate:"required"`
	Operator  string `json:"operator"`
}

// @Summary Open a knock session
// @Description Records the knock with the chosen outcome and returns the step sequence
// @Tags sessions
// @Accept json
// @Produce json
// @Success 201 {object} workflow.Session
// @Failure 409 {object} map[string]any
// @Router /api/sessions [post]
func (h *Handler) SessionCreate(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	outcome, err := workflow.ParseOutcome(req.Outcome)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown outcome", req.Outcome)
		return
	}

	contact, err := h.sessionContact(c, req)
	if err != nil {
		return // response already written
	}

	if openID, busy := h.Sessions.OpenSessionFor(contact.ID); busy {
		writeError(c, http.StatusConflict, "SESSION_OPEN", "Contact already has an open session", gin.H{"session_id": openID})
		return
	}

	session, err := h.Engine.ChooseOutcome(c.Request.Context(), contact, outcome, req.Operator)
	if err != nil {
		if errors.Is(err, workflow.ErrAlreadyCustomer) {
			writeError(c, http.StatusConflict, "OUTCOME_INVALID", "Contact is already a customer", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to record knock", err.Error())
		return
	}
	if err := h.Sessions.Open(session); err != nil {
		// Lost the race; the knock stands (committed side effects are not
		// rolled back) but no second session opens.
		writeError(c, http.StatusConflict, "SESSION_OPEN", "Contact already has an open session", nil)
		return
	}
	c.JSON(http.StatusCreated, sessionView(session))
}

// sessionContact loads or creates the contact a new session targets. Writes
// the error response itself on failure.
func (h *Handler) sessionContact(c *gin.Context, req CreateSessionRequest) (models.Contact, error) {
	if req.ContactID != "" {
		contact, err := h.Store.GetContact(c.Request.Context(), req.ContactID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(c, http.StatusNotFound, "NOT_FOUND", "Contact not found", nil)
				return models.Contact{}, err
			}
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load contact", err.Error())
			return models.Contact{}, err
		}
		return contact, nil
	}

	addr := strings.TrimSpace(req.Address)
	if addr == "" {
		err := errors.New("contact_id or address required")
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return models.Contact{}, err
	}
	if existing := h.resolveAddress(c.Request.Context(), addr); existing != nil {
		return *existing, nil
	}

	// Fresh doorstep: the tapped address becomes a new prospect.
	contact := models.Contact{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Address:   addr,
		List:      models.ListProspects,
		CreatedAt: time.Now().UTC(),
	}
	if place, err := h.Geocoder.Geocode(c.Request.Context(), geocode.BuildQuery(addr, "", h.CountryDefault)); err == nil {
		contact.Lat = &place.Lat
		contact.Lon = &place.Lon
	}
	if err := h.Store.InsertContact(c.Request.Context(), contact); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert contact", err.Error())
		return models.Contact{}, err
	}
	return contact, nil
}

func (h *Handler) SessionGet(c *gin.Context) {
	session, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

type DraftRequest struct {
	ObjectionID *string `json:"objection_id"`
	FollowUpAt  *string `json:"follow_up_at"`
	NoteText    *string `json:"note_text"`
	TripStart   *string `json:"trip_start"`
	TripEnd     *string `json:"trip_end"`
	TripDate    *string `json:"trip_date"`
}

func (h *Handler) SessionDraft(c *gin.Context) {
	session, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
		return
	}
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}

	if req.ObjectionID != nil {
		if err := h.Engine.SelectObjection(c.Request.Context(), session, *req.ObjectionID); err != nil {
			h.writeEngineError(c, err)
			return
		}
	}
	if req.FollowUpAt != nil {
		at, err := time.Parse(time.RFC3339, *req.FollowUpAt)
		if err != nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "follow_up_at must be RFC3339", err.Error())
			return
		}
		session.Draft.FollowUpAt = at
	}
	if req.NoteText != nil {
		session.Draft.NoteText = *req.NoteText
	}
	if req.TripStart != nil {
		session.Draft.TripStart = strings.TrimSpace(*req.TripStart)
	}
	if req.TripEnd != nil {
		session.Draft.TripEnd = strings.TrimSpace(*req.TripEnd)
	}
	if req.TripDate != nil {
		date, err := time.Parse(time.RFC3339, *req.TripDate)
		if err != nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "trip_date must be RFC3339", err.Error())
			return
		}
		session.Draft.TripDate = date
	}
	if (req.TripStart != nil || req.TripEnd != nil) && session.Draft.TripStart != "" && session.Draft.TripEnd != "" {
		session.Draft.TripDistance = h.tripDistance(c, session.Draft.TripStart, session.Draft.TripEnd)
	}

	c.JSON(http.StatusOK, sessionView(session))
}

// tripDistance geocodes both trip endpoints and measures the great-circle
// distance. Unresolvable endpoints leave the distance at zero.
func (h *Handler) tripDistance(c *gin.Context, start, end string) float64 {
	from, err := h.Geocoder.Geocode(c.Request.Context(), geocode.BuildQuery(start, "", h.CountryDefault))
	if err != nil {
		return 0
	}
	to, err := h.Geocoder.Geocode(c.Request.Context(), geocode.BuildQuery(end, "", h.CountryDefault))
	if err != nil {
		return 0
	}
	return utils.HaversineKm(from.Lat, from.Lon, to.Lat, to.Lon)
}

func (h *Handler) SessionAdvance(c *gin.Context) {
	session, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
		return
	}
	if err := h.Engine.Advance(c.Request.Context(), session); err != nil {
		h.writeEngineError(c, err)
		return
	}
	if session.Done() {
		h.Engine.Close(session)
		h.Sessions.Remove(session)
	}
	c.JSON(http.StatusOK, sessionView(session))
}

func (h *Handler) SessionSkip(c *gin.Context) {
	session, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
		return
	}
	if err := h.Engine.Skip(c.Request.Context(), session); err != nil {
		h.writeEngineError(c, err)
		return
	}
	if session.Done() {
		h.Engine.Close(session)
		h.Sessions.Remove(session)
	}
	c.JSON(http.StatusOK, sessionView(session))
}

// @Summary Convert session contact to customer
// @Tags sessions
// @Produce json
// @Success 200 {object} models.Contact
// @Failure 409 {object} map[string]any
// @Router /api/sessions/{id}/convert [post]
func (h *Handler) SessionConvert(c *gin.Context) {
	session, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
		return
	}
	oldContactID := session.Contact.ID
	customer, err := h.Engine.Convert(c.Request.Context(), session)
	if err != nil {
		if customer.ID != "" {
			// Customer row exists but the move or delete failed: duplicate
			// records until manual cleanup.
			writeError(c, http.StatusInternalServerError, "CONVERSION_PARTIAL", "Conversion partially applied", gin.H{
				"customer_id": customer.ID,
				"error":       err.Error(),
			})
			return
		}
		h.writeEngineError(c, err)
		return
	}
	if customer.ID != oldContactID {
		h.Sessions.Rebind(oldContactID, customer.ID, session.ID)
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) SessionClose(c *gin.Context) {
	session, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
		return
	}
	h.Engine.Close(session)
	h.Sessions.Remove(session)
	c.JSON(http.StatusOK, gin.H{"closed": true, "done": session.Done()})
}

func (h *Handler) writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrStepNotSatisfied):
		writeError(c, http.StatusConflict, "STEP_NOT_SATISFIED", "Current step is not satisfied", nil)
	case errors.Is(err, workflow.ErrSkipNotAllowed):
		writeError(c, http.StatusConflict, "SKIP_NOT_ALLOWED", "Current step cannot be skipped", nil)
	case errors.Is(err, workflow.ErrWrongStep):
		writeError(c, http.StatusConflict, "WRONG_STEP", "Operation not valid for current step", nil)
	case errors.Is(err, workflow.ErrSessionClosed), errors.Is(err, workflow.ErrSessionDone):
		writeError(c, http.StatusConflict, "SESSION_FINISHED", "Session is closed or done", nil)
	case errors.Is(err, workflow.ErrAlreadyCustomer):
		writeError(c, http.StatusConflict, "OUTCOME_INVALID", "Contact is already a customer", nil)
	case errors.Is(err, pgx.ErrNoRows):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Referenced record not found", nil)
	default:
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Persistence failed", err.Error())
	}
}

func sessionView(s *workflow.Session) gin.H {
	return gin.H{
		"session":   s,
		"current":   s.Current(),
		"satisfied": s.Satisfied(),
		"done":      s.Done(),
	}
}
