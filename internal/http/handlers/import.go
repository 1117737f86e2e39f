package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/knockline/backend/internal/models"
)

type ImportSummary struct {
	Parsed   int      `json:"parsed"`
	Inserted int      `json:"inserted"`
	Errors   []string `json:"errors"`
}

// @Summary Import contacts CSV
// @Description Upload a contacts CSV; flexible header names are accepted
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param contacts formData file true "contacts.csv"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/contacts/import [post]
func (h *Handler) Import(c *gin.Context) {
	file, err := c.FormFile("contacts")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "contacts file required", nil)
		return
	}
	if strings.ToLower(filepath.Ext(file.Filename)) != ".csv" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file must be .csv", nil)
		return
	}

	contacts, errs := parseContactsCSV(file)
	summary := ImportSummary{Parsed: len(contacts), Errors: errs}
	if len(errs) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "CSV validation errors", errs)
		return
	}

	inserted, err := h.Store.ImportContacts(c.Request.Context(), contacts)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert contacts", err.Error())
		return
	}
	summary.Inserted = int(inserted)
	c.JSON(http.StatusOK, summary)
}

func parseContactsCSV(file *multipart.FileHeader) ([]models.Contact, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.Contact

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id := getFieldAny(rec, index, "id", "contact_id")
		name := getFieldAny(rec, index, "name", "full_name", "full name", "client")
		street := getFieldAny(rec, index, "address", "street")
		house := getFieldAny(rec, index, "house", "house_number", "number")
		addr := strings.TrimSpace(strings.TrimSpace(house + " " + street))
		if house == "" {
			addr = street
		}
		phone := getFieldAny(rec, index, "phone", "phone_number", "tel")
		email := getFieldAny(rec, index, "email", "e-mail")
		list := normalizeListName(getFieldAny(rec, index, "list", "type", "status"))
		latStr := getFieldAny(rec, index, "lat", "latitude")
		lonStr := getFieldAny(rec, index, "lon", "lng", "longitude")

		if addr == "" {
			errs = append(errs, fmt.Sprintf("row %d: address required", len(out)+1))
			continue
		}
		if id == "" {
			id = uuid.NewString()
		}
		if list == "" {
			list = models.ListProspects
		}

		contact := models.Contact{
			ID:        id,
			Name:      name,
			Address:   addr,
			Phone:     phone,
			Email:     email,
			List:      list,
			CreatedAt: time.Now().UTC(),
		}
		if lat, err := strconv.ParseFloat(latStr, 64); err == nil {
			if lon, err := strconv.ParseFloat(lonStr, 64); err == nil {
				contact.Lat = &lat
				contact.Lon = &lon
			}
		}
		out = append(out, contact)
	}
	return out, errs
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func getField(rec []string, idx map[string]int, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

func getFieldAny(rec []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if v := getField(rec, idx, normalizeHeader(name)); v != "" {
			return v
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\uFEFF", "")
	return strings.ToLower(strings.TrimSpace(h))
}
