package entry

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dojolog/dojolog/internal/rest"
	"github.com/gorilla/mux"
)

type DayEntryDTO struct {
	UID             string `json:"uid,omitempty"`
	Date            string `json:"date"`
	Activity        string `json:"activity"`
	DurationMinutes int    `json:"durationMinutes"`
	RPE             *int   `json:"rpe,omitempty"`
	EnergyLevel     *int   `json:"energyLevel,omitempty"`
	Emphasis        string `json:"emphasis,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), entry)
	if err != nil {
		writeEntryError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(entryToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["entryUid"]
	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	entry.UID = uid

	updated, err := h.service.Update(r.Context(), entry)
	if err != nil {
		writeEntryError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entryToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["entryUid"]
	if err := h.service.Delete(r.Context(), uid); err != nil {
		writeEntryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	date, err := time.ParseInLocation(DateFormat, r.URL.Query().Get("date"), time.UTC)
	if err != nil {
		writeBadRequest(w, "Invalid date format", "date must be in YYYY-MM-DD format")
		return
	}

	found, err := h.service.GetByDate(r.Context(), date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if found == nil {
		writeNotFound(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entryToDTO(*found)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	from, err := time.ParseInLocation(DateFormat, r.URL.Query().Get("from"), time.UTC)
	if err != nil {
		writeBadRequest(w, "Invalid from date", "from must be in YYYY-MM-DD format")
		return
	}
	to, err := time.ParseInLocation(DateFormat, r.URL.Query().Get("to"), time.UTC)
	if err != nil {
		writeBadRequest(w, "Invalid to date", "to must be in YYYY-MM-DD format")
		return
	}

	entries, err := h.service.ListRange(r.Context(), from, to)
	if err != nil {
		writeEntryError(w, err)
		return
	}

	dtos := make([]DayEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, entryToDTO(e))
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func decodeEntry(w http.ResponseWriter, r *http.Request) (DayEntry, bool) {
	var dto DayEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body", err.Error())
		return DayEntry{}, false
	}
	date, err := time.ParseInLocation(DateFormat, dto.Date, time.UTC)
	if err != nil {
		writeBadRequest(w, "Invalid date format", "date must be in YYYY-MM-DD format")
		return DayEntry{}, false
	}
	return DayEntry{
		UID:             dto.UID,
		Date:            date,
		Activity:        ActivityType(dto.Activity),
		DurationMinutes: dto.DurationMinutes,
		RPE:             dto.RPE,
		EnergyLevel:     dto.EnergyLevel,
		Emphasis:        Emphasis(dto.Emphasis),
		Notes:           dto.Notes,
	}, true
}

func entryToDTO(e DayEntry) DayEntryDTO {
	return DayEntryDTO{
		UID:             e.UID,
		Date:            e.Date.Format(DateFormat),
		Activity:        string(e.Activity),
		DurationMinutes: e.DurationMinutes,
		RPE:             e.RPE,
		EnergyLevel:     e.EnergyLevel,
		Emphasis:        string(e.Emphasis),
		Notes:           e.Notes,
	}
}

func writeEntryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeNotFound(w)
	case errors.Is(err, ErrDuplicateDate):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrUnknownActivity),
		errors.Is(err, ErrInvalidRPE),
		errors.Is(err, ErrRestWithRPE),
		errors.Is(err, ErrInvalidEnergy),
		errors.Is(err, ErrUnknownEmphasis),
		errors.Is(err, ErrNegativeDuration),
		errors.Is(err, ErrInvalidRange):
		writeBadRequest(w, "Invalid entry", err.Error())
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeBadRequest(w http.ResponseWriter, msg string, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: msg, Details: details})
}

func writeNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "entry not found"})
}
