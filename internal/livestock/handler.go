package livestock

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"agrotrack/internal/httpx"
	"agrotrack/internal/upload"
)

// AgentsHandler serves the collection: list and create.
type AgentsHandler struct {
	Store  *Store
	Logger *slog.Logger
}

func (h *AgentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		agents, err := h.Store.ListAgents(r.Context())
		if err != nil {
			h.Logger.Error("list agents", "err", err)
			httpx.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		httpx.Data(w, http.StatusOK, agents)
	case http.MethodPost:
		var a Agent
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil || a.Name == "" {
			httpx.Error(w, http.StatusBadRequest, "name is required")
			return
		}
		if err := h.Store.CreateAgent(r.Context(), &a); err != nil {
			h.Logger.Error("create agent", "err", err)
			httpx.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		httpx.Data(w, http.StatusCreated, a)
	default:
		httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// AgentDetailHandler serves /api/v1/agents/{id}.
type AgentDetailHandler struct {
	Store  *Store
	Logger *slog.Logger
}

func (h *AgentDetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a, err := h.Store.GetAgent(r.Context(), id)
		if err != nil {
			writeStoreError(w, h.Logger, "get agent", err)
			return
		}
		httpx.Data(w, http.StatusOK, a)
	case http.MethodPut:
		var a Agent
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil || a.Name == "" {
			httpx.Error(w, http.StatusBadRequest, "name is required")
			return
		}
		a.ID = id
		if err := h.Store.UpdateAgent(r.Context(), &a); err != nil {
			writeStoreError(w, h.Logger, "update agent", err)
			return
		}
		httpx.Data(w, http.StatusOK, a)
	default:
		httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type SellersHandler struct {
	Store  *Store
	Logger *slog.Logger
}

func (h *SellersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sellers, err := h.Store.ListSellers(r.Context())
		if err != nil {
			h.Logger.Error("list sellers", "err", err)
			httpx.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		httpx.Data(w, http.StatusOK, sellers)
	case http.MethodPost:
		var sl Seller
		if err := json.NewDecoder(r.Body).Decode(&sl); err != nil || sl.Name == "" {
			httpx.Error(w, http.StatusBadRequest, "name is required")
			return
		}
		if err := h.Store.CreateSeller(r.Context(), &sl); err != nil {
			h.Logger.Error("create seller", "err", err)
			httpx.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		httpx.Data(w, http.StatusCreated, sl)
	default:
		httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type SellerDetailHandler struct {
	Store  *Store
	Logger *slog.Logger
}

func (h *SellerDetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		sl, err := h.Store.GetSeller(r.Context(), id)
		if err != nil {
			writeStoreError(w, h.Logger, "get seller", err)
			return
		}
		httpx.Data(w, http.StatusOK, sl)
	case http.MethodPut:
		var sl Seller
		if err := json.NewDecoder(r.Body).Decode(&sl); err != nil || sl.Name == "" {
			httpx.Error(w, http.StatusBadRequest, "name is required")
			return
		}
		sl.ID = id
		if err := h.Store.UpdateSeller(r.Context(), &sl); err != nil {
			writeStoreError(w, h.Logger, "update seller", err)
			return
		}
		httpx.Data(w, http.StatusOK, sl)
	default:
		httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// AnimalsHandler lists animals and creates them from multipart forms carrying
// an optional photo and registration document. Every file passes the upload
// guard before the row is written; a failed insert rolls the files back.
type AnimalsHandler struct {
	Store  *Store
	Guard  *upload.Guard
	Files  *upload.Store
	Logger *slog.Logger
}

func (h *AnimalsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		animals, err := h.Store.ListAnimals(r.Context())
		if err != nil {
			h.Logger.Error("list animals", "err", err)
			httpx.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		httpx.Data(w, http.StatusOK, animals)
	case http.MethodPost:
		h.create(w, r)
	default:
		httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *AnimalsHandler) create(w http.ResponseWriter, r *http.Request) {
	files, err := h.Guard.Process(r)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	a := Animal{
		TagNumber: r.FormValue("tag_number"),
		Species:   r.FormValue("species"),
		Breed:     r.FormValue("breed"),
	}
	a.WeightKg, _ = strconv.ParseFloat(r.FormValue("weight_kg"), 64)
	a.Price, _ = strconv.ParseFloat(r.FormValue("price"), 64)
	a.SellerID = optionalID(r.FormValue("seller_id"))
	a.AgentID = optionalID(r.FormValue("agent_id"))

	if a.TagNumber == "" || a.Species == "" {
		h.Files.Remove(files)
		httpx.Error(w, http.StatusBadRequest, "tag_number and species are required")
		return
	}
	for _, f := range files {
		switch f.Field {
		case "photo":
			a.PhotoPath = f.Path
		case "document":
			a.DocumentPath = f.Path
		}
	}

	if err := h.Store.CreateAnimal(r.Context(), &a); err != nil {
		h.Files.Remove(files)
		h.Logger.Error("create animal", "err", err)
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.Data(w, http.StatusCreated, a)
}

// PaymentsHandler lists payments and records them with an optional receipt
// document.
type PaymentsHandler struct {
	Store  *Store
	Guard  *upload.Guard
	Files  *upload.Store
	Logger *slog.Logger
}

func (h *PaymentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		payments, err := h.Store.ListPayments(r.Context())
		if err != nil {
			h.Logger.Error("list payments", "err", err)
			httpx.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		httpx.Data(w, http.StatusOK, payments)
	case http.MethodPost:
		h.create(w, r)
	default:
		httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *PaymentsHandler) create(w http.ResponseWriter, r *http.Request) {
	files, err := h.Guard.Process(r)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	p := Payment{Method: r.FormValue("method")}
	p.AnimalID, _ = strconv.ParseInt(r.FormValue("animal_id"), 10, 64)
	p.Amount, _ = strconv.ParseFloat(r.FormValue("amount"), 64)
	p.AgentID = optionalID(r.FormValue("agent_id"))
	if p.Method == "" {
		p.Method = "cash"
	}
	if p.AnimalID == 0 || p.Amount <= 0 {
		h.Files.Remove(files)
		httpx.Error(w, http.StatusBadRequest, "animal_id and a positive amount are required")
		return
	}
	for _, f := range files {
		if f.Field == "receipt" {
			p.ReceiptPath = f.Path
		}
	}

	if err := h.Store.CreatePayment(r.Context(), &p); err != nil {
		h.Files.Remove(files)
		h.Logger.Error("create payment", "err", err)
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.Data(w, http.StatusCreated, p)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	idStr := parts[len(parts)-1]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func optionalID(s string) *int64 {
	if s == "" {
		return nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func writeStoreError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "record not found")
		return
	}
	logger.Error(op, "err", err)
	httpx.Error(w, http.StatusInternalServerError, "internal server error")
}

func writeUploadError(w http.ResponseWriter, err error) {
	var fe *upload.FieldError
	if errors.As(err, &fe) {
		httpx.FieldErrors(w, http.StatusBadRequest, "upload rejected", []string{fe.Error()})
		return
	}
	var tle *upload.TooLargeError
	if errors.As(err, &tle) {
		httpx.Error(w, http.StatusRequestEntityTooLarge, tle.Error())
		return
	}
	httpx.Error(w, http.StatusInternalServerError, "internal server error")
}
