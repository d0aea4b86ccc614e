package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/service"
	"github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/store"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/httpx"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/slogx"
)

// maxUploadMemory bounds the in-memory part of multipart parsing.
const maxUploadMemory = 32 << 20

// RecordsHandler serves one collection.
type RecordsHandler struct {
	Records    *service.RecordService
	Collection string
	// Noun names a record in messages, e.g. "Work record".
	Noun string
}

func (h *RecordsHandler) notFound(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusNotFound, h.Noun+" not found")
}

// fail maps store errors onto the backend's error envelope.
func (h *RecordsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w)
		return
	}
	slogx.FromContext(r.Context()).Error("record operation failed", "collection", h.Collection, "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, err.Error())
}

func (h *RecordsHandler) id(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.notFound(w)
		return 0, false
	}
	return id, true
}

func decodeFields(r *http.Request) (store.Record, error) {
	var fields store.Record
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// HandleList handles GET /{collection}.
func (h *RecordsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Records.List(h.Collection)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": list, "count": len(list)})
}

// HandleGet handles GET /{collection}/{id}.
func (h *RecordsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	rec, err := h.Records.Get(h.Collection, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

// HandleCreate handles POST /{collection}.
func (h *RecordsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil || len(fields) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "Request body must be a non-empty JSON object")
		return
	}

	rec, err := h.Records.Create(h.Collection, fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"data":    rec,
		"message": h.Noun + " created",
	})
}

// HandleUpdate handles PUT /{collection}/{id}.
func (h *RecordsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	fields, err := decodeFields(r)
	if err != nil || len(fields) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	rec, err := h.Records.Update(h.Collection, id, fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"data":    rec,
		"message": h.Noun + " updated",
	})
}

// HandleDelete handles DELETE /{collection}/{id}.
func (h *RecordsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	if err := h.Records.Delete(h.Collection, id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": h.Noun + " deleted"})
}

// HandleUpload handles POST /{collection}/{id}/upload. Files may arrive
// under "file" or "files"; a "clear=true" field removes stored files.
func (h *RecordsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Expected a multipart form")
		return
	}

	if r.FormValue("clear") == "true" {
		rec, err := h.Records.ClearFiles(h.Collection, id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": rec, "message": "Files cleared"})
		return
	}

	var names []string
	for _, field := range []string{"file", "files"} {
		for _, fh := range r.MultipartForm.File[field] {
			names = append(names, fh.Filename)
		}
	}
	if len(names) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "No file provided")
		return
	}

	rec, err := h.Records.AttachFiles(h.Collection, id, names)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": rec, "message": "Files uploaded"})
}

// HandleLogo handles POST /{collection}/{id}/logo with a "logo" file.
func (h *RecordsHandler) HandleLogo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	f, fh, err := r.FormFile("logo")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "No logo file provided")
		return
	}
	_ = f.Close()

	rec, err := h.Records.SetLogo(h.Collection, id, fh.Filename)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": rec, "message": "Logo uploaded"})
}
