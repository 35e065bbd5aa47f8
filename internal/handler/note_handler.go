package handler

import (
	"context"
	"net/http"

	"notes-server/internal/domain"
	"notes-server/internal/middleware"
	"notes-server/internal/service"
	"notes-server/pkg/response"

	"github.com/gorilla/mux"
)

// DeviceHeader optionally names the client device making a note change.
const DeviceHeader = "X-Device-ID"

func mutationContext(r *http.Request) context.Context {
	return service.WithOriginDevice(r.Context(), r.Header.Get(DeviceHeader))
}

type NoteHandler struct {
	service *service.NoteService
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{
		service: service,
	}
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request, identity middleware.Identity) {
	notes, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, "Notes fetched successfully", response.Payload{
		"notes": notes,
	})
}

func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request, identity middleware.Identity) {
	notes, err := h.service.Search(r.Context(), identity.UserID, r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, "Notes matching the search query retrieved successfully", response.Payload{
		"notes": notes,
	})
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request, identity middleware.Identity) {
	var req domain.CreateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	note, err := h.service.Create(mutationContext(r), identity.UserID, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, "Note added successfully", response.Payload{
		"note": note,
	})
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request, identity middleware.Identity) {
	var req domain.UpdateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	note, err := h.service.Update(mutationContext(r), identity.UserID, mux.Vars(r)["noteId"], &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, "Note updated successfully", response.Payload{
		"note": note,
	})
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request, identity middleware.Identity) {
	if err := h.service.Delete(mutationContext(r), identity.UserID, mux.Vars(r)["noteId"]); err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, "Note deleted successfully", nil)
}

func (h *NoteHandler) SetPinned(w http.ResponseWriter, r *http.Request, identity middleware.Identity) {
	var req domain.SetPinnedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	note, err := h.service.SetPinned(mutationContext(r), identity.UserID, mux.Vars(r)["noteId"], &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, "Note pinned successfully", response.Payload{
		"note": note,
	})
}
