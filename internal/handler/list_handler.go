// internal/handler/list_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/faststart/inviter-backend/internal/errors"
	"github.com/faststart/inviter-backend/internal/repository"
)

type ListHandler struct {
	Lists repository.ListRepositoryInterface
}

func (h *ListHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.Lists.ListAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"success": true,
		"lists":   lists,
	})
}

func (h *ListHandler) GetList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	list, friends, err := h.Lists.GetByID(id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"success": true,
		"list":    list,
		"friends": friends,
	})
}

func (h *ListHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string   `json:"name"`
		FriendIDs []string `json:"friend_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "list name is required")
		return
	}

	list, err := h.Lists.Create(body.Name, body.FriendIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"success": true,
		"id":      list.ID,
	})
}

func (h *ListHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Name      string   `json:"name"`
		FriendIDs []string `json:"friend_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := h.Lists.Update(id, body.Name, body.FriendIDs); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (h *ListHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Lists.Delete(id); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func writeRepoError(w http.ResponseWriter, err error) {
	if appErrors.IsValidation(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
