// internal/handler/template_handler.go
package handler

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/faststart/inviter-backend/internal/errors"
	"github.com/faststart/inviter-backend/internal/repository"
	"github.com/faststart/inviter-backend/internal/spintax"
)

// CampaignDetacher lets the template handler tell the scheduler its live
// campaign may have been cascade-deleted.
type CampaignDetacher interface {
	Detach()
}

type TemplateHandler struct {
	Templates repository.TemplateRepositoryInterface
	Friends   repository.FriendRepositoryInterface
	Scheduler CampaignDetacher
	Rng       *rand.Rand

	rngMu sync.Mutex // chi serves requests concurrently; *rand.Rand is not goroutine-safe
}

func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Templates.ListAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"success":   true,
		"templates": templates,
	})
}

func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Name == "" || body.Body == "" {
		writeError(w, http.StatusBadRequest, "name and body are required")
		return
	}

	template, err := h.Templates.Create(body.Name, body.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"success": true,
		"id":      template.ID,
	})
}

func (h *TemplateHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Name string `json:"name"`
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := h.Templates.Update(id, body.Name, body.Body); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

// DeleteTemplate cascades to campaigns that used the template and their
// send records, then nudges the scheduler in case its live campaign was
// among them.
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	campaignIDs, err := h.Templates.Delete(id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if len(campaignIDs) > 0 && h.Scheduler != nil {
		h.Scheduler.Detach()
	}
	writeJSON(w, map[string]interface{}{
		"success":           true,
		"deleted_campaigns": len(campaignIDs),
	})
}

// PreviewTemplate renders one random spin of the template for a friend
// without sending anything.
func (h *TemplateHandler) PreviewTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		FriendID string `json:"friend_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	template, err := h.Templates.GetByID(id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	friend, err := h.Friends.GetByID(body.FriendID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if friend == nil {
		writeRepoError(w, appErrors.ErrFriendNotFound)
		return
	}

	variations := template.Variations()
	h.rngMu.Lock()
	variation := spintax.NextVariation(h.Rng, nil, len(variations))
	rendered := spintax.Render(h.Rng, variations[variation], friend.FirstName)
	h.rngMu.Unlock()

	writeJSON(w, map[string]interface{}{
		"success":           true,
		"rendered_message":  rendered,
		"message_variation": variation,
	})
}
