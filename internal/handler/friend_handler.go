// internal/handler/friend_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/faststart/inviter-backend/internal/model"
	"github.com/faststart/inviter-backend/internal/repository"
)

// FriendHandler serves the friend inventory. The scraping collaborator
// pushes its harvest through Refresh; everything else is read-only.
type FriendHandler struct {
	Friends      repository.FriendRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
}

func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.Friends.ListAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"success": true,
		"friends": friends,
	})
}

func (h *FriendHandler) RefreshFriends(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Friends []model.Friend `json:"friends"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if len(body.Friends) == 0 {
		writeError(w, http.StatusBadRequest, "no friends in payload")
		return
	}

	if err := h.Friends.ReplaceAll(body.Friends); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"success": true,
		"count":   len(body.Friends),
	})
}

// MessageHistory reports which of the given friends already got a message
// in any campaign, so the UI can warn while building lists.
func (h *FriendHandler) MessageHistory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FriendIDs []string `json:"friend_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	sentIDs, err := h.CampaignRepo.SentFriendIDs(body.FriendIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"success":         true,
		"sent_friend_ids": sentIDs,
	})
}
