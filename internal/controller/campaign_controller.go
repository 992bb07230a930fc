// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faststart/inviter-backend/internal/delivery"
	appErrors "github.com/faststart/inviter-backend/internal/errors"
	"github.com/faststart/inviter-backend/internal/model"
	"github.com/faststart/inviter-backend/internal/repository"
	"github.com/faststart/inviter-backend/internal/scheduler"
)

// SchedulerService is what the controller needs from the scheduler.
type SchedulerService interface {
	Start(listID, templateID string) (*model.Campaign, error)
	Pause() error
	Resume() error
	Cancel() error
	Status() (*scheduler.Status, error)
	SendNow(ctx context.Context, recordID string) (delivery.Outcome, error)
}

type CampaignController struct {
	Scheduler    SchedulerService
	CampaignRepo repository.CampaignRepositoryInterface
}

func (c *CampaignController) StartCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ListID     string `json:"list_id"`
		TemplateID string `json:"template_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	campaign, err := c.Scheduler.Start(body.ListID, body.TemplateID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"success":     true,
		"campaign_id": campaign.ID,
	})
}

func (c *CampaignController) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	if err := c.Scheduler.Pause(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (c *CampaignController) ResumeCampaign(w http.ResponseWriter, r *http.Request) {
	if err := c.Scheduler.Resume(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (c *CampaignController) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	if err := c.Scheduler.Cancel(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (c *CampaignController) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := c.Scheduler.Status()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, status)
}

func (c *CampaignController) ListRecords(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")
	records, err := c.CampaignRepo.ListRecords(campaignID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"success": true,
		"records": records,
	})
}

// SendNow bypasses the timer for one record; the outcome is the delivery
// adapter's verdict, returned as-is.
func (c *CampaignController) SendNow(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "id")
	outcome, err := c.Scheduler.SendNow(r.Context(), recordID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"success": outcome.Result == delivery.ResultSent,
		"outcome": outcome.Result,
		"reason":  outcome.Reason,
	})
}

// ====================== response helpers ======================

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	if appErrors.IsValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
