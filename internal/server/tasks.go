package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/datasyncfood/datasync-worker/internal/logger"
	"github.com/datasyncfood/datasync-worker/internal/models"
	"github.com/datasyncfood/datasync-worker/internal/repository"
	"go.uber.org/zap"
)

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	tasks, total, err := s.tasks.ListActive(r.Context(), page, limit, r.URL.Query().Get("filter"))
	if err != nil {
		logger.Log.Error("failed to list tasks", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse{Items: tasks, Total: total, Page: page, Limit: limit})
}

type taskRequestBody struct {
	TaskID    uint    `json:"taskId" validate:"required"`
	CompanyID uint    `json:"companyId" validate:"required"`
	Note      *string `json:"note"`
}

type taskRequestResponse struct {
	PairingID uint64        `json:"pairingId"`
	TaskID    uint          `json:"taskId"`
	CompanyID uint          `json:"companyId"`
	Status    models.Status `json:"status"`
	Feedback  *string       `json:"feedback,omitempty"`
	Error     *string       `json:"error,omitempty"`
}

// requestTask records a new pending pairing for the scheduler to pick up.
// Both sides of the pairing must exist and be active.
func (s *Server) requestTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequestBody
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	task, err := s.tasks.GetByID(r.Context(), req.TaskID)
	if err != nil {
		logger.Log.Error("failed to load task", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to request task")
		return
	}
	if task == nil || !task.Active {
		writeError(w, http.StatusUnprocessableEntity, "task not found or inactive")
		return
	}

	company, err := s.companies.GetByID(r.Context(), req.CompanyID)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			writeError(w, http.StatusUnprocessableEntity, "company not found")
			return
		}
		logger.Log.Error("failed to load company", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to request task")
		return
	}
	if !company.Active {
		writeError(w, http.StatusUnprocessableEntity, "company is inactive")
		return
	}

	pairing := models.TaskCompany{
		TaskID:    req.TaskID,
		CompanyID: req.CompanyID,
		ParamNote: req.Note,
	}
	if err := s.pairings.Request(r.Context(), &pairing); err != nil {
		logger.Log.Error("failed to request task", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to request task")
		return
	}

	writeJSON(w, http.StatusCreated, taskRequestResponse{
		PairingID: pairing.ID,
		TaskID:    pairing.TaskID,
		CompanyID: pairing.CompanyID,
		Status:    pairing.Status,
	})
}

// latestTaskRequest returns the most recent pairing for a task/company pair,
// which is the row whose status the queue view considers current.
func (s *Server) latestTaskRequest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	taskID, err := strconv.ParseUint(q.Get("taskId"), 10, 32)
	if err != nil || taskID == 0 {
		writeError(w, http.StatusBadRequest, "taskId is required")
		return
	}
	companyID, err := strconv.ParseUint(q.Get("companyId"), 10, 32)
	if err != nil || companyID == 0 {
		writeError(w, http.StatusBadRequest, "companyId is required")
		return
	}

	pairing, err := s.pairings.Latest(r.Context(), uint(taskID), uint(companyID))
	if err != nil {
		logger.Log.Error("failed to load latest pairing", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load latest task request")
		return
	}
	if pairing == nil {
		writeError(w, http.StatusNotFound, "no task request for this pairing")
		return
	}

	writeJSON(w, http.StatusOK, taskRequestResponse{
		PairingID: pairing.ID,
		TaskID:    pairing.TaskID,
		CompanyID: pairing.CompanyID,
		Status:    pairing.Status,
		Feedback:  pairing.Feedback,
		Error:     pairing.Error,
	})
}
