// Package server exposes the management HTTP API: company onboarding, ERP
// device provisioning and the task-request surface the scheduler consumes.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/datasyncfood/datasync-worker/internal/erp"
	"github.com/datasyncfood/datasync-worker/internal/logger"
	"github.com/datasyncfood/datasync-worker/internal/repository"
	"go.uber.org/zap"
)

type Server struct {
	companies *repository.CompanyRepository
	tasks     *repository.TaskRepository
	pairings  *repository.TaskCompanyRepository
	erp       *erp.Client
	validate  *validator.Validate
}

func New(
	companies *repository.CompanyRepository,
	tasks *repository.TaskRepository,
	pairings *repository.TaskCompanyRepository,
	erpClient *erp.Client,
) *Server {
	return &Server{
		companies: companies,
		tasks:     tasks,
		pairings:  pairings,
		erp:       erpClient,
		validate:  validator.New(),
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthCheck)

	r.Route("/companies", func(r chi.Router) {
		r.Post("/", s.createCompany)
		r.Get("/", s.listCompanies)
		r.Get("/{id}", s.getCompany)
		r.Post("/{id}/erp-config", s.configureERP)
	})

	r.Get("/tasks", s.listTasks)

	r.Route("/task-requests", func(r chi.Router) {
		r.Post("/", s.requestTask)
		r.Get("/latest", s.latestTaskRequest)
	})

	return r
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Error("failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeAndValidate parses a JSON body into dst and runs struct validation.
// Returns false after writing the error response when the body is unusable.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
