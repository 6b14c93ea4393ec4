package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"oc-checklist-service/internal/app"
	"oc-checklist-service/internal/catalog"
	"oc-checklist-service/internal/domain"
	"oc-checklist-service/internal/qsc"
	"oc-checklist-service/internal/report"
	"oc-checklist-service/internal/scoring"
)

// RESTHandler exposes the evaluation use cases as JSON endpoints.
type RESTHandler struct {
	service  *app.EvaluationService
	validate *validator.Validate
}

func NewRESTHandler(service *app.EvaluationService) *RESTHandler {
	return &RESTHandler{service: service, validate: validator.New()}
}

type startRequest struct {
	ChecklistID string `json:"checklistId" validate:"required"`
	Evaluator   string `json:"evaluator" validate:"required"`
}

type answerRequest struct {
	Answer string `json:"answer" validate:"required"`
}

type noteRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

type evidenceRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type submitRequest struct {
	ConfirmMissingEvidence bool `json:"confirmMissingEvidence"`
}

type previewRequest struct {
	Form    qsc.Form       `json:"form"`
	Answers domain.Answers `json:"answers"`
}

type errorBody struct {
	Message   string               `json:"message"`
	Remaining int                  `json:"remaining,omitempty"`
	First     *domain.ItemRef      `json:"first,omitempty"`
	ItemIDs   []string             `json:"itemIds,omitempty"`
	Fields    []catalog.FieldError `json:"fields,omitempty"`
}

// Register mounts the REST routes on mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /checklists/{id}", h.handleGetChecklist)
	mux.HandleFunc("POST /evaluations", h.handleStart)
	mux.HandleFunc("GET /evaluations/{id}", h.handleGet)
	mux.HandleFunc("DELETE /evaluations/{id}", h.handleDiscard)
	mux.HandleFunc("PUT /evaluations/{id}/answers/{itemId}", h.handleAnswer)
	mux.HandleFunc("DELETE /evaluations/{id}/answers/{itemId}", h.handleClearAnswer)
	mux.HandleFunc("PUT /evaluations/{id}/notes/{itemId}", h.handleNote)
	mux.HandleFunc("POST /evaluations/{id}/evidence/{itemId}", h.handleEvidence)
	mux.HandleFunc("POST /evaluations/{id}/submit", h.handleSubmit)
	mux.HandleFunc("GET /evaluations/{id}/report", h.handleReport)
	mux.HandleFunc("GET /evaluations/{id}/report.csv", h.handleReportCSV)
	mux.HandleFunc("GET /evaluations/{id}/record", h.handleRecord)
	mux.HandleFunc("POST /qsc/preview", h.handlePreview)
}

func (h *RESTHandler) handleGetChecklist(w http.ResponseWriter, r *http.Request) {
	checklist, err := h.service.Checklist(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checklist)
}

func (h *RESTHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !h.decode(w, r, &req) {
		return
	}
	ev, err := h.service.Start(r.Context(), req.ChecklistID, req.Evaluator)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("evaluation %s started on %s by %s", ev.ID, ev.ChecklistID, ev.Evaluator)
	writeJSON(w, http.StatusCreated, ev)
}

func (h *RESTHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ev, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *RESTHandler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Discard(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !h.decode(w, r, &req) {
		return
	}
	answer, err := domain.ParseAnswer(req.Answer)
	if err != nil {
		writeError(w, err)
		return
	}
	ev, err := h.service.Answer(r.Context(), r.PathValue("id"), r.PathValue("itemId"), answer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *RESTHandler) handleClearAnswer(w http.ResponseWriter, r *http.Request) {
	ev, err := h.service.ClearAnswer(r.Context(), r.PathValue("id"), r.PathValue("itemId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *RESTHandler) handleNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !h.decode(w, r, &req) {
		return
	}
	ev, err := h.service.SetNote(r.Context(), r.PathValue("id"), r.PathValue("itemId"), req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *RESTHandler) handleEvidence(w http.ResponseWriter, r *http.Request) {
	var req evidenceRequest
	if !h.decode(w, r, &req) {
		return
	}
	ev, err := h.service.AttachEvidence(r.Context(), r.PathValue("id"), r.PathValue("itemId"), req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *RESTHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid json payload"})
		return
	}
	ev, err := h.service.Submit(r.Context(), r.PathValue("id"), app.SubmitOptions{
		ConfirmMissingEvidence: req.ConfirmMissingEvidence,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("evaluation %s locked: %.2f%% %s", ev.ID, ev.Report.Total.Percent, ev.Report.Total.Rank)
	writeJSON(w, http.StatusOK, ev)
}

func (h *RESTHandler) handleReport(w http.ResponseWriter, r *http.Request) {
	ev, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev.Report)
}

func (h *RESTHandler) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	ev, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ev.ID+`.csv"`)
	if err := report.WriteCSV(w, ev.Report); err != nil {
		log.Printf("write csv report: %v", err)
	}
}

func (h *RESTHandler) handleRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Record(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handlePreview scores a QSC form draft without creating an evaluation.
func (h *RESTHandler) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid form: " + err.Error()})
		return
	}
	checklist := req.Form.Checklist()
	if err := catalog.Validate(checklist); err != nil {
		writeError(w, err)
		return
	}
	rep := scoring.Overall(checklist.Categories, req.Answers)
	rep.ChecklistID = checklist.ID
	writeJSON(w, http.StatusOK, struct {
		Checklist domain.Checklist `json:"checklist"`
		Progress  domain.Progress  `json:"progress"`
		Report    domain.Report    `json:"report"`
	}{checklist, scoring.ComputeProgress(checklist.Categories, req.Answers), rep})
}

func (h *RESTHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid json payload"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
		return false
	}
	return true
}

// httpStatus maps domain errors to HTTP status codes.
func httpStatus(err error) int {
	var incomplete *domain.IncompleteError
	var missing *domain.MissingEvidenceError
	var invalid *catalog.ValidationError
	switch {
	case errors.Is(err, domain.ErrChecklistNotFound),
		errors.Is(err, domain.ErrEvaluationNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAnswer), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEvaluationLocked), errors.As(err, &incomplete):
		return http.StatusConflict
	case errors.As(err, &missing):
		return http.StatusPreconditionRequired
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	body := errorDetails(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		body.Message = "internal error"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}
