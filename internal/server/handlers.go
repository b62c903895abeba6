package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/auth"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/service/feedback"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/service/rerank"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/service/runs"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/storage"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	db          *storage.DB
	jwtMgr      *auth.JWTManager
	runSvc      *runs.Service
	feedbackSvc *feedback.Service
	rerankSvc   *rerank.Service
	logger      *slog.Logger

	apiKeyHash string
	version    string
}

// HandlersDeps bundles the dependencies for NewHandlers.
type HandlersDeps struct {
	DB          *storage.DB
	JWTMgr      *auth.JWTManager
	RunSvc      *runs.Service
	FeedbackSvc *feedback.Service
	RerankSvc   *rerank.Service
	Logger      *slog.Logger
	APIKeyHash  string
	Version     string
}

// NewHandlers creates the handler set.
func NewHandlers(deps HandlersDeps) *Handlers {
	return &Handlers{
		db:          deps.DB,
		jwtMgr:      deps.JWTMgr,
		runSvc:      deps.RunSvc,
		feedbackSvc: deps.FeedbackSvc,
		rerankSvc:   deps.RerankSvc,
		logger:      deps.Logger,
		apiKeyHash:  deps.APIKeyHash,
		version:     deps.Version,
	}
}

// HandleHealth reports service and database health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// HandleAuthToken exchanges a configured API key for a JWT.
func (h *Handlers) HandleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req model.AuthTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body")
		return
	}
	if req.APIKey == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "api_key is required")
		return
	}

	if h.apiKeyHash == "" {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "authentication not configured")
		return
	}

	ok, err := auth.VerifyAPIKey(req.APIKey, h.apiKeyHash)
	if err != nil || !ok {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid api key")
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken("officer")
	if err != nil {
		h.logger.Error("issue token failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, "failed to issue token")
		return
	}

	writeJSON(w, r, http.StatusOK, model.AuthTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// HandleCreateRun records a completed pipeline run: the raw decision is
// calibrated, a history-adjusted confidence assigned, and the run log
// persisted for later feedback correlation.
func (h *Handlers) HandleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRunRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, err.Error())
		return
	}

	var startedAt time.Time
	if req.StartedAt != nil {
		startedAt = *req.StartedAt
	}

	run, err := h.runSvc.Ingest(r.Context(), runs.Input{
		Reference:         strings.TrimSpace(req.Reference),
		RawDecision:       req.RawDecision,
		PolicyIDs:         req.PolicyIDs,
		SimilarCasesCount: req.SimilarCasesCount,
		DurationMS:        req.DurationMS,
		ErrorMessage:      req.ErrorMessage,
		StartedAt:         startedAt,
	})
	if err != nil {
		h.logger.Error("ingest run failed", "error", err, "reference", req.Reference)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, "failed to record run")
		return
	}

	writeJSON(w, r, http.StatusCreated, model.CreateRunResponse{
		RunID:              run.ID,
		Reference:          run.Reference,
		ApplicationType:    model.ParseApplicationType(run.Reference),
		RawDecision:        run.RawDecision,
		CalibratedDecision: run.CalibratedDecision,
		Confidence:         run.Confidence,
	})
}

// HandleSubmitFeedback records an officer's actual decision for an
// application and flags whether it contradicts the prediction.
func (h *Handlers) HandleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitFeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, err.Error())
		return
	}

	var submittedBy *string
	if claims := ClaimsFromContext(r.Context()); claims != nil && claims.Subject != "" {
		submittedBy = &claims.Subject
	}

	id, mismatch, err := h.feedbackSvc.Record(r.Context(), feedback.Input{
		Reference:      strings.TrimSpace(req.Reference),
		Decision:       model.ParseDecision(req.Decision),
		Notes:          req.Notes,
		Conditions:     req.Conditions,
		RefusalReasons: req.RefusalReasons,
		SubmittedBy:    submittedBy,
	})
	if err != nil {
		h.logger.Error("record feedback failed", "error", err, "reference", req.Reference)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, "failed to record feedback")
		return
	}

	msg := "Feedback recorded, decision matched the prediction"
	if mismatch {
		msg = "Feedback recorded, decision contradicted the prediction"
	}
	writeJSON(w, r, http.StatusCreated, model.SubmitFeedbackResponse{
		FeedbackID: id,
		Reference:  strings.TrimSpace(req.Reference),
		Mismatch:   mismatch,
		Message:    msg,
	})
}

// HandleFeedbackSummary returns overall feedback statistics and
// per-type mismatch rates.
func (h *Handlers) HandleFeedbackSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.feedbackSvc.Summary(r.Context())
	if err != nil {
		h.logger.Error("feedback summary failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, "failed to build summary")
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

// HandleWeightSummary returns the stored policy weights for an
// application type.
func (h *Handlers) HandleWeightSummary(w http.ResponseWriter, r *http.Request) {
	appType := strings.ToUpper(strings.TrimSpace(r.PathValue("application_type")))
	if appType == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "application_type is required")
		return
	}

	summary, err := h.rerankSvc.WeightSummary(r.Context(), appType)
	if err != nil {
		h.logger.Error("weight summary failed", "error", err, "application_type", appType)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, "failed to build weight summary")
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

// rankedCandidate adapts a request candidate to the rerank interface.
type rankedCandidate struct {
	c model.PolicyCandidate
}

func (rc rankedCandidate) PolicyID() string { return rc.c.ID }

// HandleRerankPolicies reorders candidate policies by learned weight.
func (h *Handlers) HandleRerankPolicies(w http.ResponseWriter, r *http.Request) {
	var req model.RerankPoliciesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, err.Error())
		return
	}

	ranked := make([]rerank.Ranked, len(req.Policies))
	for i, p := range req.Policies {
		ranked[i] = rankedCandidate{c: p}
	}

	ordered, err := h.rerankSvc.RerankPolicies(r.Context(), req.Reference, ranked)
	if err != nil {
		h.logger.Error("rerank failed", "error", err, "reference", req.Reference)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, "failed to rerank policies")
		return
	}

	out := make([]model.PolicyCandidate, len(ordered))
	for i, p := range ordered {
		out[i] = p.(rankedCandidate).c
	}
	writeJSON(w, r, http.StatusOK, model.RerankPoliciesResponse{
		Reference: req.Reference,
		Policies:  out,
	})
}

// caseCandidate adapts a request case to the rerank interface.
type caseCandidate struct {
	c model.CaseCandidate
}

func (cc caseCandidate) Reference() string { return cc.c.Reference }

// HandleRerankCases boosts similar historic cases by their feedback
// track record and returns them in boosted order.
func (h *Handlers) HandleRerankCases(w http.ResponseWriter, r *http.Request) {
	var req model.RerankCasesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, err.Error())
		return
	}

	cases := make([]rerank.Case, len(req.Cases))
	for i, c := range req.Cases {
		cases[i] = caseCandidate{c: c}
	}

	boosted, err := h.rerankSvc.SimilarCaseBoost(r.Context(), cases)
	if err != nil {
		h.logger.Error("case boost failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, "failed to boost cases")
		return
	}

	out := make([]model.RankedCase, len(boosted))
	for i, b := range boosted {
		c := b.Case.(caseCandidate).c
		out[i] = model.RankedCase{
			Reference: c.Reference,
			Metadata:  c.Metadata,
			Boost:     b.Factor,
		}
	}
	writeJSON(w, r, http.StatusOK, model.RerankCasesResponse{Cases: out})
}

// HandleConfidence returns the history-adjusted confidence for a
// reference. The reference is the remainder of the path, so slashes in
// planning references pass through unescaped.
func (h *Handlers) HandleConfidence(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimSpace(r.PathValue("reference"))
	if reference == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "reference is required")
		return
	}

	confidence, err := h.rerankSvc.AdjustConfidence(r.Context(), reference)
	if err != nil {
		h.logger.Error("adjust confidence failed", "error", err, "reference", reference)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, "failed to adjust confidence")
		return
	}

	writeJSON(w, r, http.StatusOK, model.ConfidenceResponse{
		Reference:       reference,
		ApplicationType: model.ParseApplicationType(reference),
		Confidence:      confidence,
	})
}
