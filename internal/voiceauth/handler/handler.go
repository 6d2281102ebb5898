package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"voicegate/internal/voiceauth/models"
	"voicegate/internal/voiceauth/session"
	id "voicegate/pkg/domain"
	dErrors "voicegate/pkg/domain-errors"
	"voicegate/pkg/platform/httputil"
	"voicegate/pkg/requestcontext"
)

// EnrollmentService returns domain objects; the handler owns the response DTOs.
type EnrollmentService interface {
	Begin(ctx context.Context, profileID id.ProfileID) (*models.EnrollmentProfile, error)
	SubmitPassphraseSample(ctx context.Context, profileID id.ProfileID, seq models.PhonemeSequence) (*models.PassphraseResult, error)
	SubmitVoiceSample(ctx context.Context, profileID id.ProfileID, embedding models.Embedding) (*models.EnrollmentProfile, error)
	Finalize(ctx context.Context, profileID id.ProfileID) (*models.EnrollmentProfile, error)
	Revoke(ctx context.Context, profileID id.ProfileID) (*models.EnrollmentProfile, error)
	Get(ctx context.Context, profileID id.ProfileID) (*models.EnrollmentProfile, error)
}

type VerificationService interface {
	Verify(ctx context.Context, profileID id.ProfileID, utterance models.Utterance) (*session.Decision, error)
}

type Handler struct {
	enrollment   EnrollmentService
	verification VerificationService
	logger       *slog.Logger
}

func New(enrollment EnrollmentService, verification VerificationService, logger *slog.Logger) *Handler {
	return &Handler{enrollment: enrollment, verification: verification, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/profiles", h.HandleBeginEnrollment)
	r.Get("/profiles/{id}", h.HandleGetProfile)
	r.Post("/profiles/{id}/passphrase", h.HandlePassphraseSample)
	r.Post("/profiles/{id}/voice", h.HandleVoiceSample)
	r.Post("/profiles/{id}/finalize", h.HandleFinalize)
	r.Post("/profiles/{id}/verify", h.HandleVerify)
}

// RegisterAdmin mounts operator routes. Callers wrap r with the admin token
// middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/profiles/{id}/revoke", h.HandleRevoke)
}

// HandleBeginEnrollment creates or restarts a pending profile.
func (h *Handler) HandleBeginEnrollment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.BeginEnrollmentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	var profileID id.ProfileID
	if req.ProfileID != "" {
		parsed, err := id.ParseProfileID(req.ProfileID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		profileID = parsed
	}

	profile, err := h.enrollment.Begin(ctx, profileID)
	if err != nil {
		h.logFailure(ctx, "begin enrollment failed", err, requestID, profileID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewProfileResponse(profile))
}

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}

	profile, err := h.enrollment.Get(ctx, profileID)
	if err != nil {
		h.logFailure(ctx, "get profile failed", err, requestcontext.RequestID(ctx), profileID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewProfileResponse(profile))
}

// HandlePassphraseSample answers 200 for both accepted and rejected samples;
// the body carries the diversity verdict.
func (h *Handler) HandlePassphraseSample(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.PassphraseSampleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.enrollment.SubmitPassphraseSample(ctx, profileID, req.Sequence())
	if err != nil {
		h.logFailure(ctx, "passphrase sample failed", err, requestID, profileID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleVoiceSample(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.VoiceSampleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	profile, err := h.enrollment.SubmitVoiceSample(ctx, profileID, models.Embedding(req.Embedding))
	if err != nil {
		h.logFailure(ctx, "voice sample failed", err, requestID, profileID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewProfileResponse(profile))
}

func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "finalize enrollment failed", h.enrollment.Finalize)
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "revoke profile failed", h.enrollment.Revoke)
}

// HandleVerify runs one verification attempt. Reject and Inconclusive are 200
// responses; only malformed input, lockout and lifecycle problems are errors.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decision, err := h.verification.Verify(ctx, profileID, req.Utterance())
	if err != nil {
		h.logFailure(ctx, "verification failed", err, requestID, profileID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewVerifyResponse(decision.ProfileID, decision.SessionID, decision.Result))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, msg string, fn func(context.Context, id.ProfileID) (*models.EnrollmentProfile, error)) {
	ctx := r.Context()
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}

	profile, err := fn(ctx, profileID)
	if err != nil {
		h.logFailure(ctx, msg, err, requestcontext.RequestID(ctx), profileID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewProfileResponse(profile))
}

func (h *Handler) profileID(w http.ResponseWriter, r *http.Request) (id.ProfileID, bool) {
	profileID, err := id.ParseProfileID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ProfileID{}, false
	}
	return profileID, true
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, requestID string, profileID id.ProfileID) {
	attrs := []any{"error", err, "request_id", requestID, "profile_id", profileID.String()}
	var de *dErrors.Error
	if !errors.As(err, &de) || de.Code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}
