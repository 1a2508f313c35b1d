package documents

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fleetops/fleet-manager/internal/platform/httpx"
	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/shared"
)

// DefaultMaxUploadBytes caps a single document upload.
const DefaultMaxUploadBytes = 10 << 20

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
	maxBytes  int64
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, maxBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac, maxBytes: maxBytes}
}

// Uploads are limited per user on top of the global limiter.
const (
	uploadRateLimit  = 20
	uploadRateWindow = time.Minute
)

func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(uploadRateLimit, uploadRateWindow,
		httprate.WithKeyFuncs(uploadRateKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "upload rate exceeded")
		}),
	)
	r.With(h.rbac.Require(shared.ResourceDocuments, shared.ActionRead)).Get("/vehicle/{vehicleId}", h.ListByVehicle)
	r.With(limiter, h.rbac.Require(shared.ResourceDocuments, shared.ActionCreate)).Post("/upload", h.Upload)
	r.With(h.rbac.Require(shared.ResourceDocuments, shared.ActionDelete)).Delete("/{id}", h.Delete)
}

func uploadRateKey(r *http.Request) (string, error) {
	if p := shared.PrincipalFromContext(r.Context()); p != nil {
		return "user:" + p.UserID.String(), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

func (h *Handler) ListByVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := uuid.Parse(chi.URLParam(r, "vehicleId"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid vehicle id")
		return
	}
	ctx := r.Context()
	authz, _ := rbac.AuthorizationFromContext(ctx)
	docs, err := h.service.ListByVehicle(ctx, shared.PrincipalFromContext(ctx), authz, vehicleID)
	if err != nil {
		h.fail(w, "list documents failed", err)
		return
	}
	if docs == nil {
		docs = []Document{}
	}
	httpx.JSON(w, http.StatusOK, docs)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	// Multipart framing needs headroom beyond the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.RespondError(w, httpx.ErrTooLarge)
			return
		}
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "no file uploaded")
		return
	}
	defer file.Close()
	if header.Size > h.maxBytes {
		httpx.RespondError(w, httpx.ErrTooLarge)
		return
	}
	body, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		h.fail(w, "read upload failed", err)
		return
	}
	if int64(len(body)) > h.maxBytes {
		httpx.RespondError(w, httpx.ErrTooLarge)
		return
	}

	req := UploadRequest{
		Type:        r.FormValue("type"),
		Name:        r.FormValue("name"),
		ExpiryDate:  r.FormValue("expiry_date"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        body,
	}
	if req.VehicleID, err = uuid.Parse(r.FormValue("vehicle_id")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid vehicle_id")
		return
	}
	if req.ContentType == "" {
		req.ContentType = http.DetectContentType(body)
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ctx := r.Context()
	authz, _ := rbac.AuthorizationFromContext(ctx)
	doc, err := h.service.Upload(ctx, shared.PrincipalFromContext(ctx), authz, req)
	if err != nil {
		h.fail(w, "upload document failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid document id")
		return
	}
	ctx := r.Context()
	authz, _ := rbac.AuthorizationFromContext(ctx)
	if err := h.service.Delete(ctx, shared.PrincipalFromContext(ctx), authz, id); err != nil {
		h.fail(w, "delete document failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
