package sandbox

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Checker-Finance/appstore/internal/metrics"
)

type authRequest struct {
	APIKey  string `json:"api_key"`
	AppSlug string `json:"app_slug"`
	UserID  string `json:"user_id"`
}

type dataRequest struct {
	Key   string `json:"key"`
	Token string `json:"token"`
	Value string `json:"value"`
}

type submitRequest struct {
	Token   string          `json:"token"`
	Results json.RawMessage `json:"results"`
}

// Handler serves the appstore endpoints against a Store.
type Handler struct {
	logger *zap.Logger
	store  *Store
	apps   map[string]string // app slug → api key
}

// NewHandler creates a Handler accepting the given app slug → api key registry.
func NewHandler(logger *zap.Logger, store *Store, apps map[string]string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger, store: store, apps: apps}
}

// Auth issues a token for a registered app and any non-empty user id.
func (h *Handler) Auth(c *fiber.Ctx) error {
	var req authRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, "auth", fiber.StatusBadRequest, fiber.Map{"error": err.Error()})
	}

	key, known := h.apps[req.AppSlug]
	if !known || req.UserID == "" || subtle.ConstantTimeCompare([]byte(key), []byte(req.APIKey)) != 1 {
		h.logger.Warn("sandbox.auth_rejected",
			zap.String("app", req.AppSlug),
			zap.String("user", req.UserID))
		return respond(c, "auth", fiber.StatusUnauthorized, fiber.Map{"error": "invalid credentials"})
	}

	p := Principal{AppSlug: req.AppSlug, UserID: req.UserID}
	token, err := h.store.IssueToken(c.Context(), p)
	if err != nil {
		h.logger.Error("sandbox.issue_token_failed", zap.Error(err))
		return respond(c, "auth", fiber.StatusInternalServerError, fiber.Map{"error": "token issue failed"})
	}

	return respond(c, "auth", fiber.StatusOK, fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":       p.UserID,
			"app_slug": p.AppSlug,
		},
	})
}

// Get returns {key, value}; value is null when the key is unset.
func (h *Handler) Get(c *fiber.Ctx) error {
	var req dataRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, "get", fiber.StatusBadRequest, fiber.Map{"error": err.Error()})
	}
	p, status, err := h.authorize(c, req.Token)
	if err != nil {
		return respond(c, "get", status, fiber.Map{"error": err.Error()})
	}

	value, ok, err := h.store.GetValue(c.Context(), p, req.Key)
	if err != nil {
		h.logger.Error("sandbox.get_failed", zap.Error(err))
		return respond(c, "get", fiber.StatusInternalServerError, fiber.Map{"error": "read failed"})
	}
	if !ok {
		return respond(c, "get", fiber.StatusOK, fiber.Map{"key": req.Key, "value": nil})
	}
	return respond(c, "get", fiber.StatusOK, fiber.Map{"key": req.Key, "value": value})
}

// Set stores value under key and echoes {key, value}.
func (h *Handler) Set(c *fiber.Ctx) error {
	var req dataRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, "set", fiber.StatusBadRequest, fiber.Map{"error": err.Error()})
	}
	p, status, err := h.authorize(c, req.Token)
	if err != nil {
		return respond(c, "set", status, fiber.Map{"error": err.Error()})
	}
	if req.Key == "" {
		return respond(c, "set", fiber.StatusBadRequest, fiber.Map{"error": "key is required"})
	}

	if err := h.store.SetValue(c.Context(), p, req.Key, req.Value); err != nil {
		h.logger.Error("sandbox.set_failed", zap.Error(err))
		return respond(c, "set", fiber.StatusInternalServerError, fiber.Map{"error": "write failed"})
	}
	return respond(c, "set", fiber.StatusOK, fiber.Map{"key": req.Key, "value": req.Value})
}

// Submit records the results payload and echoes it back.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, "submit", fiber.StatusBadRequest, fiber.Map{"error": err.Error()})
	}
	p, status, err := h.authorize(c, req.Token)
	if err != nil {
		return respond(c, "submit", status, fiber.Map{"error": err.Error()})
	}

	if err := h.store.SaveSubmission(c.Context(), p, req.Results); err != nil {
		h.logger.Error("sandbox.submit_failed", zap.Error(err))
		return respond(c, "submit", fiber.StatusInternalServerError, fiber.Map{"error": "submit failed"})
	}
	return respond(c, "submit", fiber.StatusOK, fiber.Map{"status": "submitted", "results": req.Results})
}

func (h *Handler) authorize(c *fiber.Ctx, token string) (Principal, int, error) {
	p, err := h.store.LookupToken(c.Context(), token)
	if errors.Is(err, ErrUnknownToken) {
		return Principal{}, fiber.StatusUnauthorized, err
	}
	if err != nil {
		h.logger.Error("sandbox.token_lookup_failed", zap.Error(err))
		return Principal{}, fiber.StatusInternalServerError, errors.New("token lookup failed")
	}
	return p, fiber.StatusOK, nil
}

func respond(c *fiber.Ctx, endpoint string, status int, body fiber.Map) error {
	metrics.IncSandboxRequest(endpoint, strconv.Itoa(status))
	return c.Status(status).JSON(body)
}
