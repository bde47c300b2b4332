package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/glucon/glucon-api/application/port/inbound"
	apperror "github.com/glucon/glucon-api/domain/error"
	"github.com/glucon/glucon-api/infrastructure/http/middleware"
	"github.com/glucon/glucon-api/infrastructure/http/response"
	"github.com/glucon/glucon-api/infrastructure/service/logger"
)

type AuthHandler struct {
	authUseCase inbound.AuthUseCase
	logger      logger.Logger
}

func NewAuthHandler(authUseCase inbound.AuthUseCase, logger logger.Logger) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		logger:      logger,
	}
}

type CreatedResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req inbound.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.AppError(w, apperror.ErrInvalidPayload(err.Error()))
		return
	}

	res, err := h.authUseCase.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.Success(w, http.StatusCreated, CreatedResponse{Status: "created", ID: res.ID})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req inbound.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.AppError(w, apperror.ErrInvalidPayload(err.Error()))
		return
	}

	res, err := h.authUseCase.Login(r.Context(), req)
	if err != nil {
		logger.LogAuthEvent(r.Context(), h.logger, "login", "", middleware.ClientIP(r), false, nil)
		writeError(w, r, h.logger, err)
		return
	}

	response.Success(w, http.StatusOK, res)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.AppError(w, apperror.ErrMissingToken(nil))
		return
	}

	res, err := h.authUseCase.Me(r.Context(), userID)
	if err != nil {
		h.logger.Debug(r.Context(), "Profile lookup failed", map[string]interface{}{
			"user_id": strconv.FormatInt(userID, 10),
		})
		writeError(w, r, h.logger, err)
		return
	}

	response.Success(w, http.StatusOK, res)
}
