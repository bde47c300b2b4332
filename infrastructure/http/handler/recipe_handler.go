package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/glucon/glucon-api/application/port/inbound"
	apperror "github.com/glucon/glucon-api/domain/error"
	"github.com/glucon/glucon-api/infrastructure/http/middleware"
	"github.com/glucon/glucon-api/infrastructure/http/response"
	"github.com/glucon/glucon-api/infrastructure/http/validator"
	"github.com/glucon/glucon-api/infrastructure/service/logger"
)

var recipeFields = []string{"title", "content"}

type RecipeHandler struct {
	recipeUseCase  inbound.RecipeUseCase
	maxUploadBytes int64
	logger         logger.Logger
}

func NewRecipeHandler(recipeUseCase inbound.RecipeUseCase, maxUploadBytes int64, logger logger.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipeUseCase:  recipeUseCase,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := h.parseRecipeForm(w, r)
	if err != nil {
		response.AppError(w, apperror.ErrInvalidPayload(err.Error()))
		return
	}
	defer cleanup()

	if userID, ok := middleware.UserID(r.Context()); ok {
		req.CreatedBy = &userID
	}

	res, err := h.recipeUseCase.CreateRecipe(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.Success(w, http.StatusCreated, CreatedResponse{Status: "created", ID: res.ID})
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipeUseCase.ListRecipes(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, recipes)
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.AppError(w, apperror.ErrInvalidID(raw))
		return
	}

	recipe, err := h.recipeUseCase.GetRecipe(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, recipe)
}

// Image streams a stored recipe image. It is public so that image URLs can be
// embedded directly.
func (h *RecipeHandler) Image(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]

	body, contentType, err := h.recipeUseCase.OpenImage(r.Context(), name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn(r.Context(), "Image stream interrupted", map[string]interface{}{
			"filename": name,
			"error":    err.Error(),
		})
	}
}

// AdminCreate is the form endpoint used by the admin page. It answers in
// plain text.
func (h *RecipeHandler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := h.parseRecipeForm(w, r)
	if err != nil || validator.MissingField(recipeFields, map[string]string{
		"title":   req.Title,
		"content": req.Content,
	}) != "" {
		if cleanup != nil {
			cleanup()
		}
		response.Text(w, http.StatusBadRequest, "Invalid input")
		return
	}
	defer cleanup()

	if userID, ok := middleware.UserID(r.Context()); ok {
		req.CreatedBy = &userID
	}

	if _, err := h.recipeUseCase.CreateRecipe(r.Context(), req); err != nil {
		appErr := toAppError(err)
		if appErr.Status == http.StatusBadRequest {
			response.Text(w, http.StatusBadRequest, "Invalid input")
			return
		}
		h.logger.Error(r.Context(), "Admin recipe create failed", err, nil)
		response.Text(w, appErr.Status, "Error")
		return
	}

	response.Text(w, http.StatusOK, "Saved")
}

// parseRecipeForm reads title, content and an optional image from a
// multipart or urlencoded body. The returned cleanup releases the upload.
func (h *RecipeHandler) parseRecipeForm(w http.ResponseWriter, r *http.Request) (inbound.CreateRecipeRequest, func(), error) {
	var req inbound.CreateRecipeRequest
	noop := func() {}

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	err := r.ParseMultipartForm(32 << 20)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return req, noop, err
	}

	req.Title = r.FormValue("title")
	req.Content = r.FormValue("content")

	if r.MultipartForm == nil {
		return req, noop, nil
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, cleanup, nil
		}
		return req, cleanup, err
	}
	req.Image = imageUpload(file, header)

	return req, func() {
		_ = file.Close()
		cleanup()
	}, nil
}

func imageUpload(file multipart.File, header *multipart.FileHeader) *inbound.ImageUpload {
	return &inbound.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
}
