package handler

import (
	"net/http"

	"github.com/glucon/glucon-api/infrastructure/http/response"
)

func Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, map[string]string{"status": "healthy"})
}
