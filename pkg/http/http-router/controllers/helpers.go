package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lintang-b-s/osm-geocoder/pkg"
	"go.uber.org/zap"
)

type envelope map[string]interface{}

// writeJSON marshals data structure to encoded JSON response.
func (api *geocodeAPI) writeJSON(w http.ResponseWriter, status int, data interface{},
	headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}

	js = append(js, '\n')
	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(js); err != nil {
		api.log.Error("failed to write JSON response", zap.Error(err))
		return err
	}

	return nil
}

func (api *geocodeAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var resp errorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	if err := api.writeJSON(w, status, resp, nil); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (api *geocodeAPI) BadRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusBadRequest, "bad_request", err.Error())
}

func (api *geocodeAPI) NotFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusNotFound, "not_found", err.Error())
}

func (api *geocodeAPI) ServerErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	api.errorResponse(w, r, http.StatusInternalServerError, "internal", pkg.MessageInternalServerError)
}

// getStatusCode status http dari code pkg.Error.
func getStatusCode(err error) int {
	var perr *pkg.Error
	if !errors.As(err, &perr) {
		return http.StatusInternalServerError
	}
	switch perr.Code() {
	case pkg.ErrBadParamInput:
		return http.StatusBadRequest
	case pkg.ErrNotFound:
		return http.StatusNotFound
	case pkg.ErrConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (api *geocodeAPI) serviceErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch getStatusCode(err) {
	case http.StatusBadRequest:
		api.BadRequestResponse(w, r, err)
	case http.StatusNotFound:
		api.NotFoundResponse(w, r, err)
	case http.StatusConflict:
		api.errorResponse(w, r, http.StatusConflict, "conflict", err.Error())
	default:
		api.ServerErrorResponse(w, r, err)
	}
}
