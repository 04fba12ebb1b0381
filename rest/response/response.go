// Package response renders and parses the JSON envelope used by the sqlbatch REST API.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/canonical/lxd/shared/api"
	"github.com/canonical/lxd/shared/logger"
)

// Response is a reply to an API request.
type Response interface {
	Render(w http.ResponseWriter) error
}

type syncResponse struct {
	success  bool
	code     int
	metadata any
}

// SyncResponse returns a synchronous response carrying metadata.
func SyncResponse(success bool, metadata any) Response {
	return &syncResponse{success: success, code: http.StatusOK, metadata: metadata}
}

// CreatedResponse returns a synchronous response for a newly created resource.
func CreatedResponse(metadata any) Response {
	return &syncResponse{success: true, code: http.StatusCreated, metadata: metadata}
}

// EmptySyncResponse is a successful response without metadata.
var EmptySyncResponse = SyncResponse(true, nil)

func (r *syncResponse) Render(w http.ResponseWriter) error {
	status := api.Success
	if !r.success {
		status = api.Failure
	}

	resp := api.ResponseRaw{
		Type:       api.SyncResponse,
		Status:     status.String(),
		StatusCode: int(status),
		Metadata:   r.metadata,
	}

	w.WriteHeader(r.code)

	return json.NewEncoder(w).Encode(resp)
}

type errorResponse struct {
	code int
	msg  string
}

// ErrorResponse returns an error response with the given HTTP status code.
func ErrorResponse(code int, msg string) Response {
	return &errorResponse{code: code, msg: msg}
}

func (r *errorResponse) Render(w http.ResponseWriter) error {
	resp := api.ResponseRaw{
		Type:  api.ErrorResponse,
		Error: r.msg,
		Code:  r.code,
	}

	w.WriteHeader(r.code)

	return json.NewEncoder(w).Encode(resp)
}

func errorOrDefault(err error, code int) Response {
	if err == nil {
		return ErrorResponse(code, http.StatusText(code))
	}

	return ErrorResponse(code, err.Error())
}

// BadRequest returns a 400 response.
func BadRequest(err error) Response {
	return errorOrDefault(err, http.StatusBadRequest)
}

// NotFound returns a 404 response.
func NotFound(err error) Response {
	return errorOrDefault(err, http.StatusNotFound)
}

// NotImplemented returns a 501 response.
func NotImplemented(err error) Response {
	return errorOrDefault(err, http.StatusNotImplemented)
}

// InternalError returns a 500 response.
func InternalError(err error) Response {
	return errorOrDefault(err, http.StatusInternalServerError)
}

// Unavailable returns a 503 response.
func Unavailable(err error) Response {
	return errorOrDefault(err, http.StatusServiceUnavailable)
}

// SmartError picks the status code carried by err, falling back to 500.
func SmartError(err error) Response {
	if err == nil {
		return EmptySyncResponse
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.Status() != 0 {
		return ErrorResponse(statusErr.Status(), err.Error())
	}

	if errors.Is(err, os.ErrNotExist) {
		return NotFound(err)
	}

	return InternalError(err)
}

// ParseResponse takes a http response, parses it and returns the extracted result.
func ParseResponse(resp *http.Response) (*api.Response, error) {
	defer resp.Body.Close()

	decoder := json.NewDecoder(resp.Body)
	response := api.Response{}

	err := decoder.Decode(&response)
	if err != nil {
		// Check the return value for a cleaner error.
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("Failed to fetch %q: %q", resp.Request.URL.String(), resp.Status)
		}

		return nil, err
	}

	if response.Type == api.ErrorResponse {
		return nil, api.StatusErrorf(resp.StatusCode, "%s", response.Error)
	}

	_, err = io.Copy(io.Discard, resp.Body)
	if err != nil {
		logger.Error("Failed to read response body", logger.Ctx{"error": err})
	}

	return &response, nil
}
