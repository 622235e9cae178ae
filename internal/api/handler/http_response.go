package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fellowship-vote-ledger/internal/api/middleware"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message,omitempty"`
	Data          any       `json:"data,omitempty"`
	Votes         *int64    `json:"votes,omitempty"`
	Meta          *MetaInfo `json:"meta,omitempty"`
	AlreadyExists bool      `json:"alreadyExists,omitempty"`
	InProgress    bool      `json:"inProgress,omitempty"`
	Details       any       `json:"details,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// MetaInfo carries paging for list responses
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

func respond(c *gin.Context, statusCode int, response *Response) {
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data any) {
	respond(c, http.StatusOK, &Response{Success: true, Data: data})
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data any) {
	respond(c, http.StatusCreated, &Response{Success: true, Data: data})
}

// RespondCommitted sends a 200 with the newly committed payment as data and
// the votes it earned alongside
func RespondCommitted(c *gin.Context, data any, votes int64) {
	respond(c, http.StatusOK, &Response{Success: true, Data: data, Votes: &votes})
}

// RespondWithPaginatedData sends a 200 with one page of records
func RespondWithPaginatedData(c *gin.Context, data any, page, perPage, totalItems int) {
	totalPages := totalItems / perPage
	if totalItems%perPage > 0 {
		totalPages++
	}
	respond(c, http.StatusOK, &Response{
		Success: true,
		Data:    data,
		Meta: &MetaInfo{
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
			TotalItems: totalItems,
		},
	})
}

// RespondMessage sends a successful response carrying only a message
func RespondMessage(c *gin.Context, statusCode int, message string) {
	respond(c, statusCode, &Response{Success: true, Message: message})
}

// RespondAlreadyExists sends a 200 with the previously committed record
func RespondAlreadyExists(c *gin.Context, data any) {
	respond(c, http.StatusOK, &Response{Success: true, Message: "Payment already processed", Data: data, AlreadyExists: true})
}

func RespondError(c *gin.Context, statusCode int, message string, details any) {
	respond(c, statusCode, &Response{Success: false, Message: message, Details: details})
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	RespondError(c, http.StatusBadRequest, message, nil)
}

// RespondUnauthorized sends a 401 Unauthorized response
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	RespondError(c, http.StatusUnauthorized, message, nil)
}

// RespondNotFound sends a 404 Not Found response
func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondError(c, http.StatusNotFound, message, nil)
}

// RespondInProgress sends a 429 telling the caller another attempt holds the reference
func RespondInProgress(c *gin.Context) {
	respond(c, http.StatusTooManyRequests, &Response{
		Success:    false,
		Message:    "Verification already in progress for this reference, retry shortly",
		InProgress: true,
	})
}

// RespondInternalError sends a 500 Internal Server Error response
func RespondInternalError(c *gin.Context) {
	RespondError(c, http.StatusInternalServerError, "An internal server error occurred", nil)
}
