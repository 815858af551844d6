package models

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// Field is one header line as it appeared on the wire.
type Field struct {
	Name  string
	Value string
}

// Header keeps header lines in the order they were received.
type Header []Field

type Request struct {
	Id      uuid.UUID
	Worker  string
	Method  string
	URI     string
	Headers Header
}

type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// NewTextResponse builds a 200 text/plain response whose Content-Length
// always matches the body.
func NewTextResponse(body []byte) Response {
	h := make(http.Header, 2)
	h.Set("Content-Type", "text/plain")
	h.Set("Content-Length", strconv.Itoa(len(body)))

	return Response{
		Status:  http.StatusOK,
		Headers: h,
		Body:    body,
	}
}
