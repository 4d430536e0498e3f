// Package endpoint decouples handlers from the HTTP framework: a handler takes
// a Request and returns a Response, and Gin adapts it to a gin route.
package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"library-api/internal/shared/response"
)

// Request is the part of an HTTP request a handler may look at.
type Request struct {
	Method string
	// Path is the request URI as received, including the query string.
	Path   string
	Params map[string]string
	Body   []byte
}

// Param returns the named path parameter, or "".
func (r *Request) Param(name string) string {
	return r.Params[name]
}

// HasBody reports whether the request carried a non-blank body.
func (r *Request) HasBody() bool {
	return len(bytes.TrimSpace(r.Body)) > 0
}

// Decode unmarshals the JSON body into dst. A missing body leaves dst untouched.
func (r *Request) Decode(dst any) error {
	if !r.HasBody() {
		return nil
	}
	return json.Unmarshal(r.Body, dst)
}

// BodyForLog returns the body as decoded JSON, or as a string when it is not JSON.
func (r *Request) BodyForLog() any {
	if !r.HasBody() {
		return nil
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return string(r.Body)
	}
	return v
}

// Response is a status code and a JSON body.
type Response struct {
	Status int
	Body   any
}

// JSON builds a Response.
func JSON(status int, body any) *Response {
	return &Response{Status: status, Body: body}
}

// InternalError is the generic 500 answer.
func InternalError() *Response {
	return JSON(http.StatusInternalServerError, response.Generic())
}

// Handler serves one operation.
type Handler func(ctx context.Context, req *Request) *Response

// Gin adapts h to a gin route.
func Gin(h Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := NewRequest(c)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Generic())
			return
		}

		resp := h(c.Request.Context(), req)
		if resp == nil {
			resp = InternalError()
		}
		c.JSON(resp.Status, resp.Body)
	}
}

// NewRequest copies method, URI, path params and body out of c.
func NewRequest(c *gin.Context) (*Request, error) {
	var body []byte
	if c.Request.Body != nil {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		body = b
	}

	params := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}

	return &Request{
		Method: c.Request.Method,
		Path:   c.Request.URL.RequestURI(),
		Params: params,
		Body:   body,
	}, nil
}
