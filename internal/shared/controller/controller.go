// Package controller implements the request protocol shared by the entity
// handlers: run one store statement, re-read the whole collection, record a
// business event and answer with the refreshed collection. Every failure is
// logged with its own event code and collapses to the same generic 500.
package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"library-api/internal/shared/endpoint"
	"library-api/internal/shared/response"
	"library-api/pkg/logger"
)

// Events names one operation and the codes it logs under.
type Events struct {
	// Operation identifies the handler method in log messages, e.g. "AuthorHandler.Create".
	Operation string
	// Verb is the store action: get, create, update or delete.
	Verb string

	Error        string // primary statement failed
	ConfirmError string // confirmation read after a successful write failed
	Exception    string // unexpected failure anywhere in the handler
	Success      string // business event
}

// Collection describes how an entity's full collection is read and how each
// row is summarised in the "viewed" business record.
type Collection[T any] struct {
	Key       string
	Load      func(ctx context.Context) ([]T, error)
	Summarize func(T) any
}

// Write describes one write operation.
type Write struct {
	Events  Events
	Message string
	// LogBody adds the request body to the store-failure entry.
	LogBody bool
	// ErrorFields are extra fields for the store-failure entry, e.g. the path id.
	ErrorFields logger.Fields
	// Exec runs the statement and returns the business record fields.
	Exec func(ctx context.Context) (logger.Fields, error)
}

// Base carries the process-wide loggers into every handler.
type Base struct {
	Log *logger.Loggers
}

func NewBase(log *logger.Loggers) *Base {
	return &Base{Log: log}
}

func requestFields(req *endpoint.Request, event string) logger.Fields {
	return logger.Fields{
		"event":    event,
		"endpoint": req.Path,
		"method":   req.Method,
	}
}

// Recover is deferred by every handler method. A panic is logged under the
// exception code and *resp becomes the generic 500.
func (b *Base) Recover(req *endpoint.Request, ev Events, resp **endpoint.Response) {
	r := recover()
	if r == nil {
		return
	}
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("%v", r)
	}
	*resp = b.Exception(req, ev, errors.WithStack(err))
}

// Exception logs err under the exception code and returns the generic 500.
func (b *Base) Exception(req *endpoint.Request, ev Events, err error) *endpoint.Response {
	fields := requestFields(req, ev.Exception)
	fields[logger.ErrorKey] = err
	b.Log.LogSystem(logger.LevelError, "Exception in "+ev.Operation, fields)
	return endpoint.InternalError()
}

// Get reads the collection, records the viewed event and answers {key: rows}.
func Get[T any](ctx context.Context, b *Base, req *endpoint.Request, col Collection[T], ev Events) *endpoint.Response {
	rows, err := col.Load(ctx)
	if err != nil {
		fields := requestFields(req, ev.Error)
		fields[logger.ErrorKey] = err
		b.Log.LogSystem(logger.LevelError,
			fmt.Sprintf("Error executing %s query in %s", ev.Verb, ev.Operation), fields)
		return endpoint.InternalError()
	}
	if rows == nil {
		rows = []T{}
	}

	summary := make([]any, 0, len(rows))
	for _, row := range rows {
		summary = append(summary, col.Summarize(row))
	}
	fields := requestFields(req, ev.Success)
	fields["count"] = len(rows)
	fields[col.Key] = summary
	b.Log.LogBusiness(ev.Success, fields)

	return endpoint.JSON(http.StatusOK, response.Collection(col.Key, rows))
}

// Mutate runs w.Exec, then the confirmation read of the collection. The write
// and the read are separate store round trips, so the returned collection may
// include concurrent changes made by other requests.
func Mutate[T any](ctx context.Context, b *Base, req *endpoint.Request, col Collection[T], w Write) *endpoint.Response {
	ev := w.Events

	business, err := w.Exec(ctx)
	if err != nil {
		fields := requestFields(req, ev.Error)
		fields[logger.ErrorKey] = err
		for k, v := range w.ErrorFields {
			fields[k] = v
		}
		if w.LogBody {
			fields["requestBody"] = req.BodyForLog()
		}
		b.Log.LogSystem(logger.LevelError,
			fmt.Sprintf("Error executing %s query in %s", ev.Verb, ev.Operation), fields)
		return endpoint.InternalError()
	}

	rows, err := col.Load(ctx)
	if err != nil {
		fields := requestFields(req, ev.ConfirmError)
		fields[logger.ErrorKey] = err
		b.Log.LogSystem(logger.LevelError,
			fmt.Sprintf("Error executing get query after %s in %s", ev.Verb, ev.Operation), fields)
		return endpoint.InternalError()
	}
	if rows == nil {
		rows = []T{}
	}

	fields := requestFields(req, ev.Success)
	for k, v := range business {
		fields[k] = v
	}
	b.Log.LogBusiness(ev.Success, fields)

	return endpoint.JSON(http.StatusOK, response.Written(w.Message, col.Key, rows))
}
