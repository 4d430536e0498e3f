package handler

import (
	"context"

	"library-api/internal/domains/book/model"
	"library-api/internal/domains/book/repository"
	"library-api/internal/shared"
	"library-api/internal/shared/controller"
	"library-api/internal/shared/endpoint"
	"library-api/pkg/logger"
)

var (
	getEvents = controller.Events{
		Operation: "BookHandler.Get",
		Verb:      "get",
		Error:     "BOOKS_GET_ERROR",
		Exception: "BOOKS_GET_EXCEPTION",
		Success:   "BOOKS_VIEWED",
	}
	createEvents = controller.Events{
		Operation:    "BookHandler.Create",
		Verb:         "create",
		Error:        "BOOK_CREATE_ERROR",
		ConfirmError: "BOOK_CREATE_GET_ERROR",
		Exception:    "BOOK_CREATE_EXCEPTION",
		Success:      "BOOK_CREATED",
	}
	updateEvents = controller.Events{
		Operation:    "BookHandler.Update",
		Verb:         "update",
		Error:        "BOOK_UPDATE_ERROR",
		ConfirmError: "BOOK_UPDATE_GET_ERROR",
		Exception:    "BOOK_UPDATE_EXCEPTION",
		Success:      "BOOK_UPDATED",
	}
	deleteEvents = controller.Events{
		Operation:    "BookHandler.Delete",
		Verb:         "delete",
		Error:        "BOOK_DELETE_ERROR",
		ConfirmError: "BOOK_DELETE_GET_ERROR",
		Exception:    "BOOK_DELETE_EXCEPTION",
		Success:      "BOOK_DELETED",
	}
)

type BookHandler struct {
	*controller.Base
	repo repository.Repository
}

func NewBookHandler(base *controller.Base, repo repository.Repository) *BookHandler {
	return &BookHandler{Base: base, repo: repo}
}

func (h *BookHandler) collection() controller.Collection[model.Book] {
	return controller.Collection[model.Book]{
		Key:       "books",
		Load:      h.repo.List,
		Summarize: func(b model.Book) any { return b.Summary() },
	}
}

// ════════════════════════════════════════════════════════════════
// GET /books
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) Get(ctx context.Context, req *endpoint.Request) (resp *endpoint.Response) {
	defer h.Recover(req, getEvents, &resp)

	return controller.Get(ctx, h.Base, req, h.collection(), getEvents)
}

// ════════════════════════════════════════════════════════════════
// POST /books
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) Create(ctx context.Context, req *endpoint.Request) (resp *endpoint.Response) {
	defer h.Recover(req, createEvents, &resp)

	var in model.BookInput
	if err := req.Decode(&in); err != nil {
		return h.Exception(req, createEvents, err)
	}

	return controller.Mutate(ctx, h.Base, req, h.collection(), controller.Write{
		Events:  createEvents,
		Message: "Book created successfully!",
		LogBody: true,
		Exec: func(ctx context.Context) (logger.Fields, error) {
			id, err := h.repo.Create(ctx, in)
			if err != nil {
				return nil, err
			}
			return logger.Fields{"book": summaryOf(id, in)}, nil
		},
	})
}

// ════════════════════════════════════════════════════════════════
// PUT /books/:id
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) Update(ctx context.Context, req *endpoint.Request) (resp *endpoint.Response) {
	defer h.Recover(req, updateEvents, &resp)

	bookID := req.Param("id")
	var in model.BookInput
	if err := req.Decode(&in); err != nil {
		return h.Exception(req, updateEvents, err)
	}

	return controller.Mutate(ctx, h.Base, req, h.collection(), controller.Write{
		Events:      updateEvents,
		Message:     "Book updated successfully!",
		LogBody:     true,
		ErrorFields: logger.Fields{"bookId": bookID},
		Exec: func(ctx context.Context) (logger.Fields, error) {
			if err := h.repo.Update(ctx, bookID, in); err != nil {
				return nil, err
			}
			return logger.Fields{"book": summaryOf(bookID, in)}, nil
		},
	})
}

// ════════════════════════════════════════════════════════════════
// DELETE /books/:id
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) Delete(ctx context.Context, req *endpoint.Request) (resp *endpoint.Response) {
	defer h.Recover(req, deleteEvents, &resp)

	bookID := req.Param("id")

	return controller.Mutate(ctx, h.Base, req, h.collection(), controller.Write{
		Events:      deleteEvents,
		Message:     "Book deleted successfully!",
		ErrorFields: logger.Fields{"bookId": bookID},
		Exec: func(ctx context.Context) (logger.Fields, error) {
			if err := h.repo.Delete(ctx, bookID); err != nil {
				return nil, err
			}
			return logger.Fields{"bookId": shared.ID(bookID)}, nil
		},
	})
}

// summaryOf runs after a successful write, so ids come out numeric like those of listed rows.
func summaryOf(id any, in model.BookInput) model.BookSummary {
	if raw, ok := id.(string); ok {
		id = shared.ID(raw)
	}
	return model.BookSummary{ID: id, Title: in.Title.String(), AuthorID: shared.ID(in.Author.String())}
}
