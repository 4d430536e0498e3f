package handler

import (
	"context"

	"library-api/internal/domains/author/model"
	"library-api/internal/domains/author/repository"
	"library-api/internal/shared"
	"library-api/internal/shared/controller"
	"library-api/internal/shared/endpoint"
	"library-api/pkg/logger"
)

var (
	getEvents = controller.Events{
		Operation: "AuthorHandler.Get",
		Verb:      "get",
		Error:     "AUTHORS_GET_ERROR",
		Exception: "AUTHORS_GET_EXCEPTION",
		Success:   "AUTHORS_VIEWED",
	}
	createEvents = controller.Events{
		Operation:    "AuthorHandler.Create",
		Verb:         "create",
		Error:        "AUTHOR_CREATE_ERROR",
		ConfirmError: "AUTHOR_CREATE_GET_ERROR",
		Exception:    "AUTHOR_CREATE_EXCEPTION",
		Success:      "AUTHOR_CREATED",
	}
	updateEvents = controller.Events{
		Operation:    "AuthorHandler.Update",
		Verb:         "update",
		Error:        "AUTHOR_UPDATE_ERROR",
		ConfirmError: "AUTHOR_UPDATE_GET_ERROR",
		Exception:    "AUTHOR_UPDATE_EXCEPTION",
		Success:      "AUTHOR_UPDATED",
	}
	deleteEvents = controller.Events{
		Operation:    "AuthorHandler.Delete",
		Verb:         "delete",
		Error:        "AUTHOR_DELETE_ERROR",
		ConfirmError: "AUTHOR_DELETE_GET_ERROR",
		Exception:    "AUTHOR_DELETE_EXCEPTION",
		Success:      "AUTHOR_DELETED",
	}
)

type AuthorHandler struct {
	*controller.Base
	repo repository.Repository
}

func NewAuthorHandler(base *controller.Base, repo repository.Repository) *AuthorHandler {
	return &AuthorHandler{Base: base, repo: repo}
}

func (h *AuthorHandler) collection() controller.Collection[model.Author] {
	return controller.Collection[model.Author]{
		Key:       "authors",
		Load:      h.repo.List,
		Summarize: func(a model.Author) any { return a.Summary() },
	}
}

// ════════════════════════════════════════════════════════════════
// GET /authors
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Get(ctx context.Context, req *endpoint.Request) (resp *endpoint.Response) {
	defer h.Recover(req, getEvents, &resp)

	return controller.Get(ctx, h.Base, req, h.collection(), getEvents)
}

// ════════════════════════════════════════════════════════════════
// POST /authors
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Create(ctx context.Context, req *endpoint.Request) (resp *endpoint.Response) {
	defer h.Recover(req, createEvents, &resp)

	var in model.AuthorInput
	if err := req.Decode(&in); err != nil {
		return h.Exception(req, createEvents, err)
	}

	return controller.Mutate(ctx, h.Base, req, h.collection(), controller.Write{
		Events:  createEvents,
		Message: "Author created successfully!",
		LogBody: true,
		Exec: func(ctx context.Context) (logger.Fields, error) {
			id, err := h.repo.Create(ctx, in)
			if err != nil {
				return nil, err
			}
			return logger.Fields{
				"author": model.AuthorSummary{ID: id, Name: in.Name.String()},
			}, nil
		},
	})
}

// ════════════════════════════════════════════════════════════════
// PUT /authors/:id
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Update(ctx context.Context, req *endpoint.Request) (resp *endpoint.Response) {
	defer h.Recover(req, updateEvents, &resp)

	authorID := req.Param("id")
	var in model.AuthorInput
	if err := req.Decode(&in); err != nil {
		return h.Exception(req, updateEvents, err)
	}

	return controller.Mutate(ctx, h.Base, req, h.collection(), controller.Write{
		Events:      updateEvents,
		Message:     "Author updated successfully!",
		LogBody:     true,
		ErrorFields: logger.Fields{"authorId": authorID},
		Exec: func(ctx context.Context) (logger.Fields, error) {
			if err := h.repo.Update(ctx, authorID, in); err != nil {
				return nil, err
			}
			return logger.Fields{
				"author": model.AuthorSummary{ID: shared.ID(authorID), Name: in.Name.String()},
			}, nil
		},
	})
}

// ════════════════════════════════════════════════════════════════
// DELETE /authors/:id
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Delete(ctx context.Context, req *endpoint.Request) (resp *endpoint.Response) {
	defer h.Recover(req, deleteEvents, &resp)

	authorID := req.Param("id")

	return controller.Mutate(ctx, h.Base, req, h.collection(), controller.Write{
		Events:      deleteEvents,
		Message:     "Author deleted successfully!",
		ErrorFields: logger.Fields{"authorId": authorID},
		Exec: func(ctx context.Context) (logger.Fields, error) {
			if err := h.repo.Delete(ctx, authorID); err != nil {
				return nil, err
			}
			return logger.Fields{"authorId": shared.ID(authorID)}, nil
		},
	})
}
