package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"library-api/internal/domains/author/model"
	"library-api/internal/domains/author/repository/mocks"
	"library-api/internal/shared"
	"library-api/internal/shared/controller"
	"library-api/internal/shared/endpoint"
	"library-api/internal/shared/response"
	"library-api/pkg/logger"
)

type logs struct {
	system   bytes.Buffer
	business bytes.Buffer
}

func (l *logs) entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func setupAuthorHandler(t *testing.T) (*AuthorHandler, *mocks.MockRepository, *logs) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	l := &logs{}
	base := controller.NewBase(logger.NewJSON(&l.system, &l.business, logger.LevelDebug))
	return NewAuthorHandler(base, repo), repo, l
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

var ada = model.Author{
	ID:       1,
	Name:     "Ada",
	Birthday: date("1815-12-10"),
	Bio:      "Mathematician",
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

var generic = `{"message":"` + response.GenericErrorMessage + `"}`

func TestAuthorHandlerGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rows    []model.Author
		err     error
		status  int
		body    string
		event   string
		channel string
	}{
		{
			name:    "Success",
			rows:    []model.Author{ada},
			status:  http.StatusOK,
			body:    `{"authors":[` + `{"id":1,"name":"Ada","birthday":"1815-12-10T00:00:00Z","bio":"Mathematician","createdAt":"0001-01-01T00:00:00Z","updatedAt":"0001-01-01T00:00:00Z"}` + `]}`,
			event:   "AUTHORS_VIEWED",
			channel: "business",
		},
		{
			name:    "Empty table",
			status:  http.StatusOK,
			body:    `{"authors":[]}`,
			event:   "AUTHORS_VIEWED",
			channel: "business",
		},
		{
			name:    "Store failure",
			err:     errors.New(`relation "author" does not exist`),
			status:  http.StatusInternalServerError,
			body:    generic,
			event:   "AUTHORS_GET_ERROR",
			channel: "system",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h, repo, l := setupAuthorHandler(t)

			repo.EXPECT().List(gomock.Any()).Return(tc.rows, tc.err).Times(1)

			resp := h.Get(context.Background(), &endpoint.Request{Method: http.MethodGet, Path: "/api/authors"})

			require.Equal(t, tc.status, resp.Status)
			require.JSONEq(t, tc.body, marshal(t, resp.Body))

			buf := &l.business
			if tc.channel == "system" {
				buf = &l.system
				require.Empty(t, l.business.String())
			}
			entries := l.entries(t, buf)
			require.Len(t, entries, 1)
			require.Equal(t, tc.event, entries[0]["event"])
		})
	}
}

func TestAuthorHandlerCreate(t *testing.T) {
	t.Parallel()

	input := model.AuthorInput{
		Name:     shared.Text("Ada"),
		Birthday: shared.Text("1815-12-10"),
		Bio:      shared.Text("Mathematician"),
	}

	tests := []struct {
		name       string
		body       string
		createErr  error
		createCall int
		listErr    error
		listCall   int
		status     int
		respBody   string
		event      string
	}{
		{
			name:       "Success",
			body:       `{"name":"Ada","birthday":"1815-12-10","bio":"Mathematician"}`,
			createCall: 1,
			listCall:   1,
			status:     http.StatusOK,
			event:      "AUTHOR_CREATED",
		},
		{
			name:       "Store rejects the row",
			body:       `{"name":"Ada","birthday":"1815-12-10","bio":"Mathematician"}`,
			createErr:  errors.New(`invalid input syntax for type date: "yesterday"`),
			createCall: 1,
			status:     http.StatusInternalServerError,
			respBody:   generic,
			event:      "AUTHOR_CREATE_ERROR",
		},
		{
			name:       "Confirmation read fails",
			body:       `{"name":"Ada","birthday":"1815-12-10","bio":"Mathematician"}`,
			createCall: 1,
			listErr:    errors.New("connection reset by peer"),
			listCall:   1,
			status:     http.StatusInternalServerError,
			respBody:   generic,
			event:      "AUTHOR_CREATE_GET_ERROR",
		},
		{
			name:     "Malformed JSON",
			body:     `{"name":`,
			status:   http.StatusInternalServerError,
			respBody: generic,
			event:    "AUTHOR_CREATE_EXCEPTION",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h, repo, l := setupAuthorHandler(t)

			repo.EXPECT().Create(gomock.Any(), input).Return(int64(1), tc.createErr).Times(tc.createCall)
			repo.EXPECT().List(gomock.Any()).Return([]model.Author{ada}, tc.listErr).Times(tc.listCall)

			resp := h.Create(context.Background(), &endpoint.Request{
				Method: http.MethodPost,
				Path:   "/api/authors",
				Body:   []byte(tc.body),
			})

			require.Equal(t, tc.status, resp.Status)
			if tc.status != http.StatusOK {
				require.JSONEq(t, tc.respBody, marshal(t, resp.Body))
				require.Empty(t, l.business.String())

				entries := l.entries(t, &l.system)
				require.Len(t, entries, 1)
				require.Equal(t, tc.event, entries[0]["event"])
				require.Equal(t, "error", entries[0]["level"])
				return
			}

			out := resp.Body.(map[string]any)
			require.Equal(t, "Author created successfully!", out["message"])
			require.Equal(t, []model.Author{ada}, out["authors"])

			records := l.entries(t, &l.business)
			require.Len(t, records, 1)
			require.Equal(t, tc.event, records[0]["message"])
			require.Equal(t, map[string]any{"id": float64(1), "name": "Ada"}, records[0]["author"])
			require.Equal(t, "/api/authors", records[0]["endpoint"])
		})
	}
}

func TestAuthorHandlerCreateLogsBodyOnFailure(t *testing.T) {
	t.Parallel()
	h, repo, l := setupAuthorHandler(t)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("null value in column \"bio\""))

	resp := h.Create(context.Background(), &endpoint.Request{
		Method: http.MethodPost,
		Path:   "/api/authors",
		Body:   []byte(`{"name":"Ada","birthday":"1815-12-10"}`),
	})

	require.Equal(t, http.StatusInternalServerError, resp.Status)
	require.NotContains(t, marshal(t, resp.Body), "bio")

	entries := l.entries(t, &l.system)
	require.Len(t, entries, 1)
	require.Equal(t, map[string]any{"name": "Ada", "birthday": "1815-12-10"}, entries[0]["requestBody"])
	require.Contains(t, entries[0]["error"], "null value")
}

func TestAuthorHandlerUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		id        string
		recordID  float64
		updateErr error
		listCall  int
		status    int
		event     string
	}{
		{
			name:     "Success",
			id:       "1",
			recordID: 1,
			listCall: 1,
			status:   http.StatusOK,
			event:    "AUTHOR_UPDATED",
		},
		{
			name:     "Unknown id is not an error",
			id:       "999",
			recordID: 999,
			listCall: 1,
			status:   http.StatusOK,
			event:    "AUTHOR_UPDATED",
		},
		{
			name:      "Non-numeric id is rejected by the store",
			id:        "abc",
			updateErr: errors.New(`invalid input syntax for type bigint: "abc"`),
			status:    http.StatusInternalServerError,
			event:     "AUTHOR_UPDATE_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h, repo, l := setupAuthorHandler(t)

			repo.EXPECT().Update(gomock.Any(), tc.id, gomock.Any()).Return(tc.updateErr).Times(1)
			repo.EXPECT().List(gomock.Any()).Return([]model.Author{ada}, nil).Times(tc.listCall)

			resp := h.Update(context.Background(), &endpoint.Request{
				Method: http.MethodPut,
				Path:   "/api/authors/" + tc.id,
				Params: map[string]string{"id": tc.id},
				Body:   []byte(`{"name":"Ada","birthday":"1815-12-10","bio":"Countess"}`),
			})

			require.Equal(t, tc.status, resp.Status)
			if tc.status != http.StatusOK {
				require.JSONEq(t, generic, marshal(t, resp.Body))
				entries := l.entries(t, &l.system)
				require.Len(t, entries, 1)
				require.Equal(t, tc.event, entries[0]["event"])
				require.Equal(t, tc.id, entries[0]["authorId"])
				return
			}

			require.Equal(t, "Author updated successfully!", resp.Body.(map[string]any)["message"])
			records := l.entries(t, &l.business)
			require.Len(t, records, 1)
			require.Equal(t, tc.event, records[0]["message"])
			require.Equal(t, map[string]any{"id": tc.recordID, "name": "Ada"}, records[0]["author"])
		})
	}
}

func TestAuthorHandlerDelete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		deleteErr error
		listCall  int
		status    int
		event     string
	}{
		{
			name:     "Success",
			listCall: 1,
			status:   http.StatusOK,
			event:    "AUTHOR_DELETED",
		},
		{
			name:      "Author still has books",
			deleteErr: errors.New(`update or delete on table "author" violates foreign key constraint`),
			status:    http.StatusInternalServerError,
			event:     "AUTHOR_DELETE_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h, repo, l := setupAuthorHandler(t)

			repo.EXPECT().Delete(gomock.Any(), "1").Return(tc.deleteErr).Times(1)
			repo.EXPECT().List(gomock.Any()).Return([]model.Author{}, nil).Times(tc.listCall)

			resp := h.Delete(context.Background(), &endpoint.Request{
				Method: http.MethodDelete,
				Path:   "/api/authors/1",
				Params: map[string]string{"id": "1"},
			})

			require.Equal(t, tc.status, resp.Status)
			if tc.status != http.StatusOK {
				require.JSONEq(t, generic, marshal(t, resp.Body))
				require.NotContains(t, marshal(t, resp.Body), "foreign key")
				entries := l.entries(t, &l.system)
				require.Len(t, entries, 1)
				require.Equal(t, tc.event, entries[0]["event"])
				require.Nil(t, entries[0]["requestBody"])
				return
			}

			require.JSONEq(t, `{"message":"Author deleted successfully!","authors":[]}`, marshal(t, resp.Body))
			records := l.entries(t, &l.business)
			require.Len(t, records, 1)
			require.Equal(t, float64(1), records[0]["authorId"])
		})
	}
}

func TestAuthorHandlerRecoversFromPanic(t *testing.T) {
	t.Parallel()
	h, repo, l := setupAuthorHandler(t)

	repo.EXPECT().List(gomock.Any()).DoAndReturn(func(context.Context) ([]model.Author, error) {
		panic("driver bug")
	})

	resp := h.Get(context.Background(), &endpoint.Request{Method: http.MethodGet, Path: "/api/authors"})

	require.Equal(t, http.StatusInternalServerError, resp.Status)
	entries := l.entries(t, &l.system)
	require.Len(t, entries, 1)
	require.Equal(t, "AUTHORS_GET_EXCEPTION", entries[0]["event"])
	require.Equal(t, "Exception in AuthorHandler.Get", entries[0]["message"])
}
