package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/tracker/internal/core/domain"
	"github.com/taskflow/tracker/internal/core/ports"
)

func TestPageParams(t *testing.T) {
	cases := []struct {
		query          string
		wantPage, want int
	}{
		{"", 0, 0},
		{"?page=2&size=10", 2, 10},
		{"?page=abc&size=", 0, 0},
	}
	for _, tc := range cases {
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/tasks"+tc.query, nil), httptest.NewRecorder())
		page, size := pageParams(c)
		if page != tc.wantPage || size != tc.want {
			t.Errorf("%q: got (%d, %d)", tc.query, page, size)
		}
	}
}

func TestToUpdateInput_KeepsOmittedFieldsNil(t *testing.T) {
	status := "COMPLETED"
	in := toUpdateInput(updateTaskRequest{Status: &status})

	if in.Title != nil || in.Description != nil || in.DueDate != nil {
		t.Fatalf("omitted fields must stay nil: %+v", in)
	}
	if in.Status == nil || *in.Status != domain.StatusCompleted {
		t.Fatalf("unexpected status %v", in.Status)
	}
}

func TestToTaskResponse_UTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	due := time.Date(2030, 5, 1, 10, 0, 0, 0, loc)

	resp := toTaskResponse(&ports.TaskView{ID: "t1", DueDate: due, CreatedAt: due, Status: domain.StatusPending})
	if resp.DueDate.Location() != time.UTC {
		t.Fatalf("expected UTC, got %s", resp.DueDate.Location())
	}
	if !resp.DueDate.Equal(due) {
		t.Fatal("instant must be preserved")
	}
}
