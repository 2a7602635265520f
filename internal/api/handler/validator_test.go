package handler

import (
	"strings"
	"testing"
	"time"
)

func TestValidator_UsesJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&createTaskRequest{Title: "x"})
	if err == nil {
		t.Fatal("expected error for missing dueDate")
	}
	if !strings.Contains(err.Error(), "dueDate is required") {
		t.Fatalf("expected json field name in message, got %q", err)
	}
}

func TestValidator_TaskRequests(t *testing.T) {
	v := NewValidator()
	due := time.Now().Add(time.Hour)
	long := strings.Repeat("d", 1001)
	badStatus := "DONE"

	cases := []struct {
		name    string
		req     any
		wantErr bool
	}{
		{"valid create", &createTaskRequest{Title: "ok", DueDate: &due}, false},
		{"create with status", &createTaskRequest{Title: "ok", DueDate: &due, Status: "COMPLETED"}, false},
		{"create bad status", &createTaskRequest{Title: "ok", DueDate: &due, Status: "DONE"}, true},
		{"empty update", &updateTaskRequest{}, false},
		{"update long description", &updateTaskRequest{Description: &long}, true},
		{"update bad status", &updateTaskRequest{Status: &badStatus}, true},
		{"status required", &updateStatusRequest{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.req)
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr=%v, got %v", tc.wantErr, err)
			}
		})
	}
}
