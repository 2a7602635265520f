package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type createTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=200"`
	Description string     `json:"description" validate:"max=1000"`
	DueDate     *time.Time `json:"dueDate"     validate:"required"`
	Status      string     `json:"status"      validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED"`
}

// updateTaskRequest is a partial update: absent fields stay unchanged.
// id, ownerId and createdAt are not part of the contract and are ignored.
type updateTaskRequest struct {
	Title       *string    `json:"title"       validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	DueDate     *time.Time `json:"dueDate"`
	Status      *string    `json:"status"      validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING IN_PROGRESS COMPLETED"`
}

// taskResponse is the TaskView wire format. Owner fields are display only.
type taskResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	DueDate       time.Time `json:"dueDate"`
	CreatedAt     time.Time `json:"createdAt"`
	OwnerUsername string    `json:"ownerUsername"`
	OwnerID       string    `json:"ownerId"`
}

type countResponse struct {
	Count int64 `json:"count"`
}
