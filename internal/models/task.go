package models

import "time"

// Task statuses. Stored as plain strings, not a database enum.
const (
	StatusPending    = "Pending"
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"
)

// Task represents a task record.
type Task struct {
	ID              string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title           string     `json:"title" gorm:"type:varchar(200)"`
	Description     string     `json:"description" gorm:"type:varchar(2000)"`
	DueDate         *time.Time `json:"dueDate"`
	Status          string     `json:"status" gorm:"type:varchar(50)"`
	Remarks         string     `json:"remarks" gorm:"type:varchar(1000)"`
	CreatedOn       time.Time  `json:"createdOn"`
	UpdatedOn       time.Time  `json:"updatedOn"`
	CreatedByUserID string     `json:"createdByUserId" gorm:"type:varchar(36);index"`
	UpdatedByUserID string     `json:"updatedByUserId" gorm:"type:varchar(36);index"`
}

// TaskView is the read model of a Task enriched with the current display
// names of its creator and last updater. The names are resolved at read
// time, so renaming a user changes all historical views.
type TaskView struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DueDate         *time.Time `json:"dueDate"`
	Status          string     `json:"status"`
	Remarks         string     `json:"remarks"`
	CreatedOn       time.Time  `json:"createdOn"`
	UpdatedOn       time.Time  `json:"updatedOn"`
	CreatedByUserID string     `json:"createdByUserId"`
	CreatedByName   string     `json:"createdByName"`
	UpdatedByUserID string     `json:"updatedByUserId"`
	UpdatedByName   string     `json:"updatedByName"`
}

// TaskRequest carries the writable task fields. Create and update both
// perform a full replace, so they share one shape.
type TaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"omitempty,max=2000"`
	DueDate     *time.Time `json:"dueDate"`
	Status      string     `json:"status" validate:"required,oneof=Pending InProgress Completed"`
	Remarks     string     `json:"remarks" validate:"omitempty,max=1000"`
}

// TaskSearchResult holds a search hit list and the size of the full match set.
type TaskSearchResult struct {
	Items      []TaskView `json:"items"`
	TotalCount int        `json:"totalCount"`
}
