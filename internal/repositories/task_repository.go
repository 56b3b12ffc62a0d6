package repositories

import "taskmanager/internal/models"

// TaskRepository defines the interface for task data access.
type TaskRepository interface {
	Create(task *models.Task) error
	GetByID(id string) (*models.Task, error)
	GetAll() ([]models.Task, error)
	Update(task *models.Task) error
	Delete(id string) error
	// Search matches the query as a case-insensitive substring of title,
	// description, remarks or status. Results are ordered by creation time
	// descending; the returned count covers the full match set.
	Search(query string) ([]models.Task, int64, error)
}
