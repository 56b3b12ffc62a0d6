package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskmanager/internal/models"
)

// GORMTaskRepository is a GORM implementation of TaskRepository. It operates
// on the transaction of its owning unit of work.
type GORMTaskRepository struct {
	tx       *gorm.DB
	affected *int64
}

// NewGORMTaskRepository creates a new instance of GORMTaskRepository.
func NewGORMTaskRepository(tx *gorm.DB, affected *int64) *GORMTaskRepository {
	return &GORMTaskRepository{
		tx:       tx,
		affected: affected,
	}
}

// Create stages a new task in the transaction.
func (r *GORMTaskRepository) Create(task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	res := r.tx.Create(task)
	if res.Error != nil {
		return fmt.Errorf("failed to create task: %w", res.Error)
	}
	*r.affected += res.RowsAffected
	return nil
}

// GetByID retrieves a task by its ID.
func (r *GORMTaskRepository) GetByID(id string) (*models.Task, error) {
	var task models.Task
	if err := r.tx.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get task by ID %s: %w", id, err)
	}
	return &task, nil
}

// GetAll retrieves all tasks.
func (r *GORMTaskRepository) GetAll() ([]models.Task, error) {
	var tasks []models.Task
	if err := r.tx.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to get all tasks: %w", err)
	}
	return tasks, nil
}

// Update stages a full save of the task in the transaction.
func (r *GORMTaskRepository) Update(task *models.Task) error {
	res := r.tx.Save(task) // Save updates all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Save does not return ErrRecordNotFound for a missing row,
		// so check RowsAffected.
		return fmt.Errorf("task with ID %s: %w", task.ID, ErrNotFound)
	}
	*r.affected += res.RowsAffected
	return nil
}

// Delete stages removal of a task by its ID.
func (r *GORMTaskRepository) Delete(id string) error {
	res := r.tx.Delete(&models.Task{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task with ID %s: %w", id, ErrNotFound)
	}
	*r.affected += res.RowsAffected
	return nil
}

// Search matches query as a case-insensitive substring of title, description,
// remarks or status, ordered by creation time descending.
func (r *GORMTaskRepository) Search(query string) ([]models.Task, int64, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	cond := "LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(remarks) LIKE ? OR LOWER(status) LIKE ?"

	var total int64
	if err := r.tx.Model(&models.Task{}).
		Where(cond, pattern, pattern, pattern, pattern).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count search matches: %w", err)
	}

	var tasks []models.Task
	if err := r.tx.
		Where(cond, pattern, pattern, pattern, pattern).
		Order("created_on DESC").
		Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search tasks: %w", err)
	}
	return tasks, total, nil
}
