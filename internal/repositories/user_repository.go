package repositories

import "taskmanager/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetAll() ([]models.User, error)
	// GetByEmail looks a user up by email, compared case-insensitively.
	GetByEmail(email string) (*models.User, error)
}
