package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskmanager/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository. It operates
// on the transaction of its owning unit of work.
type GORMUserRepository struct {
	tx       *gorm.DB
	affected *int64
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(tx *gorm.DB, affected *int64) *GORMUserRepository {
	return &GORMUserRepository{
		tx:       tx,
		affected: affected,
	}
}

// Create stages a new user in the transaction.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	res := r.tx.Create(user)
	if res.Error != nil {
		return fmt.Errorf("failed to create user: %w", res.Error)
	}
	*r.affected += res.RowsAffected
	return nil
}

// GetByID retrieves a user by their ID.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.tx.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// GetAll retrieves all users.
func (r *GORMUserRepository) GetAll() ([]models.User, error) {
	var users []models.User
	if err := r.tx.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

// GetByEmail retrieves a user by email, compared case-insensitively.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	var user models.User
	if err := r.tx.First(&user, "LOWER(email) = ?", normalized).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with email %s: %w", normalized, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", normalized, err)
	}
	return &user, nil
}
