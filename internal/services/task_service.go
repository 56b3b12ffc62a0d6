package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"taskmanager/internal/models"
	"taskmanager/internal/repositories"
	"taskmanager/pkg/rabbitmq"
)

// TaskService handles business logic related to tasks. All mutations require
// the id of the authenticated acting user.
type TaskService struct {
	uow      repositories.UnitOfWorkFactory
	mqClient *rabbitmq.Client
}

// NewTaskService creates a new TaskService. mqClient may be nil, in which
// case no task events are published.
func NewTaskService(uow repositories.UnitOfWorkFactory, mqClient *rabbitmq.Client) *TaskService {
	return &TaskService{
		uow:      uow,
		mqClient: mqClient,
	}
}

// CreateTask creates a task stamped with the acting user as both creator and
// updater, commits it, then re-reads the user records to build the view.
func (s *TaskService) CreateTask(ctx context.Context, userID string, req *models.TaskRequest) (*models.TaskView, error) {
	now := time.Now().UTC()
	task := &models.Task{
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		DueDate:         normalizeDueDate(req.DueDate),
		Status:          strings.TrimSpace(req.Status),
		Remarks:         strings.TrimSpace(req.Remarks),
		CreatedOn:       now,
		UpdatedOn:       now,
		CreatedByUserID: userID,
		UpdatedByUserID: userID,
	}

	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.Tasks().Create(task); err != nil {
		return nil, err
	}
	if _, err := uow.Commit(); err != nil {
		return nil, err
	}

	log.Printf("Task %s created by %s", task.ID, userID)
	s.publishEvent("created", task.ID, userID)

	return s.loadView(ctx, task)
}

// GetTaskByID returns the view of a single task, or ErrTaskNotFound.
func (s *TaskService) GetTaskByID(ctx context.Context, id string) (*models.TaskView, error) {
	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	task, err := uow.Tasks().GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return s.resolveView(uow, task)
}

// GetAllTasks returns the views of every task, joined in memory against the
// full user set to resolve creator and updater names.
func (s *TaskService) GetAllTasks(ctx context.Context) ([]models.TaskView, error) {
	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	tasks, err := uow.Tasks().GetAll()
	if err != nil {
		return nil, err
	}
	users, err := uow.Users().GetAll()
	if err != nil {
		return nil, err
	}

	return enrichTasks(tasks, users)
}

// UpdateTask replaces the writable fields of a task and re-stamps the acting
// user and update time. Creator and creation time are never touched.
func (s *TaskService) UpdateTask(ctx context.Context, id, userID string, req *models.TaskRequest) (*models.TaskView, error) {
	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	task, err := uow.Tasks().GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	task.Title = strings.TrimSpace(req.Title)
	task.Description = strings.TrimSpace(req.Description)
	task.DueDate = normalizeDueDate(req.DueDate)
	task.Status = strings.TrimSpace(req.Status)
	task.Remarks = strings.TrimSpace(req.Remarks)
	task.UpdatedOn = time.Now().UTC()
	task.UpdatedByUserID = userID

	if err := uow.Tasks().Update(task); err != nil {
		return nil, err
	}
	if _, err := uow.Commit(); err != nil {
		return nil, err
	}

	log.Printf("Task %s updated by %s", task.ID, userID)
	s.publishEvent("updated", task.ID, userID)

	return s.loadView(ctx, task)
}

// DeleteTask removes a task. Deleting an id that does not exist returns
// false without error, so repeated deletes are safe.
func (s *TaskService) DeleteTask(ctx context.Context, id, userID string) (bool, error) {
	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer uow.Rollback()

	if err := uow.Tasks().Delete(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if _, err := uow.Commit(); err != nil {
		return false, err
	}

	log.Printf("Task %s deleted", id)
	s.publishEvent("deleted", id, userID)
	return true, nil
}

// SearchTasks returns the tasks matching the query as a case-insensitive
// substring of title, description, remarks or status, most recent first. An
// empty query behaves exactly like GetAllTasks.
func (s *TaskService) SearchTasks(ctx context.Context, query string) (*models.TaskSearchResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		views, err := s.GetAllTasks(ctx)
		if err != nil {
			return nil, err
		}
		return &models.TaskSearchResult{Items: views, TotalCount: len(views)}, nil
	}

	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	tasks, total, err := uow.Tasks().Search(trimmed)
	if err != nil {
		return nil, err
	}
	users, err := uow.Users().GetAll()
	if err != nil {
		return nil, err
	}

	views, err := enrichTasks(tasks, users)
	if err != nil {
		return nil, err
	}
	return &models.TaskSearchResult{Items: views, TotalCount: int(total)}, nil
}

// loadView re-reads the creator and updater of a task in a fresh unit of
// work and maps the task to its view.
func (s *TaskService) loadView(ctx context.Context, task *models.Task) (*models.TaskView, error) {
	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	return s.resolveView(uow, task)
}

func (s *TaskService) resolveView(uow repositories.UnitOfWork, task *models.Task) (*models.TaskView, error) {
	createdBy, err := lookupUser(uow, task.CreatedByUserID)
	if err != nil {
		return nil, err
	}
	updatedBy, err := lookupUser(uow, task.UpdatedByUserID)
	if err != nil {
		return nil, err
	}
	view := mapToView(task, createdBy, updatedBy)
	return &view, nil
}

func lookupUser(uow repositories.UnitOfWork, id string) (*models.User, error) {
	user, err := uow.Users().GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrBrokenUserReference, id)
		}
		return nil, err
	}
	return user, nil
}

// enrichTasks joins tasks against a user set loaded once, resolving both
// actor names per task. A missing user is referential corruption.
func enrichTasks(tasks []models.Task, users []models.User) ([]models.TaskView, error) {
	lookup := make(map[string]models.User, len(users))
	for _, u := range users {
		lookup[u.ID] = u
	}

	views := make([]models.TaskView, 0, len(tasks))
	for i := range tasks {
		createdBy, ok := lookup[tasks[i].CreatedByUserID]
		if !ok {
			return nil, fmt.Errorf("%w: user %s", ErrBrokenUserReference, tasks[i].CreatedByUserID)
		}
		updatedBy, ok := lookup[tasks[i].UpdatedByUserID]
		if !ok {
			return nil, fmt.Errorf("%w: user %s", ErrBrokenUserReference, tasks[i].UpdatedByUserID)
		}
		views = append(views, mapToView(&tasks[i], &createdBy, &updatedBy))
	}
	return views, nil
}

func mapToView(task *models.Task, createdBy, updatedBy *models.User) models.TaskView {
	return models.TaskView{
		ID:              task.ID,
		Title:           task.Title,
		Description:     task.Description,
		DueDate:         task.DueDate,
		Status:          task.Status,
		Remarks:         task.Remarks,
		CreatedOn:       task.CreatedOn,
		UpdatedOn:       task.UpdatedOn,
		CreatedByUserID: task.CreatedByUserID,
		CreatedByName:   createdBy.Name,
		UpdatedByUserID: task.UpdatedByUserID,
		UpdatedByName:   updatedBy.Name,
	}
}

func normalizeDueDate(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	utc := due.UTC()
	return &utc
}

func (s *TaskService) publishEvent(action, taskID, userID string) {
	if s.mqClient == nil {
		return
	}
	event := rabbitmq.TaskEvent{
		Action: action,
		TaskID: taskID,
		UserID: userID,
	}
	if err := s.mqClient.PublishTaskEvent(event); err != nil {
		log.Printf("Warning: Failed to publish task %s event for task %s: %v", action, taskID, err)
	}
}
