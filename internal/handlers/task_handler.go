package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"taskmanager/internal/models"
	"taskmanager/internal/services"
)

// TaskHandler handles HTTP requests for tasks.
type TaskHandler struct {
	taskService *services.TaskService
	validate    *validator.Validate
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the task routes with the Fiber app. The routes
// are expected to sit behind the auth middleware.
func (h *TaskHandler) RegisterRoutes(router fiber.Router) {
	taskRoutes := router.Group("/tasks")
	taskRoutes.Post("/", h.HandleCreate)
	taskRoutes.Get("/", h.HandleGetAll)
	taskRoutes.Get("/search", h.HandleSearch) // before /:id so "search" is not taken as an id
	taskRoutes.Get("/:id", h.HandleGetByID)
	taskRoutes.Put("/:id", h.HandleUpdate)
	taskRoutes.Delete("/:id", h.HandleDelete)
}

// currentUserID returns the authenticated caller's id set by the auth
// middleware.
func currentUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}

// HandleCreate creates a new task owned by the authenticated user.
func (h *TaskHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.TaskRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create task request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	view, err := h.taskService.CreateTask(c.UserContext(), currentUserID(c), &req)
	if err != nil {
		log.Printf("Error creating task: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create task",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

// HandleGetAll retrieves all tasks.
func (h *TaskHandler) HandleGetAll(c *fiber.Ctx) error {
	views, err := h.taskService.GetAllTasks(c.UserContext())
	if err != nil {
		log.Printf("Error getting all tasks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve tasks",
		})
	}
	return c.JSON(views)
}

// HandleGetByID retrieves a single task by its ID.
func (h *TaskHandler) HandleGetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	view, err := h.taskService.GetTaskByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Task not found",
			})
		}
		log.Printf("Error getting task %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve task",
		})
	}
	return c.JSON(view)
}

// HandleUpdate replaces the writable fields of an existing task.
func (h *TaskHandler) HandleUpdate(c *fiber.Ctx) error {
	id := c.Params("id")

	var req models.TaskRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update task request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	view, err := h.taskService.UpdateTask(c.UserContext(), id, currentUserID(c), &req)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Task not found",
			})
		}
		log.Printf("Error updating task %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update task",
		})
	}
	return c.JSON(view)
}

// HandleDelete deletes a task by its ID.
func (h *TaskHandler) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	deleted, err := h.taskService.DeleteTask(c.UserContext(), id, currentUserID(c))
	if err != nil {
		log.Printf("Error deleting task %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete task",
		})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Task not found",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSearch searches tasks by a free-text query.
func (h *TaskHandler) HandleSearch(c *fiber.Ctx) error {
	result, err := h.taskService.SearchTasks(c.UserContext(), c.Query("q"))
	if err != nil {
		log.Printf("Error searching tasks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not search tasks",
		})
	}
	return c.JSON(result)
}
