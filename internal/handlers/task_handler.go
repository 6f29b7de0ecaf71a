package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"taskminder/internal/service"
)

// TaskHandler handles task CRUD HTTP requests
type TaskHandler struct {
	taskService *service.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

type taskRequest struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	StartAt             time.Time `json:"startAt"`
	Deadline            time.Time `json:"deadline"`
	ReminderLeadMinutes int       `json:"reminderLeadMinutes"`
	Priority            string    `json:"priority"`
	Completed           bool      `json:"completed"`
}

func (req *taskRequest) toInput() service.TaskInput {
	return service.TaskInput{
		Title:               req.Title,
		Description:         req.Description,
		StartAt:             req.StartAt,
		Deadline:            req.Deadline,
		ReminderLeadMinutes: req.ReminderLeadMinutes,
		Priority:            req.Priority,
		Completed:           req.Completed,
	}
}

// CreateTask creates a task for the authenticated user
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(user.ID, req.toInput())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Task created",
		"task":    toTaskView(task),
	})
}

// ListTasks returns all tasks owned by the authenticated user
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	tasks, err := h.taskService.GetTasks(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	views := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		views = append(views, toTaskView(&tasks[i]))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": views,
	})
}

// GetTask returns a single task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.taskService.GetTask(user.ID, taskID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"task": toTaskView(task),
	})
}

// UpdateTask replaces a task's fields
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(user.ID, taskID, req.toInput())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task updated",
		"task":    toTaskView(task),
	})
}

// DeleteTask removes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := h.taskService.DeleteTask(user.ID, taskID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task deleted",
	})
}

func parseTaskID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
