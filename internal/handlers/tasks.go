package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"tasktrack/internal/config"
	"tasktrack/internal/models"
	"tasktrack/internal/options"
	"tasktrack/internal/services"
	"tasktrack/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
	cfg         config.TasksConfig
	// storeTimeout bounds every store round-trip issued on behalf of one
	// request.
	storeTimeout time.Duration
	// jobs is optional; when present, task creation schedules a due-date
	// reminder.
	jobs *worker.JobQueue
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService, cfg config.TasksConfig, storeTimeout time.Duration, jobs *worker.JobQueue) *TaskHandler {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &TaskHandler{
		db:           db,
		taskService:  taskService,
		cfg:          cfg,
		storeTimeout: storeTimeout,
		jobs:         jobs,
	}
}

// store returns a session bounded by the configured store timeout. The
// returned cancel must run once the handler is done with the session.
func (h *TaskHandler) store(c *gin.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.storeTimeout)
	return h.db.WithContext(ctx), cancel
}

func currentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get("current_user")
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// GetTasks lists the acting user's tasks: filtered by a case-insensitive
// title search, sorted, paginated, and accompanied by the total match count
// and the fixed option tables so clients can render filter UI in one call.
func (h *TaskHandler) GetTasks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.cfg.DefaultPageSize)))
	if err != nil || limit < 1 {
		limit = h.cfg.DefaultPageSize
	}

	categoryIDs, err := options.ResolveCategories(c.DefaultQuery("category_ids", options.All))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	statusIDs, err := options.ResolveStatuses(c.DefaultQuery("status_ids", options.All))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := services.ListQuery{
		Page:               page,
		Limit:              limit,
		Search:             c.Query("search"),
		Sort:               c.DefaultQuery("sort", "taskId"),
		Order:              c.DefaultQuery("sortBy", "asc"),
		CategoryIDs:        categoryIDs,
		StatusIDs:          statusIDs,
		ApplyOptionFilters: h.cfg.OptionFiltersEnabled,
	}

	db, cancel := h.store(c)
	defer cancel()

	tasks, total, err := h.taskService.ListTasks(db, user.ID, query)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSort) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	c.JSON(http.StatusOK, gin.H{
		"error":      nil,
		"total":      total,
		"page":       page,
		"limit":      limit,
		"tasks":      tasks,
		"categories": options.Categories(),
		"statuses":   options.Statuses(),
	})
}

// GetTask fetches one task by store primary key. A malformed id is a 404
// before the store is ever consulted.
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such task found"})
		return
	}

	db, cancel := h.store(c)
	defer cancel()

	task, err := h.taskService.GetTaskByID(db, id)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	DueDate     string `json:"dueDate"`
	Status      string `json:"status"`
}

// CreateTask validates the five required fields, reporting every missing one
// at once, then delegates to the service to mint the task identifier and
// advance the owner's counter.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var emptyFields []string
	if req.Title == "" {
		emptyFields = append(emptyFields, "title")
	}
	if req.Description == "" {
		emptyFields = append(emptyFields, "description")
	}
	if req.Category == "" {
		emptyFields = append(emptyFields, "category")
	}
	if req.DueDate == "" {
		emptyFields = append(emptyFields, "dueDate")
	}
	if req.Status == "" {
		emptyFields = append(emptyFields, "status")
	}
	if len(emptyFields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":       "please fill in all fields",
			"emptyFields": emptyFields,
		})
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dueDate: " + err.Error()})
		return
	}

	input := services.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		DueDate:     dueDate,
		Status:      req.Status,
	}

	db, cancel := h.store(c)
	defer cancel()

	task, err := h.taskService.CreateTask(db, user.ID, input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.jobs != nil {
		err := h.jobs.EnqueueAt("reminders", worker.JobTypeTaskReminder, map[string]interface{}{
			"task_id": task.ID.String(),
			"user_id": task.UserID.String(),
			"title":   task.Title,
		}, task.DueDate)
		if err != nil {
			log.Printf("failed to schedule reminder for task %s: %v", task.TaskID, err)
		}
	}

	c.JSON(http.StatusOK, task)
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	DueDate     *string `json:"dueDate"`
	Status      *string `json:"status"`
}

// patch converts the wire request into a service patch, accepting the same
// due-date formats Create does.
func (r updateTaskRequest) patch() (services.TaskPatch, error) {
	p := services.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Status:      r.Status,
	}
	if r.DueDate != nil {
		due, err := parseDueDate(*r.DueDate)
		if err != nil {
			return p, err
		}
		p.DueDate = &due
	}
	return p, nil
}

// UpdateTask applies a partial patch and answers with the record as it stood
// before the patch. userId and taskId are immutable; the patch type simply
// has no slot for them, so they are ignored if present in the body.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such task found"})
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch, err := req.patch()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dueDate: " + err.Error()})
		return
	}

	db, cancel := h.store(c)
	defer cancel()

	before, err := h.taskService.UpdateTask(db, id, patch)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, before)
}

// DeleteTask removes a task and returns its prior contents. Deleting an
// already-deleted task is a plain 404, which keeps the operation idempotent
// from the client's point of view.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such task found"})
		return
	}

	db, cancel := h.store(c)
	defer cancel()

	deleted, err := h.taskService.DeleteTask(db, id)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

func handleTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no such task found"})
	case errors.Is(err, services.ErrInvalidCategory), errors.Is(err, services.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// parseDueDate accepts full RFC 3339 timestamps or bare dates.
func parseDueDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
