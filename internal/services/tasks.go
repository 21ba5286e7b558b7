package services

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"tasktrack/internal/models"
	"tasktrack/internal/options"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidSort     = errors.New("invalid sort field")
)

// TaskInput carries the five client-supplied fields of a new task.
type TaskInput struct {
	Title       string
	Description string
	Category    string
	DueDate     time.Time
	Status      string
}

// TaskPatch is a partial update. Nil fields are left untouched; userId and
// taskId are not patchable at all.
type TaskPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	DueDate     *time.Time `json:"dueDate"`
	Status      *string    `json:"status"`
}

// ListQuery describes one page of a user's task listing.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	Sort   string
	Order  string

	// CategoryIDs/StatusIDs are the resolved option id sets; nil means no
	// restriction. They only reach the query when ApplyOptionFilters is set.
	CategoryIDs        []string
	StatusIDs          []string
	ApplyOptionFilters bool
}

type TaskService interface {
	CreateTask(db *gorm.DB, userID uuid.UUID, input TaskInput) (models.Task, error)
	ListTasks(db *gorm.DB, userID uuid.UUID, query ListQuery) ([]models.Task, int64, error)
	GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error)
	UpdateTask(db *gorm.DB, id uuid.UUID, patch TaskPatch) (models.Task, error)
	DeleteTask(db *gorm.DB, id uuid.UUID) (models.Task, error)
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

// sortColumns whitelists sortable fields. Keys cover both the wire names and
// the column names so either spelling works in the query string.
var sortColumns = map[string]string{
	"taskId":     "task_id",
	"task_id":    "task_id",
	"title":      "title",
	"category":   "category",
	"status":     "status",
	"dueDate":    "due_date",
	"due_date":   "due_date",
	"createdAt":  "created_at",
	"created_at": "created_at",
}

// CreateTask mints the human-readable task identifier from the owner's
// initials and counter, inserts the task, and advances the counter, all in
// one transaction. The counter advance is an atomic in-store increment, so
// concurrent creates by the same user cannot mint duplicate identifiers.
func (s *TaskServiceImpl) CreateTask(db *gorm.DB, userID uuid.UUID, input TaskInput) (models.Task, error) {
	if !options.ValidCategory(input.Category) {
		return models.Task{}, ErrInvalidCategory
	}
	if !options.ValidStatus(input.Status) {
		return models.Task{}, ErrInvalidStatus
	}

	var task models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("last_task_id_nbr", gorm.Expr("last_task_id_nbr + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var owner models.User
		if err := tx.First(&owner, "id = ?", userID).Error; err != nil {
			return err
		}

		// The increment already happened, so the minted sequence number is
		// the counter value the owner held when the request arrived.
		seq := owner.LastTaskIDNbr - 1

		id, err := uuid.NewV4()
		if err != nil {
			return err
		}

		task = models.Task{
			ID:          id,
			TaskID:      owner.Initials() + "-" + strconv.Itoa(seq),
			UserID:      owner.ID,
			Title:       input.Title,
			Description: input.Description,
			Category:    input.Category,
			DueDate:     input.DueDate,
			Status:      input.Status,
		}
		return tx.Create(&task).Error
	})
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// ListTasks returns one page of the user's tasks plus the total match count
// ignoring pagination.
func (s *TaskServiceImpl) ListTasks(db *gorm.DB, userID uuid.UUID, query ListQuery) ([]models.Task, int64, error) {
	column, ok := sortColumns[query.Sort]
	if !ok {
		return nil, 0, ErrInvalidSort
	}
	direction := "ASC"
	if strings.EqualFold(query.Order, "desc") {
		direction = "DESC"
	}

	scope := func() *gorm.DB {
		q := db.Model(&models.Task{}).Where("user_id = ?", userID)
		if query.Search != "" {
			q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(query.Search)+"%")
		}
		if query.ApplyOptionFilters {
			if len(query.CategoryIDs) > 0 {
				q = q.Where("category IN ?", query.CategoryIDs)
			}
			if len(query.StatusIDs) > 0 {
				q = q.Where("status IN ?", query.StatusIDs)
			}
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = 1
	}

	var tasks []models.Task
	err := scope().
		Order(column + " " + direction).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTask applies the non-nil patch fields and returns the record as it
// existed before the patch. Callers wanting the post-update state fetch it
// explicitly.
func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, id uuid.UUID, patch TaskPatch) (models.Task, error) {
	if patch.Category != nil && !options.ValidCategory(*patch.Category) {
		return models.Task{}, ErrInvalidCategory
	}
	if patch.Status != nil && !options.ValidStatus(*patch.Status) {
		return models.Task{}, ErrInvalidStatus
	}

	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.DueDate != nil {
		updates["due_date"] = *patch.DueDate
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}

	var before models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&before, "id = ?", id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return models.Task{}, err
	}
	return before, nil
}

// DeleteTask removes the task and returns its prior contents.
func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, id uuid.UUID) (models.Task, error) {
	var deleted models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, "id = ?", id).Error
	})
	if err != nil {
		return models.Task{}, err
	}
	return deleted, nil
}
