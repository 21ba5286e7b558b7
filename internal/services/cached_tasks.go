package services

import (
	"fmt"
	"strings"
	"time"

	"tasktrack/internal/cache"
	"tasktrack/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// CachedTaskService is a read-through cache in front of a TaskService. Cache
// failures degrade to the underlying store and never fail a request.
type CachedTaskService struct {
	taskService TaskService
	cache       cache.Cache
	ttl         time.Duration
}

func NewCachedTaskService(taskService TaskService, cacheInstance cache.Cache, ttl time.Duration) *CachedTaskService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedTaskService{
		taskService: taskService,
		cache:       cacheInstance,
		ttl:         ttl,
	}
}

func taskKey(id uuid.UUID) string {
	return fmt.Sprintf("task:%s", id.String())
}

func userListPattern(userID uuid.UUID) string {
	return fmt.Sprintf("user_tasks:%s:*", userID.String())
}

func listKey(userID uuid.UUID, q ListQuery) string {
	return fmt.Sprintf("user_tasks:%s:%d:%d:%s:%s:%s:%s:%s:%t",
		userID.String(),
		q.Page, q.Limit, q.Search, q.Sort, q.Order,
		strings.Join(q.CategoryIDs, ","),
		strings.Join(q.StatusIDs, ","),
		q.ApplyOptionFilters,
	)
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, userID uuid.UUID, input TaskInput) (models.Task, error) {
	task, err := s.taskService.CreateTask(db, userID, input)
	if err != nil {
		return task, err
	}

	s.cache.Set(taskKey(task.ID), task, s.ttl)
	s.cache.DeletePattern(userListPattern(userID))

	return task, nil
}

func (s *CachedTaskService) ListTasks(db *gorm.DB, userID uuid.UUID, query ListQuery) ([]models.Task, int64, error) {
	key := listKey(userID, query)

	var cached struct {
		Tasks []models.Task `json:"tasks"`
		Total int64         `json:"total"`
	}
	if err := s.cache.Get(key, &cached); err == nil {
		return cached.Tasks, cached.Total, nil
	}

	tasks, total, err := s.taskService.ListTasks(db, userID, query)
	if err != nil {
		return tasks, total, err
	}

	cached.Tasks = tasks
	cached.Total = total
	s.cache.Set(key, cached, s.ttl)

	return tasks, total, nil
}

func (s *CachedTaskService) GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error) {
	key := taskKey(id)

	var cachedTask models.Task
	if err := s.cache.Get(key, &cachedTask); err == nil {
		return cachedTask, nil
	}

	task, err := s.taskService.GetTaskByID(db, id)
	if err != nil {
		return task, err
	}

	s.cache.Set(key, task, s.ttl)

	return task, nil
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, id uuid.UUID, patch TaskPatch) (models.Task, error) {
	before, err := s.taskService.UpdateTask(db, id, patch)
	if err != nil {
		return before, err
	}

	s.cache.Delete(taskKey(id))
	s.cache.DeletePattern(userListPattern(before.UserID))

	return before, nil
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, id uuid.UUID) (models.Task, error) {
	deleted, err := s.taskService.DeleteTask(db, id)
	if err != nil {
		return deleted, err
	}

	s.cache.Delete(taskKey(id))
	s.cache.DeletePattern(userListPattern(deleted.UserID))

	return deleted, nil
}
