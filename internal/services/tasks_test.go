package services_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"tasktrack/internal/models"
	"tasktrack/internal/services"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}, &models.Token{}))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name string, counter int) models.User {
	t.Helper()

	user := models.User{
		ID:            uuid.Must(uuid.NewV4()),
		Username:      fmt.Sprintf("user-%s", uuid.Must(uuid.NewV4()).String()[:8]),
		Email:         fmt.Sprintf("%s@example.com", uuid.Must(uuid.NewV4()).String()[:8]),
		Password:      "hashed",
		Name:          name,
		LastTaskIDNbr: counter,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func validInput() services.TaskInput {
	return services.TaskInput{
		Title:       "Buy milk",
		Description: "2%",
		Category:    "shopping",
		DueDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:      "todo",
	}
}

func TestCreateTask_MintsIdentifierAndAdvancesCounter(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 3)

	task, err := svc.CreateTask(db, user.ID, validInput())
	require.NoError(t, err)

	assert.Equal(t, "JD-3", task.TaskID)
	assert.Equal(t, user.ID, task.UserID)
	assert.Equal(t, "Buy milk", task.Title)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, 4, reloaded.LastTaskIDNbr)
}

func TestCreateTask_SequentialIdentifiers(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 0)

	for i := 0; i < 3; i++ {
		task, err := svc.CreateTask(db, user.ID, validInput())
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("JD-%d", i), task.TaskID)
	}
}

func TestCreateTask_UnknownUser(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()

	_, err := svc.CreateTask(db, uuid.Must(uuid.NewV4()), validInput())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateTask_InvalidEnums(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 0)

	input := validInput()
	input.Category = "garden"
	_, err := svc.CreateTask(db, user.ID, input)
	assert.ErrorIs(t, err, services.ErrInvalidCategory)

	input = validInput()
	input.Status = "done"
	_, err = svc.CreateTask(db, user.ID, input)
	assert.ErrorIs(t, err, services.ErrInvalidStatus)

	// Rejected creates must not touch the counter.
	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, 0, reloaded.LastTaskIDNbr)
}

func seedTasks(t *testing.T, db *gorm.DB, svc services.TaskService, userID uuid.UUID, inputs []services.TaskInput) {
	t.Helper()
	for _, input := range inputs {
		_, err := svc.CreateTask(db, userID, input)
		require.NoError(t, err)
	}
}

func defaultListQuery() services.ListQuery {
	return services.ListQuery{Page: 1, Limit: 5, Sort: "taskId", Order: "asc"}
}

func TestListTasks_ScopedToUser(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	jane := createTestUser(t, db, "Jane Doe", 0)
	john := createTestUser(t, db, "John Smith", 0)

	seedTasks(t, db, svc, jane.ID, []services.TaskInput{validInput(), validInput()})
	seedTasks(t, db, svc, john.ID, []services.TaskInput{validInput()})

	tasks, total, err := svc.ListTasks(db, jane.ID, defaultListQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, jane.ID, task.UserID)
	}
}

func TestListTasks_Pagination(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 0)

	var inputs []services.TaskInput
	for i := 0; i < 7; i++ {
		input := validInput()
		input.Title = fmt.Sprintf("Task %02d", i)
		inputs = append(inputs, input)
	}
	seedTasks(t, db, svc, user.ID, inputs)

	query := services.ListQuery{Page: 2, Limit: 3, Sort: "title", Order: "asc"}
	tasks, total, err := svc.ListTasks(db, user.ID, query)
	require.NoError(t, err)

	assert.Equal(t, int64(7), total)
	require.Len(t, tasks, 3)
	assert.Equal(t, "Task 03", tasks[0].Title)
	assert.Equal(t, "Task 05", tasks[2].Title)

	// The last page holds the remainder.
	query.Page = 3
	tasks, _, err = svc.ListTasks(db, user.ID, query)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestListTasks_SearchCaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 0)

	titles := []string{"Buy MILK", "Walk the dog", "milk the cows"}
	var inputs []services.TaskInput
	for _, title := range titles {
		input := validInput()
		input.Title = title
		inputs = append(inputs, input)
	}
	seedTasks(t, db, svc, user.ID, inputs)

	query := defaultListQuery()
	query.Search = "Milk"
	tasks, total, err := svc.ListTasks(db, user.ID, query)
	require.NoError(t, err)

	assert.Equal(t, int64(2), total)
	assert.Len(t, tasks, 2)

	// Empty search matches everything.
	query.Search = ""
	_, total, err = svc.ListTasks(db, user.ID, query)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestListTasks_SortDirection(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 0)

	for _, title := range []string{"Alpha", "Charlie", "Bravo"} {
		input := validInput()
		input.Title = title
		_, err := svc.CreateTask(db, user.ID, input)
		require.NoError(t, err)
	}

	query := services.ListQuery{Page: 1, Limit: 5, Sort: "title", Order: "desc"}
	tasks, _, err := svc.ListTasks(db, user.ID, query)
	require.NoError(t, err)

	require.Len(t, tasks, 3)
	assert.Equal(t, "Charlie", tasks[0].Title)
	assert.Equal(t, "Alpha", tasks[2].Title)
}

func TestListTasks_InvalidSort(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 0)

	query := defaultListQuery()
	query.Sort = "password; DROP TABLE tasks"
	_, _, err := svc.ListTasks(db, user.ID, query)
	assert.ErrorIs(t, err, services.ErrInvalidSort)
}

func TestListTasks_OptionFilters(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 0)

	categories := []string{"work", "home", "work"}
	var inputs []services.TaskInput
	for _, category := range categories {
		input := validInput()
		input.Category = category
		inputs = append(inputs, input)
	}
	seedTasks(t, db, svc, user.ID, inputs)

	query := defaultListQuery()
	query.CategoryIDs = []string{"work"}

	// Filters stay inert until explicitly applied.
	_, total, err := svc.ListTasks(db, user.ID, query)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	query.ApplyOptionFilters = true
	tasks, total, err := svc.ListTasks(db, user.ID, query)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, task := range tasks {
		assert.Equal(t, "work", task.Category)
	}
}

func TestGetTaskByID(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 0)

	created, err := svc.CreateTask(db, user.ID, validInput())
	require.NoError(t, err)

	got, err := svc.GetTaskByID(db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.TaskID, got.TaskID)
	assert.Equal(t, created.Title, got.Title)

	_, err = svc.GetTaskByID(db, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func strPtr(s string) *string { return &s }

func TestUpdateTask_ReturnsPreUpdateState(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 0)

	created, err := svc.CreateTask(db, user.ID, validInput())
	require.NoError(t, err)

	patch := services.TaskPatch{Title: strPtr("Buy oat milk"), Status: strPtr("completed")}
	before, err := svc.UpdateTask(db, created.ID, patch)
	require.NoError(t, err)

	assert.Equal(t, "Buy milk", before.Title)
	assert.Equal(t, "todo", before.Status)

	after, err := svc.GetTaskByID(db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", after.Title)
	assert.Equal(t, "completed", after.Status)

	// Untouched fields survive a partial patch.
	assert.Equal(t, "2%", after.Description)
	assert.Equal(t, created.TaskID, after.TaskID)
	assert.Equal(t, user.ID, after.UserID)
}

func TestUpdateTask_EmptyPatch(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 0)

	created, err := svc.CreateTask(db, user.ID, validInput())
	require.NoError(t, err)

	before, err := svc.UpdateTask(db, created.ID, services.TaskPatch{})
	require.NoError(t, err)
	assert.Equal(t, created.Title, before.Title)
}

func TestUpdateTask_InvalidEnumAndMissing(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 0)

	created, err := svc.CreateTask(db, user.ID, validInput())
	require.NoError(t, err)

	_, err = svc.UpdateTask(db, created.ID, services.TaskPatch{Status: strPtr("done")})
	assert.ErrorIs(t, err, services.ErrInvalidStatus)

	_, err = svc.UpdateTask(db, uuid.Must(uuid.NewV4()), services.TaskPatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteTask_ReturnsPriorContentsAndIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 0)

	created, err := svc.CreateTask(db, user.ID, validInput())
	require.NoError(t, err)

	deleted, err := svc.DeleteTask(db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.TaskID, deleted.TaskID)
	assert.Equal(t, created.Title, deleted.Title)

	_, err = svc.GetTaskByID(db, created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// A second delete reports not found rather than failing differently.
	_, err = svc.DeleteTask(db, created.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestCreateThenGet_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewTaskService()
	user := createTestUser(t, db, "Jane Doe", 3)

	input := validInput()
	created, err := svc.CreateTask(db, user.ID, input)
	require.NoError(t, err)

	got, err := svc.GetTaskByID(db, created.ID)
	require.NoError(t, err)

	assert.Equal(t, input.Title, got.Title)
	assert.Equal(t, input.Description, got.Description)
	assert.Equal(t, input.Category, got.Category)
	assert.Equal(t, input.Status, got.Status)
	assert.Equal(t, "JD-3", got.TaskID)
}
