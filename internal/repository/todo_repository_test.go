package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"workspace/internal/model"
	"workspace/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	return gormDB, mock
}

var todoColumns = []string{
	"id", "content", "status", "priority", "due_date", "topic_id",
	"topic_uuid", "owner_id", "parent_id", "created_at", "updated_at",
}

func todoRow(rows *sqlmock.Rows, id, topicID uuid.UUID, parentID interface{}) *sqlmock.Rows {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return rows.AddRow(id.String(), "write tests", "PENDING", "P1", nil, topicID.String(),
		"0123456789abcdef0123456789abcdef", "user-1", parentID, now, now)
}

func TestTodoRepository_GetOwned_Found(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTodoRepository(gormDB)

	id, topicID, parentID := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "todos" WHERE id = .* AND owner_id = .*`).
		WillReturnRows(todoRow(sqlmock.NewRows(todoColumns), id, topicID, parentID.String()))

	// Act
	todo, err := repo.GetOwned(context.Background(), "user-1", id)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, id, todo.ID)
	assert.Equal(t, model.StatusPending, todo.Status)
	assert.Equal(t, model.PriorityP1, todo.Priority)
	assert.Nil(t, todo.DueDate)
	require.NotNil(t, todo.ParentID)
	assert.Equal(t, parentID, *todo.ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoRepository_GetOwned_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTodoRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "todos" WHERE id = .* AND owner_id = .*`).
		WillReturnRows(sqlmock.NewRows(todoColumns))

	todo, err := repo.GetOwned(context.Background(), "someone-else", uuid.New())

	assert.ErrorIs(t, err, repository.ErrTodoNotFound)
	assert.Nil(t, todo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoRepository_ChildIDs(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTodoRepository(gormDB)

	child1, child2 := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT "id" FROM "todos" WHERE owner_id = .* AND parent_id IN`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(child1.String()).AddRow(child2.String()))

	ids, err := repo.ChildIDs(context.Background(), "user-1", []uuid.UUID{uuid.New()})

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{child1, child2}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoRepository_ChildIDs_NoParents(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTodoRepository(gormDB)

	ids, err := repo.ChildIDs(context.Background(), "user-1", nil)

	assert.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoRepository_UpdateFields_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTodoRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "todos" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateFields(context.Background(), "user-1", uuid.New(), map[string]interface{}{"content": "x"})

	assert.ErrorIs(t, err, repository.ErrTodoNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoRepository_DeleteOwned(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTodoRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "todos" WHERE owner_id = .* AND id IN`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := repo.DeleteOwned(context.Background(), "user-1", []uuid.UUID{uuid.New(), uuid.New(), uuid.New()})

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoRepository_Transaction_RollsBackOnError(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTodoRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "todos" WHERE .* FOR UPDATE`).
		WillReturnRows(todoRow(sqlmock.NewRows(todoColumns), id, uuid.New(), nil))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := repo.Transaction(context.Background(), func(tx repository.TodoStore) error {
		todo, err := tx.GetOwnedForUpdate(context.Background(), "user-1", id)
		require.NoError(t, err)
		assert.True(t, todo.IsRoot())
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoRepository_Transaction_Commits(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTodoRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "todos" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	parent := uuid.New()
	err := repo.Transaction(context.Background(), func(tx repository.TodoStore) error {
		return tx.SetParent(context.Background(), "user-1", uuid.New(), &parent)
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
