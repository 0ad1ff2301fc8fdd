package repository_test

import (
	"context"
	"testing"
	"time"

	"workspace/internal/model"
	"workspace/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicRepository_Create(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTopicRepository(gormDB)

	topicID := uuid.New()
	topic := &model.Topic{
		Name:    "Work",
		OwnerID: "user-1",
		UUID:    model.NewTopicUUID(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "topics"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(topicID.String()))
	mock.ExpectCommit()

	// Act
	err := repo.Create(context.Background(), topic)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, topicID, topic.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopicRepository_GetByUUID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTopicRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "topics" WHERE uuid = .* AND owner_id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_id", "uuid", "created_at", "updated_at"}))

	topic, err := repo.GetByUUID(context.Background(), "user-1", "missing")

	assert.ErrorIs(t, err, repository.ErrTopicNotFound)
	assert.Nil(t, topic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopicRepository_Rename(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTopicRepository(gormDB)

	topicID := uuid.New()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "topics" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "topics" WHERE uuid = .* AND owner_id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_id", "uuid", "created_at", "updated_at"}).
			AddRow(topicID.String(), "Home", "user-1", "abc", now, now))

	topic, err := repo.Rename(context.Background(), "user-1", "abc", "Home")

	require.NoError(t, err)
	assert.Equal(t, "Home", topic.Name)
	assert.Equal(t, topicID, topic.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopicRepository_Rename_NotOwned(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTopicRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "topics" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	topic, err := repo.Rename(context.Background(), "intruder", "abc", "Mine now")

	assert.ErrorIs(t, err, repository.ErrTopicNotFound)
	assert.Nil(t, topic)
	assert.NoError(t, mock.ExpectationsWereMet())
}
