package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrastat/lisa-cli/internal/model"
)

func TestPublisherEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS lisa").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	pub := NewPublisher(mock)
	assert.NoError(t, pub.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisherPublish(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"lisa", "unit_stats"}, unitStatsColumns).WillReturnResult(2)

	run := sampleRun("rate")
	run.ID = "run-1"

	n, err := NewPublisher(mock).Publish(context.Background(), run)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisherPublishEmptyRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := NewPublisher(mock).Publish(context.Background(), &model.AnalysisRun{ID: "run-1"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisherPublishError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"lisa", "unit_stats"}, unitStatsColumns).
		WillReturnError(fmt.Errorf("permission denied"))

	run := sampleRun("rate")
	run.ID = "run-1"

	_, err = NewPublisher(mock).Publish(context.Background(), run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY unit stats for run run-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}
