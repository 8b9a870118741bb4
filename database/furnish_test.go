package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocmsproject/ocms/model"
)

func furnishRows(applications ...model.FurnishApplication) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"application_id", "notice_no", "owner_driver_indicator", "id_type", "id_no", "name",
		"address_line_1", "address_line_2", "postal_code", "status", "reject_reason",
		"notify_email", "notify_phone", "is_sync", "submitted_at", "processed_at", "processed_by",
	})
	for _, f := range applications {
		var processedAt interface{}
		if !f.ProcessedAt.IsZero() {
			processedAt = f.ProcessedAt
		}
		rows.AddRow(f.ApplicationID, f.NoticeNo, f.Indicator, f.IDType, f.IDNo, f.Name,
			f.AddressLine1, f.AddressLine2, f.PostalCode, f.Status, f.RejectReason,
			f.NotifyEmail, f.NotifyPhone, f.IsSync, f.SubmittedAt, processedAt, f.ProcessedBy)
	}
	return rows
}

func fakeFurnish(status string) model.FurnishApplication {
	return model.FurnishApplication{
		ApplicationID: GenerateUUIDWithSuffix("fur"),
		NoticeNo:      gofakeit.Numerify("##########"),
		Indicator:     model.IndicatorHirer,
		IDType:        model.IDTypeNRIC,
		IDNo:          gofakeit.Numerify("S#######A"),
		Name:          gofakeit.Name(),
		Status:        status,
		IsSync:        model.SyncPending,
		SubmittedAt:   time.Now().Add(-time.Hour),
	}
}

func TestGetSubmittedFurnishApplications(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Intranet: db}

	application := fakeFurnish(model.FurnishSubmitted)
	mock.ExpectQuery("SELECT .+ FROM ocms_furnish_application").
		WithArgs(50).
		WillReturnRows(furnishRows(application))

	applications, err := ds.GetSubmittedFurnishApplications(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, applications, 1)
	assert.Equal(t, application.ApplicationID, applications[0].ApplicationID)
	assert.True(t, applications[0].Open())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFurnishStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Intranet: db}

	mock.ExpectExec("UPDATE ocms_furnish_application").
		WithArgs("fur_1", model.FurnishRejected, "particulars mismatch", "officer1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = ds.UpdateFurnishStatus(context.Background(), "fur_1", model.FurnishRejected, "particulars mismatch", "officer1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUnsyncedInternetFurnish_ReadsInternetStore(t *testing.T) {
	intranet, intranetMock, err := sqlmock.New()
	require.NoError(t, err)
	defer intranet.Close()
	internet, internetMock, err := sqlmock.New()
	require.NoError(t, err)
	defer internet.Close()
	ds := Datasource{Intranet: intranet, Internet: internet}

	application := fakeFurnish(model.FurnishSubmitted)
	internetMock.ExpectQuery("SELECT .+ FROM ocms_furnish_application").
		WithArgs(500).
		WillReturnRows(furnishRows(application))

	applications, err := ds.GetUnsyncedInternetFurnish(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, applications, 1)
	assert.NoError(t, internetMock.ExpectationsWereMet())
	assert.NoError(t, intranetMock.ExpectationsWereMet())
}

func TestUpsertFurnishApplication(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Intranet: db}

	application := fakeFurnish(model.FurnishSubmitted)
	mock.ExpectExec("INSERT INTO ocms_furnish_application").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = ds.UpsertFurnishApplication(context.Background(), &application)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAndListJobExecutions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Intranet: db}

	execution := model.JobExecution{
		RunID:        GenerateUUIDWithSuffix("run"),
		JobName:      "auto-revival",
		StartedAt:    time.Now().Add(-time.Minute),
		CompletedAt:  time.Now(),
		Success:      true,
		Message:      "revived 3 of 3",
		SuccessCount: 3,
	}

	mock.ExpectExec("INSERT INTO ocms_job_execution").
		WithArgs(execution.RunID, execution.JobName, execution.StartedAt, execution.CompletedAt,
			execution.Success, execution.Message, execution.SuccessCount, execution.FailureCount).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, ds.RecordJobExecution(context.Background(), &execution))

	rows := sqlmock.NewRows([]string{
		"run_id", "job_name", "started_at", "completed_at",
		"success", "message", "success_count", "failure_count",
	}).AddRow(execution.RunID, execution.JobName, execution.StartedAt, execution.CompletedAt,
		execution.Success, execution.Message, execution.SuccessCount, execution.FailureCount)

	mock.ExpectQuery("SELECT .+ FROM ocms_job_execution").
		WithArgs("auto-revival", 20).
		WillReturnRows(rows)

	executions, err := ds.GetJobExecutions(context.Background(), "auto-revival", 20)
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, execution.RunID, executions[0].RunID)
	assert.True(t, executions[0].Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}
