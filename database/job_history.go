package database

import (
	"context"
	"database/sql"

	"github.com/ocmsproject/ocms/internal/apierror"
	"github.com/ocmsproject/ocms/model"
)

// RecordJobExecution writes one run's outcome to the execution history.
func (d Datasource) RecordJobExecution(ctx context.Context, execution *model.JobExecution) error {
	_, err := d.Intranet.ExecContext(ctx, `
		INSERT INTO ocms_job_execution (
			run_id, job_name, started_at, completed_at,
			success, message, success_count, failure_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, execution.RunID, execution.JobName, execution.StartedAt, execution.CompletedAt,
		execution.Success, execution.Message, execution.SuccessCount, execution.FailureCount)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record job execution", err)
	}
	return nil
}

// GetJobExecutions lists the most recent runs of a job, newest first.
func (d Datasource) GetJobExecutions(ctx context.Context, jobName string, limit int) ([]model.JobExecution, error) {
	rows, err := d.Intranet.QueryContext(ctx, `
		SELECT run_id, job_name, started_at, completed_at,
			success, message, success_count, failure_count
		FROM ocms_job_execution
		WHERE job_name = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, jobName, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve job executions", err)
	}
	defer rows.Close()

	executions := []model.JobExecution{}
	for rows.Next() {
		execution := model.JobExecution{}
		var message sql.NullString
		err = rows.Scan(&execution.RunID, &execution.JobName, &execution.StartedAt,
			&execution.CompletedAt, &execution.Success, &message,
			&execution.SuccessCount, &execution.FailureCount)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan job execution data", err)
		}
		execution.Message = message.String
		executions = append(executions, execution)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over job executions", err)
	}
	return executions, nil
}
