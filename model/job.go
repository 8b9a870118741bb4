package model

import "time"

// JobExecution is one run of a scheduled job, recorded whether it
// succeeded or not. RunID ties log lines, the lease value and the history
// row together.
type JobExecution struct {
	RunID        string    `json:"run_id"`
	JobName      string    `json:"job_name"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
}
