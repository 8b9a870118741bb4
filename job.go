/*
Copyright 2025 OCMS Project Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ocms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ocmsproject/ocms/config"
	"github.com/ocmsproject/ocms/database"
	"github.com/ocmsproject/ocms/internal/apierror"
	redlock "github.com/ocmsproject/ocms/internal/lock"
	"github.com/ocmsproject/ocms/internal/notification"
	"github.com/ocmsproject/ocms/model"
)

// JobResult is the outcome of one run. A batch run is successful when at
// least one record went through or there was nothing to process; Skipped
// marks runs that never started because another node held the lease.
type JobResult struct {
	Success      bool   `json:"success"`
	Skipped      bool   `json:"skipped,omitempty"`
	Message      string `json:"message"`
	SuccessCount int    `json:"success_count"`
	FailureCount int    `json:"failure_count"`
}

// Job is a schedulable unit of batch work. The runner drives the phases
// in order: ValidatePreConditions, Initialize, Execute, Cleanup. Cleanup
// runs whenever Initialize succeeded, even if Execute panics.
type Job interface {
	Name() string
	ValidatePreConditions(ctx context.Context) error
	Initialize(ctx context.Context) error
	Execute(ctx context.Context) (JobResult, error)
	Cleanup(ctx context.Context)
}

// JobRunner wraps job invocations with the distributed lease, panic
// capture, execution history and failure alerting. The timer path and the
// manual trigger path both come through Run, so a job cannot behave
// differently depending on what fired it.
type JobRunner struct {
	redis      redis.UniversalClient
	datasource database.IDataSource
}

func NewJobRunner(redisClient redis.UniversalClient, ds database.IDataSource) *JobRunner {
	return &JobRunner{redis: redisClient, datasource: ds}
}

// Run executes the job under the lease. When another holder has the
// lease the run is skipped silently; every started run leaves an
// execution history row, and failures raise an operations alert.
func (r *JobRunner) Run(ctx context.Context, job Job) JobResult {
	conf, err := config.Fetch()
	if err != nil {
		return JobResult{Message: fmt.Sprintf("configuration unavailable: %v", err)}
	}

	runID := database.GenerateUUIDWithSuffix("run")
	lease := redlock.NewLease(r.redis, fmt.Sprintf("jobs:lock:%s", job.Name()), runID,
		conf.Jobs.LeaseMinHold(), conf.Jobs.LeaseMaxHold())

	if err := lease.Acquire(ctx); err != nil {
		if errors.Is(err, redlock.ErrHeld) {
			logrus.Infof("job %s already running elsewhere, skipping", job.Name())
			return JobResult{Success: true, Skipped: true, Message: "lease held by another run"}
		}
		notification.NotifyError(err)
		return JobResult{Message: fmt.Sprintf("lease acquisition failed: %v", err)}
	}
	defer func() {
		if err := lease.Release(ctx); err != nil {
			logrus.Warnf("job %s lease release: %v", job.Name(), err)
		}
	}()

	startedAt := time.Now()
	logrus.Infof("job %s starting, run %s", job.Name(), runID)

	result := r.invoke(ctx, job)

	execution := model.JobExecution{
		RunID:        runID,
		JobName:      job.Name(),
		StartedAt:    startedAt,
		CompletedAt:  time.Now(),
		Success:      result.Success,
		Message:      result.Message,
		SuccessCount: result.SuccessCount,
		FailureCount: result.FailureCount,
	}
	if err := r.datasource.RecordJobExecution(ctx, &execution); err != nil {
		logrus.Errorf("job %s history write failed: %v", job.Name(), err)
	}

	if !result.Success {
		notification.NotifyError(fmt.Errorf("job %s run %s failed: %s", job.Name(), runID, result.Message))
	}
	logrus.Infof("job %s finished in %s: success=%v processed=%d failed=%d",
		job.Name(), time.Since(startedAt), result.Success, result.SuccessCount, result.FailureCount)
	return result
}

// invoke drives the job phases. A panic anywhere inside is converted to a
// failed result so one poisoned record batch cannot take the worker down.
func (r *JobRunner) invoke(ctx context.Context, job Job) (result JobResult) {
	defer func() {
		if rec := recover(); rec != nil {
			logrus.Errorf("job %s panicked: %v", job.Name(), rec)
			result = JobResult{Message: fmt.Sprintf("panic: %v", rec)}
		}
	}()

	if err := job.ValidatePreConditions(ctx); err != nil {
		return JobResult{Message: fmt.Sprintf("preconditions not met: %v", err)}
	}

	if err := job.Initialize(ctx); err != nil {
		return JobResult{Message: fmt.Sprintf("initialization failed: %v", err)}
	}
	defer job.Cleanup(ctx)

	result, err := job.Execute(ctx)
	if err != nil {
		return JobResult{Message: err.Error()}
	}
	return result
}

// batchResult summarises a per-record batch: the run counts as successful
// when anything went through or the batch was empty.
func batchResult(jobName string, successCount, failureCount int) JobResult {
	total := successCount + failureCount
	return JobResult{
		Success:      successCount > 0 || total == 0,
		Message:      fmt.Sprintf("%s processed %d of %d", jobName, successCount, total),
		SuccessCount: successCount,
		FailureCount: failureCount,
	}
}

func asTechnical(err error, message string) error {
	if _, ok := err.(apierror.APIError); ok {
		return err
	}
	return apierror.NewAPIError(apierror.ErrInternalServer, message, err)
}
