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
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ocmsproject/ocms/config"
	"github.com/ocmsproject/ocms/database/mocks"
	"github.com/ocmsproject/ocms/model"
)

// testJob drives the runner with controllable phases.
type testJob struct {
	name         string
	preCondition error
	initErr      error
	execute      func(ctx context.Context) (JobResult, error)

	executed  bool
	cleanedUp bool
}

func (j *testJob) Name() string { return j.name }

func (j *testJob) ValidatePreConditions(ctx context.Context) error { return j.preCondition }

func (j *testJob) Initialize(ctx context.Context) error { return j.initErr }

func (j *testJob) Execute(ctx context.Context) (JobResult, error) {
	j.executed = true
	if j.execute != nil {
		return j.execute(ctx)
	}
	return batchResult(j.name, 1, 0), nil
}

func (j *testJob) Cleanup(ctx context.Context) { j.cleanedUp = true }

func newTestRunner(t *testing.T) (*JobRunner, *miniredis.Miniredis, *mocks.MockDataSource) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ds := new(mocks.MockDataSource)

	config.MockConfig(&config.Configuration{
		Jobs: config.JobsConfig{Queue: "jobs", LeaseMinHoldMins: 0, LeaseMaxHoldMins: 1},
	})
	return NewJobRunner(client, ds), mr, ds
}

func TestJobRunnerRecordsExecutionHistory(t *testing.T) {
	runner, mr, ds := newTestRunner(t)

	ds.On("RecordJobExecution", mock.Anything, mock.MatchedBy(func(e *model.JobExecution) bool {
		return e.JobName == "test-job" && e.Success && e.SuccessCount == 1 && e.RunID != ""
	})).Return(nil)

	job := &testJob{name: "test-job"}
	result := runner.Run(context.Background(), job)

	assert.True(t, result.Success)
	assert.True(t, job.executed)
	assert.True(t, job.cleanedUp)
	assert.False(t, mr.Exists("jobs:lock:test-job"))
	ds.AssertExpectations(t)
}

func TestJobRunnerSkipsWhenLeaseHeld(t *testing.T) {
	runner, mr, ds := newTestRunner(t)
	assert.NoError(t, mr.Set("jobs:lock:test-job", "another-run"))

	job := &testJob{name: "test-job"}
	result := runner.Run(context.Background(), job)

	assert.True(t, result.Success)
	assert.True(t, result.Skipped)
	assert.False(t, job.executed)
	ds.AssertNotCalled(t, "RecordJobExecution", mock.Anything, mock.Anything)

	// The holder's lease is untouched.
	assert.Equal(t, "another-run", func() string { v, _ := mr.Get("jobs:lock:test-job"); return v }())
}

func TestJobRunnerConvertsPanicToFailedResult(t *testing.T) {
	runner, mr, ds := newTestRunner(t)

	ds.On("RecordJobExecution", mock.Anything, mock.MatchedBy(func(e *model.JobExecution) bool {
		return e.JobName == "test-job" && !e.Success
	})).Return(nil)

	job := &testJob{name: "test-job", execute: func(ctx context.Context) (JobResult, error) {
		panic("poisoned record")
	}}
	result := runner.Run(context.Background(), job)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "panic")
	assert.True(t, job.cleanedUp)
	assert.False(t, mr.Exists("jobs:lock:test-job"))
	ds.AssertExpectations(t)
}

func TestJobRunnerAbortsOnPreconditionFailure(t *testing.T) {
	runner, _, ds := newTestRunner(t)

	ds.On("RecordJobExecution", mock.Anything, mock.MatchedBy(func(e *model.JobExecution) bool {
		return !e.Success
	})).Return(nil)

	job := &testJob{name: "test-job", preCondition: errors.New("feature disabled")}
	result := runner.Run(context.Background(), job)

	assert.False(t, result.Success)
	assert.False(t, job.executed)
	assert.False(t, job.cleanedUp)
}

func TestJobRunnerSkipsCleanupWhenInitializeFails(t *testing.T) {
	runner, _, ds := newTestRunner(t)

	ds.On("RecordJobExecution", mock.Anything, mock.Anything).Return(nil)

	job := &testJob{name: "test-job", initErr: errors.New("store unavailable")}
	result := runner.Run(context.Background(), job)

	assert.False(t, result.Success)
	assert.False(t, job.executed)
	assert.False(t, job.cleanedUp)
}

func TestBatchResult(t *testing.T) {
	tests := []struct {
		name         string
		successCount int
		failureCount int
		wantSuccess  bool
	}{
		{"all processed", 5, 0, true},
		{"partial failure still succeeds", 3, 2, true},
		{"every record failed", 0, 4, false},
		{"empty batch succeeds", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := batchResult("test-job", tt.successCount, tt.failureCount)
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.successCount, result.SuccessCount)
			assert.Equal(t, tt.failureCount, result.FailureCount)
		})
	}
}
