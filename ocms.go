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
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ocmsproject/ocms/config"
	"github.com/ocmsproject/ocms/database"
	"github.com/ocmsproject/ocms/internal/apierror"
	redis_db "github.com/ocmsproject/ocms/internal/redis-db"
	"github.com/ocmsproject/ocms/model"
)

// Ocms is the application root: the engines, the queue and the job
// runner, wired over one datasource and one Redis client.
type Ocms struct {
	queue      *Queue
	redis      redis.UniversalClient
	datasource database.IDataSource
	runner     *JobRunner
	callbacks  *CallbackRegistry

	suspensions *SuspensionService
	stages      *StageService
	reductions  *ReductionService
	furnish     *FurnishService
	sync        *SyncService
}

// NewOcms initializes a new instance of Ocms with the provided database
// datasource. It fetches the configuration and initializes the Redis
// client, queue, job runner and engines.
func NewOcms(db database.IDataSource) (*Ocms, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)})
	if err != nil {
		return nil, err
	}

	newQueue := NewQueue(configuration)
	suspensions := NewSuspensionService(db)

	o := &Ocms{
		queue:       newQueue,
		redis:       redisClient.Client(),
		datasource:  db,
		runner:      NewJobRunner(redisClient.Client(), db),
		callbacks:   NewCallbackRegistry(redisClient.Client()),
		suspensions: suspensions,
		stages:      NewStageService(db),
		reductions:  NewReductionService(db),
		furnish:     NewFurnishService(db, suspensions),
		sync:        NewSyncService(db, configuration.Sync.BatchSize),
	}
	return o, nil
}

// Suspensions exposes the suspension engine.
func (o *Ocms) Suspensions() *SuspensionService { return o.suspensions }

// Reductions exposes the reduction engine.
func (o *Ocms) Reductions() *ReductionService { return o.reductions }

// Furnish exposes the furnish approval engine.
func (o *Ocms) Furnish() *FurnishService { return o.furnish }

// Callbacks exposes the request correlation registry.
func (o *Ocms) Callbacks() *CallbackRegistry { return o.callbacks }

// JobByName builds the named job over the engines. Jobs hold per-run
// state, so each run gets a fresh instance.
func (o *Ocms) JobByName(name string) (Job, error) {
	switch name {
	case JobNameAutoRevival:
		return NewAutoRevivalJob(o.suspensions), nil
	case JobNameStageAdvance:
		return NewStageAdvanceJob(o.stages), nil
	case JobNameFurnishApproval:
		return NewFurnishApprovalJob(o.furnish), nil
	case JobNameSync:
		return NewSyncJob(o.sync), nil
	default:
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Unknown job %q", name), nil)
	}
}

// JobNames lists every job that can be scheduled or triggered.
func JobNames() []string {
	return []string{JobNameAutoRevival, JobNameStageAdvance, JobNameFurnishApproval, JobNameSync}
}

// RunJob runs the named job under the lease, synchronously.
func (o *Ocms) RunJob(ctx context.Context, name string) (JobResult, error) {
	job, err := o.JobByName(name)
	if err != nil {
		return JobResult{}, err
	}
	return o.runner.Run(ctx, job), nil
}

// TriggerJob enqueues an asynchronous run of the named job and opens a
// request window the outcome will be delivered against. The returned
// request id is what clients poll with.
func (o *Ocms) TriggerJob(ctx context.Context, name string) (string, error) {
	if _, err := o.JobByName(name); err != nil {
		return "", err
	}

	requestID := database.GenerateUUIDWithSuffix("req")
	if err := o.callbacks.RegisterPending(ctx, requestID); err != nil {
		return "", err
	}
	if err := o.queue.EnqueueJobTrigger(ctx, name, requestID); err != nil {
		return "", err
	}
	return requestID, nil
}

// JobHistory lists the most recent executions of the named job.
func (o *Ocms) JobHistory(ctx context.Context, name string, limit int) ([]model.JobExecution, error) {
	if _, err := o.JobByName(name); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return o.datasource.GetJobExecutions(ctx, name, limit)
}
