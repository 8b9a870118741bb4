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
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/ocmsproject/ocms/config"
	redis_db "github.com/ocmsproject/ocms/internal/redis-db"
)

// NewScheduler registers the periodic triggers for every job with a cron
// expression configured. Jobs with an empty expression only run when
// triggered manually.
func NewScheduler(conf *config.Configuration) (*asynq.Scheduler, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig},
		&asynq.SchedulerOpts{},
	)

	entries := map[string]string{
		JobNameAutoRevival:     conf.Jobs.AutoRevivalCron,
		JobNameStageAdvance:    conf.Jobs.StageAdvanceCron,
		JobNameFurnishApproval: conf.Jobs.FurnishCron,
		JobNameSync:            conf.Jobs.SyncCron,
	}

	for jobName, cronSpec := range entries {
		if cronSpec == "" {
			continue
		}
		payload, err := json.Marshal(JobTriggerPayload{JobName: jobName})
		if err != nil {
			return nil, err
		}
		task := asynq.NewTask(TaskJobTrigger, payload, asynq.Queue(conf.Jobs.Queue))
		entryID, err := scheduler.Register(cronSpec, task)
		if err != nil {
			return nil, fmt.Errorf("registering %s schedule: %v", jobName, err)
		}
		logrus.Infof("registered %s on schedule %q (entry %s)", jobName, cronSpec, entryID)
	}

	return scheduler, nil
}

// HandleJobTrigger is the worker-side handler for trigger tasks. It
// resolves the named job, runs it under the lease and, when the trigger
// carried a request id, delivers the outcome against it.
func (o *Ocms) HandleJobTrigger(ctx context.Context, t *asynq.Task) error {
	var payload JobTriggerPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logrus.Error(err)
		return err
	}

	result, err := o.RunJob(ctx, payload.JobName)
	if err != nil {
		return err
	}

	if payload.RequestID != "" {
		token, marshalErr := json.Marshal(result)
		if marshalErr != nil {
			return marshalErr
		}
		if err := o.callbacks.Complete(ctx, payload.RequestID, string(token)); err != nil {
			logrus.Warnf("job %s outcome delivery for request %s: %v", payload.JobName, payload.RequestID, err)
		}
	}

	// A failed batch is reported through history and alerting, not task
	// retries. Retrying the task would re-run the whole batch.
	return nil
}

// NewWorkerMux wires the task handlers the worker process serves.
func NewWorkerMux(o *Ocms) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskJobTrigger, o.HandleJobTrigger)
	return mux
}
