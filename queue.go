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
	"log"

	"github.com/hibiken/asynq"

	"github.com/ocmsproject/ocms/config"
	redis_db "github.com/ocmsproject/ocms/internal/redis-db"
)

// TaskJobTrigger is the task type carrying job trigger requests. Both the
// periodic scheduler and the manual trigger API enqueue it.
const TaskJobTrigger = "jobs:trigger"

// JobTriggerPayload names the job to run and the request the outcome
// should be delivered against.
type JobTriggerPayload struct {
	JobName   string `json:"job_name"`
	RequestID string `json:"request_id,omitempty"`
}

// Queue dispatches job triggers onto the Redis-backed task queue.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// NewQueue initializes the queue client from the configured Redis DNS.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}
	client := asynq.NewClient(queueOptions)
	inspector := asynq.NewInspector(queueOptions)
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// EnqueueJobTrigger places a trigger for the named job on the job queue.
// Triggers are fire-and-forget; exclusion happens at the lease, not here,
// so double enqueues collapse into one skipped run.
func (q *Queue) EnqueueJobTrigger(ctx context.Context, jobName, requestID string) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(JobTriggerPayload{JobName: jobName, RequestID: requestID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskJobTrigger, payload, asynq.Queue(cfg.Jobs.Queue), asynq.MaxRetry(3))
	info, err := q.Client.EnqueueContext(ctx, task)
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued job trigger: %s", jobName)
	return nil
}
