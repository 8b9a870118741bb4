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
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/ocmsproject/ocms/config"
	"github.com/ocmsproject/ocms/database"
)

// SyncService replicates pending rows between the intranet and internet
// stores. Each row is pushed then marked in its own step, so a crash
// mid-batch re-sends at most the rows not yet marked; the upserts make
// the re-send harmless.
type SyncService struct {
	datasource database.IDataSource
	batchSize  int
}

func NewSyncService(ds database.IDataSource, batchSize int) *SyncService {
	if batchSize <= 0 {
		batchSize = config.DefaultSyncBatchSize
	}
	return &SyncService{datasource: ds, batchSize: batchSize}
}

// withRetry retries transient store failures with exponential backoff
// before giving the row up to the next run.
func withRetry(op func() error) error {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	return backoff.Retry(op, policy)
}

// SyncNotices pushes pending notices to the internet store.
func (s *SyncService) SyncNotices(ctx context.Context) (successCount, failureCount int) {
	notices, err := s.datasource.GetUnsyncedNotices(ctx, s.batchSize)
	if err != nil {
		logrus.Errorf("listing pending notices: %v", err)
		return 0, 1
	}

	for i := range notices {
		notice := &notices[i]
		err := withRetry(func() error {
			return s.datasource.UpsertInternetNotice(ctx, notice)
		})
		if err == nil {
			err = s.datasource.MarkNoticeSynced(ctx, notice.NoticeNo)
		}
		if err != nil {
			failureCount++
			logrus.Errorf("syncing notice %s: %v", notice.NoticeNo, err)
			continue
		}
		successCount++
	}
	return successCount, failureCount
}

// SyncOwnerDrivers pushes pending owner and driver records to the
// internet store.
func (s *SyncService) SyncOwnerDrivers(ctx context.Context) (successCount, failureCount int) {
	records, err := s.datasource.GetUnsyncedOwnerDrivers(ctx, s.batchSize)
	if err != nil {
		logrus.Errorf("listing pending owner/driver records: %v", err)
		return 0, 1
	}

	for i := range records {
		record := &records[i]
		err := withRetry(func() error {
			return s.datasource.UpsertInternetOwnerDriver(ctx, record)
		})
		if err == nil {
			err = s.datasource.MarkOwnerDriverSynced(ctx, record.NoticeNo, record.Indicator, record.IDNo)
		}
		if err != nil {
			failureCount++
			logrus.Errorf("syncing owner/driver record for notice %s (%s): %v", record.NoticeNo, record.Indicator, err)
			continue
		}
		successCount++
	}
	return successCount, failureCount
}

// PullFurnishApplications pulls freshly submitted applications from the
// internet store so the approval battery can run on them. The intranet
// upsert never touches an application already decided there.
func (s *SyncService) PullFurnishApplications(ctx context.Context) (successCount, failureCount int) {
	applications, err := s.datasource.GetUnsyncedInternetFurnish(ctx, s.batchSize)
	if err != nil {
		logrus.Errorf("listing pending furnish applications: %v", err)
		return 0, 1
	}

	for i := range applications {
		app := &applications[i]
		err := withRetry(func() error {
			return s.datasource.UpsertFurnishApplication(ctx, app)
		})
		if err == nil {
			err = s.datasource.MarkInternetFurnishSynced(ctx, app.ApplicationID)
		}
		if err != nil {
			failureCount++
			logrus.Errorf("pulling furnish application %s: %v", app.ApplicationID, err)
			continue
		}
		successCount++
	}
	return successCount, failureCount
}

// JobNameSync identifies the two-way replication job.
const JobNameSync = "sync"

// SyncJob runs the outbound pushes and the furnish pull as one batch.
type SyncJob struct {
	service *SyncService

	startedAt time.Time
}

func NewSyncJob(service *SyncService) *SyncJob {
	return &SyncJob{service: service}
}

func (j *SyncJob) Name() string { return JobNameSync }

func (j *SyncJob) ValidatePreConditions(ctx context.Context) error {
	if j.service == nil {
		return fmt.Errorf("sync service not configured")
	}
	return nil
}

func (j *SyncJob) Initialize(ctx context.Context) error {
	j.startedAt = time.Now()
	return nil
}

func (j *SyncJob) Execute(ctx context.Context) (JobResult, error) {
	noticesOK, noticesFailed := j.service.SyncNotices(ctx)
	ownersOK, ownersFailed := j.service.SyncOwnerDrivers(ctx)
	furnishOK, furnishFailed := j.service.PullFurnishApplications(ctx)

	logrus.Infof("sync pushed %d notices, %d owner/driver records, pulled %d furnish applications in %s",
		noticesOK, ownersOK, furnishOK, time.Since(j.startedAt))

	return batchResult(JobNameSync,
		noticesOK+ownersOK+furnishOK,
		noticesFailed+ownersFailed+furnishFailed), nil
}

func (j *SyncJob) Cleanup(ctx context.Context) {}
