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

	"github.com/sirupsen/logrus"

	"github.com/ocmsproject/ocms/database"
	"github.com/ocmsproject/ocms/model"
)

const stageBatchLimit = 1000

// StageService moves notices along the reminder chain. Only unsuspended
// notices in a non-terminal stage whose dwell time has lapsed move; the
// query enforces that, so advancing is a pure per-record transition here.
type StageService struct {
	datasource database.IDataSource
}

func NewStageService(ds database.IDataSource) *StageService {
	return &StageService{datasource: ds}
}

// AdvanceNotice moves one notice to its next stage and stamps the next
// due date from the new stage's dwell time.
func (s *StageService) AdvanceNotice(ctx context.Context, notice *model.Notice, asOf time.Time) error {
	next, dwellDays, ok := model.NextStage(notice.ProcessingStage)
	if !ok {
		return fmt.Errorf("notice %s has no transition from stage %s", notice.NoticeNo, notice.ProcessingStage)
	}
	nextDue := asOf.AddDate(0, 0, dwellDays)
	return s.datasource.UpdateNoticeStage(ctx, notice.NoticeNo, next, nextDue, model.SystemUserID)
}

// AdvanceDueNotices advances every notice whose processing date has
// lapsed, isolating failures per record.
func (s *StageService) AdvanceDueNotices(ctx context.Context, due []model.Notice, asOf time.Time) (successCount, failureCount int) {
	for i := range due {
		notice := &due[i]
		if err := s.AdvanceNotice(ctx, notice, asOf); err != nil {
			failureCount++
			logrus.Errorf("advancing notice %s from %s: %v", notice.NoticeNo, notice.ProcessingStage, err)
			continue
		}
		successCount++
	}
	return successCount, failureCount
}

// JobNameStageAdvance identifies the stage progression job.
const JobNameStageAdvance = "stage-advance"

// StageAdvanceJob walks due notices through the reminder chain.
type StageAdvanceJob struct {
	service *StageService

	asOf time.Time
	due  []model.Notice
}

func NewStageAdvanceJob(service *StageService) *StageAdvanceJob {
	return &StageAdvanceJob{service: service}
}

func (j *StageAdvanceJob) Name() string { return JobNameStageAdvance }

func (j *StageAdvanceJob) ValidatePreConditions(ctx context.Context) error {
	if j.service == nil {
		return fmt.Errorf("stage service not configured")
	}
	return nil
}

func (j *StageAdvanceJob) Initialize(ctx context.Context) error {
	j.asOf = time.Now()
	due, err := j.service.datasource.GetNoticesDueForStageAdvance(ctx, j.asOf, stageBatchLimit)
	if err != nil {
		return asTechnical(err, "loading notices due for stage advance")
	}
	j.due = due
	return nil
}

func (j *StageAdvanceJob) Execute(ctx context.Context) (JobResult, error) {
	successCount, failureCount := j.service.AdvanceDueNotices(ctx, j.due, j.asOf)
	return batchResult(JobNameStageAdvance, successCount, failureCount), nil
}

func (j *StageAdvanceJob) Cleanup(ctx context.Context) {
	j.due = nil
}
