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
	"github.com/ocmsproject/ocms/internal/apierror"
	"github.com/ocmsproject/ocms/model"
)

const revivalBatchLimit = 1000

// SuspensionService manages notice suspensions and their revival. A
// suspension freezes a notice; revival releases it back into the
// processing chain once the hold period lapses.
type SuspensionService struct {
	datasource database.IDataSource
}

func NewSuspensionService(ds database.IDataSource) *SuspensionService {
	return &SuspensionService{datasource: ds}
}

// CreateSuspension places a suspension on a notice. The revival due date
// comes from the reason code's hold period; permanent suspensions carry
// none. Each entry gets the notice's next serial number. The source is
// the system code of the channel raising the hold; empty defaults to this
// system's own code.
func (s *SuspensionService) CreateSuspension(ctx context.Context, noticeNo, suspensionType, reasonCode, remarks, source, createdBy string) (*model.Suspension, error) {
	if source == "" {
		source = model.SourceOCMS
	}
	if suspensionType != model.SuspensionTemporary && suspensionType != model.SuspensionPermanent {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("unknown suspension type %q", suspensionType), nil)
	}

	notice, err := s.datasource.GetNotice(ctx, noticeNo)
	if err != nil {
		return nil, err
	}
	if notice.Suspended() {
		return nil, apierror.NewBusinessError(fmt.Sprintf("notice %s is already suspended", noticeNo), nil)
	}

	// VIP reasons only apply to flagged vehicles.
	if reasonCode == model.ReasonVIPOneShot || reasonCode == model.ReasonVIPLoop {
		vip, err := s.datasource.IsVIPVehicle(ctx, notice.VehicleNo)
		if err != nil {
			return nil, err
		}
		if !vip {
			return nil, apierror.NewBusinessError(
				fmt.Sprintf("vehicle %s on notice %s is not flagged", notice.VehicleNo, noticeNo), nil)
		}
	}

	srNo, err := s.datasource.NextSuspensionSrNo(ctx, noticeNo)
	if err != nil {
		return nil, err
	}

	suspension := model.Suspension{
		NoticeNo:    noticeNo,
		SrNo:        srNo,
		Type:        suspensionType,
		ReasonCode:  reasonCode,
		Remarks:     remarks,
		Source:      source,
		SuspendedAt: time.Now(),
		CreatedBy:   createdBy,
	}
	if suspensionType == model.SuspensionTemporary {
		suspension.RevivalDueAt = suspension.SuspendedAt.AddDate(0, 0, model.RevivalDaysFor(reasonCode))
	}

	if err := s.datasource.CreateSuspension(ctx, &suspension); err != nil {
		return nil, err
	}
	return &suspension, nil
}

// QueryDueForRevival lists temporary suspensions whose hold has lapsed.
func (s *SuspensionService) QueryDueForRevival(ctx context.Context, asOf time.Time) ([]model.Suspension, error) {
	return s.datasource.GetSuspensionsDueForRevival(ctx, asOf, revivalBatchLimit)
}

// ApplyRevival works through due suspensions one record at a time, so a
// bad row costs that row only. One-shot VIP holds convert to permanent
// suspensions instead of reviving; everything else releases the notice.
func (s *SuspensionService) ApplyRevival(ctx context.Context, due []model.Suspension) (successCount, failureCount int) {
	for i := range due {
		suspension := &due[i]
		var err error
		if suspension.ReasonCode == model.ReasonVIPOneShot {
			err = s.datasource.ConvertSuspensionToPermanent(ctx, suspension.NoticeNo, suspension.SrNo, model.SystemUserID)
		} else {
			err = s.datasource.ReviveSuspension(ctx, suspension.NoticeNo, suspension.SrNo, model.SystemUserID)
		}
		if err != nil {
			failureCount++
			logrus.Errorf("revival of notice %s entry %d (%s): %v", suspension.NoticeNo, suspension.SrNo, suspension.ReasonCode, err)
			continue
		}
		successCount++
	}
	return successCount, failureCount
}

// ReloopVIPNotices puts a fresh looping hold on flagged vehicles' notices
// that have reached a court-warning stage unsuspended. Runs after the
// revival passes, so a hold just upgraded to permanent blocks its notice
// from relooping.
func (s *SuspensionService) ReloopVIPNotices(ctx context.Context) (successCount, failureCount int) {
	notices, err := s.datasource.GetVIPNoticesForReloop(ctx, revivalBatchLimit)
	if err != nil {
		logrus.Errorf("listing notices for relooping: %v", err)
		return 0, 1
	}

	for i := range notices {
		notice := &notices[i]
		_, err := s.CreateSuspension(ctx, notice.NoticeNo, model.SuspensionTemporary, model.ReasonVIPLoop,
			"relooped at "+notice.ProcessingStage, model.SourceOCMS, model.SystemUserID)
		if err != nil {
			failureCount++
			logrus.Errorf("relooping notice %s: %v", notice.NoticeNo, err)
			continue
		}
		successCount++
	}
	return successCount, failureCount
}

// JobNameAutoRevival identifies the revival job in schedules, leases and
// execution history.
const JobNameAutoRevival = "auto-revival"

// AutoRevivalJob runs the three revival passes: one-shot VIP conversion,
// general revival, then VIP relooping.
type AutoRevivalJob struct {
	service *SuspensionService

	due []model.Suspension
}

func NewAutoRevivalJob(service *SuspensionService) *AutoRevivalJob {
	return &AutoRevivalJob{service: service}
}

func (j *AutoRevivalJob) Name() string { return JobNameAutoRevival }

func (j *AutoRevivalJob) ValidatePreConditions(ctx context.Context) error {
	if j.service == nil {
		return fmt.Errorf("suspension service not configured")
	}
	return nil
}

func (j *AutoRevivalJob) Initialize(ctx context.Context) error {
	due, err := j.service.QueryDueForRevival(ctx, time.Now())
	if err != nil {
		return asTechnical(err, "loading suspensions due for revival")
	}
	j.due = due
	return nil
}

func (j *AutoRevivalJob) Execute(ctx context.Context) (JobResult, error) {
	// Conversion before revival: due one-shot holds become permanent
	// first, and the relooping pass then sees those notices as suspended.
	oneShot := make([]model.Suspension, 0, len(j.due))
	general := make([]model.Suspension, 0, len(j.due))
	for _, suspension := range j.due {
		if suspension.ReasonCode == model.ReasonVIPOneShot {
			oneShot = append(oneShot, suspension)
		} else {
			general = append(general, suspension)
		}
	}

	convertedOK, convertedFailed := j.service.ApplyRevival(ctx, oneShot)
	revivedOK, revivedFailed := j.service.ApplyRevival(ctx, general)
	reloopedOK, reloopedFailed := j.service.ReloopVIPNotices(ctx)

	return batchResult(JobNameAutoRevival,
		convertedOK+revivedOK+reloopedOK,
		convertedFailed+revivedFailed+reloopedFailed), nil
}

func (j *AutoRevivalJob) Cleanup(ctx context.Context) {
	j.due = nil
}
