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

package database

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ocmsproject/ocms/model"
)

type IDataSource interface {
	noticeRepository
	suspensionRepository
	reductionRepository
	furnishRepository
	ownerDriverRepository
	jobRepository
}

type noticeRepository interface {
	GetNotice(ctx context.Context, noticeNo string) (*model.Notice, error)
	UpdateNoticeStage(ctx context.Context, noticeNo, stage string, nextDue time.Time, updatedBy string) error
	UpdateNoticePayable(ctx context.Context, noticeNo string, amount decimal.Decimal, updatedBy string) error
	SetNoticeSuspensionType(ctx context.Context, noticeNo, suspensionType, updatedBy string) error
	GetNoticesDueForStageAdvance(ctx context.Context, asOf time.Time, limit int) ([]model.Notice, error)
	GetVIPNoticesForReloop(ctx context.Context, limit int) ([]model.Notice, error)
	IsVIPVehicle(ctx context.Context, vehicleNo string) (bool, error)
	GetUnsyncedNotices(ctx context.Context, limit int) ([]model.Notice, error)
	MarkNoticeSynced(ctx context.Context, noticeNo string) error
	UpsertInternetNotice(ctx context.Context, notice *model.Notice) error
}

type suspensionRepository interface {
	NextSuspensionSrNo(ctx context.Context, noticeNo string) (int, error)
	CreateSuspension(ctx context.Context, suspension *model.Suspension) error
	GetActiveSuspension(ctx context.Context, noticeNo string) (*model.Suspension, error)
	GetSuspensionsDueForRevival(ctx context.Context, asOf time.Time, limit int) ([]model.Suspension, error)
	ReviveSuspension(ctx context.Context, noticeNo string, srNo int, revivedBy string) error
	ConvertSuspensionToPermanent(ctx context.Context, noticeNo string, srNo int, updatedBy string) error
}

type reductionRepository interface {
	GetReductionByReceipt(ctx context.Context, receiptNo string) (*model.Reduction, error)
	CreateReductionWithSuspension(ctx context.Context, reduction *model.Reduction, suspension *model.Suspension) error
}

type furnishRepository interface {
	GetFurnishApplication(ctx context.Context, applicationID string) (*model.FurnishApplication, error)
	GetSubmittedFurnishApplications(ctx context.Context, limit int) ([]model.FurnishApplication, error)
	UpdateFurnishStatus(ctx context.Context, applicationID, status, rejectReason, processedBy string) error
	GetUnsyncedInternetFurnish(ctx context.Context, limit int) ([]model.FurnishApplication, error)
	MarkInternetFurnishSynced(ctx context.Context, applicationID string) error
	UpsertFurnishApplication(ctx context.Context, application *model.FurnishApplication) error
}

type ownerDriverRepository interface {
	GetCurrentOffender(ctx context.Context, noticeNo string) (*model.OwnerDriver, error)
	IsCurrentOffenderElsewhere(ctx context.Context, idNo, excludeNoticeNo string) (bool, error)
	ExistsInParticulars(ctx context.Context, idNo string) (bool, error)
	HasParticulars(ctx context.Context, noticeNo, indicator string) (bool, error)
	CreateOwnerDriver(ctx context.Context, record *model.OwnerDriver) error
	GetUnsyncedOwnerDrivers(ctx context.Context, limit int) ([]model.OwnerDriver, error)
	MarkOwnerDriverSynced(ctx context.Context, noticeNo, indicator, idNo string) error
	UpsertInternetOwnerDriver(ctx context.Context, record *model.OwnerDriver) error
}

type jobRepository interface {
	RecordJobExecution(ctx context.Context, execution *model.JobExecution) error
	GetJobExecutions(ctx context.Context, jobName string, limit int) ([]model.JobExecution, error)
}
