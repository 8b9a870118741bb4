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
package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/ocmsproject/ocms/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Notice methods

func (m *MockDataSource) GetNotice(ctx context.Context, noticeNo string) (*model.Notice, error) {
	args := m.Called(ctx, noticeNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notice), args.Error(1)
}

func (m *MockDataSource) UpdateNoticeStage(ctx context.Context, noticeNo, stage string, nextDue time.Time, updatedBy string) error {
	args := m.Called(ctx, noticeNo, stage, nextDue, updatedBy)
	return args.Error(0)
}

func (m *MockDataSource) UpdateNoticePayable(ctx context.Context, noticeNo string, amount decimal.Decimal, updatedBy string) error {
	args := m.Called(ctx, noticeNo, amount, updatedBy)
	return args.Error(0)
}

func (m *MockDataSource) SetNoticeSuspensionType(ctx context.Context, noticeNo, suspensionType, updatedBy string) error {
	args := m.Called(ctx, noticeNo, suspensionType, updatedBy)
	return args.Error(0)
}

func (m *MockDataSource) GetNoticesDueForStageAdvance(ctx context.Context, asOf time.Time, limit int) ([]model.Notice, error) {
	args := m.Called(ctx, asOf, limit)
	return args.Get(0).([]model.Notice), args.Error(1)
}

func (m *MockDataSource) GetVIPNoticesForReloop(ctx context.Context, limit int) ([]model.Notice, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.Notice), args.Error(1)
}

func (m *MockDataSource) IsVIPVehicle(ctx context.Context, vehicleNo string) (bool, error) {
	args := m.Called(ctx, vehicleNo)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataSource) GetUnsyncedNotices(ctx context.Context, limit int) ([]model.Notice, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.Notice), args.Error(1)
}

func (m *MockDataSource) MarkNoticeSynced(ctx context.Context, noticeNo string) error {
	args := m.Called(ctx, noticeNo)
	return args.Error(0)
}

func (m *MockDataSource) UpsertInternetNotice(ctx context.Context, notice *model.Notice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

// Suspension methods

func (m *MockDataSource) NextSuspensionSrNo(ctx context.Context, noticeNo string) (int, error) {
	args := m.Called(ctx, noticeNo)
	return args.Int(0), args.Error(1)
}

func (m *MockDataSource) CreateSuspension(ctx context.Context, suspension *model.Suspension) error {
	args := m.Called(ctx, suspension)
	return args.Error(0)
}

func (m *MockDataSource) GetActiveSuspension(ctx context.Context, noticeNo string) (*model.Suspension, error) {
	args := m.Called(ctx, noticeNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Suspension), args.Error(1)
}

func (m *MockDataSource) GetSuspensionsDueForRevival(ctx context.Context, asOf time.Time, limit int) ([]model.Suspension, error) {
	args := m.Called(ctx, asOf, limit)
	return args.Get(0).([]model.Suspension), args.Error(1)
}

func (m *MockDataSource) ReviveSuspension(ctx context.Context, noticeNo string, srNo int, revivedBy string) error {
	args := m.Called(ctx, noticeNo, srNo, revivedBy)
	return args.Error(0)
}

func (m *MockDataSource) ConvertSuspensionToPermanent(ctx context.Context, noticeNo string, srNo int, updatedBy string) error {
	args := m.Called(ctx, noticeNo, srNo, updatedBy)
	return args.Error(0)
}

// Reduction methods

func (m *MockDataSource) GetReductionByReceipt(ctx context.Context, receiptNo string) (*model.Reduction, error) {
	args := m.Called(ctx, receiptNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reduction), args.Error(1)
}

func (m *MockDataSource) CreateReductionWithSuspension(ctx context.Context, reduction *model.Reduction, suspension *model.Suspension) error {
	args := m.Called(ctx, reduction, suspension)
	return args.Error(0)
}

// Furnish methods

func (m *MockDataSource) GetFurnishApplication(ctx context.Context, applicationID string) (*model.FurnishApplication, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FurnishApplication), args.Error(1)
}

func (m *MockDataSource) GetSubmittedFurnishApplications(ctx context.Context, limit int) ([]model.FurnishApplication, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.FurnishApplication), args.Error(1)
}

func (m *MockDataSource) UpdateFurnishStatus(ctx context.Context, applicationID, status, rejectReason, processedBy string) error {
	args := m.Called(ctx, applicationID, status, rejectReason, processedBy)
	return args.Error(0)
}

func (m *MockDataSource) GetUnsyncedInternetFurnish(ctx context.Context, limit int) ([]model.FurnishApplication, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.FurnishApplication), args.Error(1)
}

func (m *MockDataSource) MarkInternetFurnishSynced(ctx context.Context, applicationID string) error {
	args := m.Called(ctx, applicationID)
	return args.Error(0)
}

func (m *MockDataSource) UpsertFurnishApplication(ctx context.Context, application *model.FurnishApplication) error {
	args := m.Called(ctx, application)
	return args.Error(0)
}

// Owner/driver methods

func (m *MockDataSource) GetCurrentOffender(ctx context.Context, noticeNo string) (*model.OwnerDriver, error) {
	args := m.Called(ctx, noticeNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OwnerDriver), args.Error(1)
}

func (m *MockDataSource) IsCurrentOffenderElsewhere(ctx context.Context, idNo, excludeNoticeNo string) (bool, error) {
	args := m.Called(ctx, idNo, excludeNoticeNo)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataSource) ExistsInParticulars(ctx context.Context, idNo string) (bool, error) {
	args := m.Called(ctx, idNo)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataSource) HasParticulars(ctx context.Context, noticeNo, indicator string) (bool, error) {
	args := m.Called(ctx, noticeNo, indicator)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataSource) CreateOwnerDriver(ctx context.Context, record *model.OwnerDriver) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockDataSource) GetUnsyncedOwnerDrivers(ctx context.Context, limit int) ([]model.OwnerDriver, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.OwnerDriver), args.Error(1)
}

func (m *MockDataSource) MarkOwnerDriverSynced(ctx context.Context, noticeNo, indicator, idNo string) error {
	args := m.Called(ctx, noticeNo, indicator, idNo)
	return args.Error(0)
}

func (m *MockDataSource) UpsertInternetOwnerDriver(ctx context.Context, record *model.OwnerDriver) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// Job methods

func (m *MockDataSource) RecordJobExecution(ctx context.Context, execution *model.JobExecution) error {
	args := m.Called(ctx, execution)
	return args.Error(0)
}

func (m *MockDataSource) GetJobExecutions(ctx context.Context, jobName string, limit int) ([]model.JobExecution, error) {
	args := m.Called(ctx, jobName, limit)
	return args.Get(0).([]model.JobExecution), args.Error(1)
}
