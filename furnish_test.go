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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ocmsproject/ocms/database/mocks"
	"github.com/ocmsproject/ocms/internal/apierror"
	"github.com/ocmsproject/ocms/model"
)

func newFurnishService(ds *mocks.MockDataSource) *FurnishService {
	return NewFurnishService(ds, NewSuspensionService(ds))
}

func submittedApplication() *model.FurnishApplication {
	return &model.FurnishApplication{
		ApplicationID: "FA0001",
		NoticeNo:      "500100200A",
		Indicator:     model.IndicatorHirer,
		IDType:        model.IDTypeNRIC,
		IDNo:          "S1234567D",
		Name:          "TAN AH KOW",
		AddressLine1:  "1 SOMEWHERE ROAD",
		PostalCode:    "123456",
		Status:        model.FurnishSubmitted,
	}
}

func TestProcessApplicationApprovesCleanSubmission(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := newFurnishService(ds)
	app := submittedApplication()

	ds.On("GetFurnishApplication", mock.Anything, "FA0001").Return(app, nil)
	ds.On("GetNotice", mock.Anything, "500100200A").Return(&model.Notice{
		NoticeNo:        "500100200A",
		ProcessingStage: model.StageRD1,
	}, nil)
	ds.On("IsCurrentOffenderElsewhere", mock.Anything, "S1234567D", "500100200A").Return(false, nil)
	ds.On("ExistsInParticulars", mock.Anything, "S1234567D").Return(false, nil)
	ds.On("HasParticulars", mock.Anything, "500100200A", model.IndicatorHirer).Return(false, nil)
	ds.On("GetCurrentOffender", mock.Anything, "500100200A").Return(&model.OwnerDriver{
		NoticeNo:        "500100200A",
		Indicator:       model.IndicatorOwner,
		CurrentOffender: "Y",
	}, nil)
	ds.On("CreateOwnerDriver", mock.Anything, mock.MatchedBy(func(r *model.OwnerDriver) bool {
		return r.IDNo == "S1234567D" && r.Indicator == model.IndicatorHirer && r.CurrentOffender == "Y"
	})).Return(nil)
	ds.On("UpdateNoticeStage", mock.Anything, "500100200A", model.StageRD2, mock.Anything, "officer1").Return(nil)
	ds.On("GetActiveSuspension", mock.Anything, "500100200A").Return(nil, nil)
	ds.On("UpdateFurnishStatus", mock.Anything, "FA0001", model.FurnishApproved, "", "officer1").Return(nil)

	outcome, err := service.ProcessApplication(context.Background(), "FA0001", "officer1")
	assert.NoError(t, err)
	assert.Equal(t, model.FurnishApproved, outcome.Status)
	assert.True(t, outcome.RecordUpdated)
	assert.False(t, outcome.SuspensionRevived)
	ds.AssertExpectations(t)
}

func TestProcessApplicationApprovalLiftsReviewHold(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := newFurnishService(ds)
	app := submittedApplication()
	app.Indicator = model.IndicatorDriver

	ds.On("GetFurnishApplication", mock.Anything, "FA0001").Return(app, nil)
	ds.On("GetNotice", mock.Anything, "500100200A").Return(&model.Notice{
		NoticeNo:        "500100200A",
		ProcessingStage: model.StageDN1,
	}, nil)
	ds.On("IsCurrentOffenderElsewhere", mock.Anything, "S1234567D", "500100200A").Return(false, nil)
	ds.On("ExistsInParticulars", mock.Anything, "S1234567D").Return(false, nil)
	ds.On("HasParticulars", mock.Anything, "500100200A", model.IndicatorDriver).Return(false, nil)
	ds.On("GetCurrentOffender", mock.Anything, "500100200A").Return(&model.OwnerDriver{CurrentOffender: "Y"}, nil)
	ds.On("CreateOwnerDriver", mock.Anything, mock.Anything).Return(nil)
	ds.On("UpdateNoticeStage", mock.Anything, "500100200A", model.StageDN2, mock.Anything, "officer1").Return(nil)
	ds.On("GetActiveSuspension", mock.Anything, "500100200A").Return(&model.Suspension{
		NoticeNo:   "500100200A",
		SrNo:       2,
		Type:       model.SuspensionTemporary,
		ReasonCode: model.ReasonPDP,
	}, nil)
	ds.On("ReviveSuspension", mock.Anything, "500100200A", 2, "officer1").Return(nil)
	ds.On("UpdateFurnishStatus", mock.Anything, "FA0001", model.FurnishApproved, "", "officer1").Return(nil)

	outcome, err := service.ProcessApplication(context.Background(), "FA0001", "officer1")
	assert.NoError(t, err)
	assert.Equal(t, model.FurnishApproved, outcome.Status)
	assert.True(t, outcome.RecordUpdated)
	assert.True(t, outcome.SuspensionRevived)
	ds.AssertExpectations(t)
}

func TestProcessApplicationParksDoubtfulSubmission(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := newFurnishService(ds)
	app := submittedApplication()

	notice := &model.Notice{NoticeNo: "500100200A", ProcessingStage: model.StageRD1}
	ds.On("GetFurnishApplication", mock.Anything, "FA0001").Return(app, nil)
	ds.On("GetNotice", mock.Anything, "500100200A").Return(notice, nil)
	ds.On("IsCurrentOffenderElsewhere", mock.Anything, "S1234567D", "500100200A").Return(true, nil)
	ds.On("UpdateFurnishStatus", mock.Anything, "FA0001", model.FurnishManualReview, mock.Anything, "officer1").Return(nil)
	ds.On("NextSuspensionSrNo", mock.Anything, "500100200A").Return(1, nil)
	ds.On("CreateSuspension", mock.Anything, mock.MatchedBy(func(s *model.Suspension) bool {
		return s.ReasonCode == model.ReasonPDP && s.Type == model.SuspensionTemporary
	})).Return(nil)

	outcome, err := service.ProcessApplication(context.Background(), "FA0001", "officer1")
	assert.NoError(t, err)
	assert.Equal(t, model.FurnishManualReview, outcome.Status)
	assert.NotEmpty(t, outcome.Reason)
	ds.AssertExpectations(t)
	ds.AssertNotCalled(t, "CreateOwnerDriver")
}

func TestProcessApplicationRejectsOutsideFurnishWindow(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := newFurnishService(ds)
	app := submittedApplication()

	ds.On("GetFurnishApplication", mock.Anything, "FA0001").Return(app, nil)
	ds.On("GetNotice", mock.Anything, "500100200A").Return(&model.Notice{
		NoticeNo:        "500100200A",
		ProcessingStage: model.StageRR3,
	}, nil)
	ds.On("UpdateFurnishStatus", mock.Anything, "FA0001", model.FurnishRejected, mock.Anything, "officer1").Return(nil)

	outcome, err := service.ProcessApplication(context.Background(), "FA0001", "officer1")
	assert.NoError(t, err)
	assert.Equal(t, model.FurnishRejected, outcome.Status)
	ds.AssertExpectations(t)
}

func TestProcessApplicationRejectsPermanentlySuspendedNotice(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := newFurnishService(ds)
	app := submittedApplication()

	ds.On("GetFurnishApplication", mock.Anything, "FA0001").Return(app, nil)
	ds.On("GetNotice", mock.Anything, "500100200A").Return(&model.Notice{
		NoticeNo:        "500100200A",
		ProcessingStage: model.StageRD2,
		SuspensionType:  model.SuspensionPermanent,
	}, nil)
	ds.On("UpdateFurnishStatus", mock.Anything, "FA0001", model.FurnishRejected, mock.Anything, "officer1").Return(nil)

	outcome, err := service.ProcessApplication(context.Background(), "FA0001", "officer1")
	assert.NoError(t, err)
	assert.Equal(t, model.FurnishRejected, outcome.Status)
}

func TestProcessApplicationPermanentSuspensionOutranksStageCheck(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := newFurnishService(ds)
	app := submittedApplication()

	// The notice fails both checks: RR3 is outside the furnish window and
	// the notice is permanently suspended. The rejection must name the
	// permanent suspension.
	ds.On("GetFurnishApplication", mock.Anything, "FA0001").Return(app, nil)
	ds.On("GetNotice", mock.Anything, "500100200A").Return(&model.Notice{
		NoticeNo:        "500100200A",
		ProcessingStage: model.StageRR3,
		SuspensionType:  model.SuspensionPermanent,
	}, nil)
	ds.On("UpdateFurnishStatus", mock.Anything, "FA0001", model.FurnishRejected, mock.Anything, "officer1").Return(nil)

	outcome, err := service.ProcessApplication(context.Background(), "FA0001", "officer1")
	assert.NoError(t, err)
	assert.Equal(t, model.FurnishRejected, outcome.Status)
	assert.Equal(t, "notice is permanently suspended", outcome.Reason)
}

func TestProcessApplicationRefusesDecidedApplication(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := newFurnishService(ds)
	app := submittedApplication()
	app.Status = model.FurnishApproved

	ds.On("GetFurnishApplication", mock.Anything, "FA0001").Return(app, nil)

	_, err := service.ProcessApplication(context.Background(), "FA0001", "officer1")
	assert.Error(t, err)
	assert.True(t, apierror.IsValidation(err))
}

func TestRejectApplicationRequiresReason(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := newFurnishService(ds)
	app := submittedApplication()
	app.Status = model.FurnishManualReview

	ds.On("GetFurnishApplication", mock.Anything, "FA0001").Return(app, nil)

	_, err := service.RejectApplication(context.Background(), "FA0001", "", "officer1", allChannels)
	assert.Error(t, err)
	assert.True(t, apierror.IsValidation(err))
	ds.AssertNotCalled(t, "UpdateFurnishStatus")
}

func TestApproveApplicationRequiresReviewStatus(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := newFurnishService(ds)
	app := submittedApplication()

	ds.On("GetFurnishApplication", mock.Anything, "FA0001").Return(app, nil)

	_, err := service.ApproveApplication(context.Background(), "FA0001", "officer1", allChannels)
	assert.Error(t, err)
	assert.True(t, apierror.IsValidation(err))
}

func TestFurnishApprovalJobProcessesBacklog(t *testing.T) {
	ds := new(mocks.MockDataSource)
	job := NewFurnishApprovalJob(newFurnishService(ds))
	app := submittedApplication()

	ds.On("GetSubmittedFurnishApplications", mock.Anything, furnishBatchLimit).
		Return([]model.FurnishApplication{*app}, nil)
	ds.On("GetFurnishApplication", mock.Anything, "FA0001").Return(app, nil)
	ds.On("GetNotice", mock.Anything, "500100200A").Return(&model.Notice{
		NoticeNo:        "500100200A",
		ProcessingStage: model.StageRR3,
	}, nil)
	ds.On("UpdateFurnishStatus", mock.Anything, "FA0001", model.FurnishRejected, mock.Anything, model.SystemUserID).Return(nil)

	ctx := context.Background()
	assert.NoError(t, job.ValidatePreConditions(ctx))
	assert.NoError(t, job.Initialize(ctx))

	result, err := job.Execute(ctx)
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.SuccessCount)
	ds.AssertExpectations(t)
}
