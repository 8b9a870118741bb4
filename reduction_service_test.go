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
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ocmsproject/ocms/database/mocks"
	"github.com/ocmsproject/ocms/internal/apierror"
	"github.com/ocmsproject/ocms/model"
)

func TestCreateReductionReplayedReceiptReturnsExisting(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := NewReductionService(ds)

	existing := &model.Reduction{ReductionID: "REDRCPT001", NoticeNo: "500100200A", ReceiptNo: "RCPT001"}
	ds.On("GetReductionByReceipt", mock.Anything, "RCPT001").Return(existing, nil)

	reduction, created, err := service.CreateReductionIfAbsent(context.Background(), ReductionRequest{
		NoticeNo:         "500100200A",
		ReceiptNo:        "RCPT001",
		AmountReduced:    decimal.NewFromInt(20),
		NewAmountPayable: decimal.NewFromInt(50),
		ApprovedBy:       "officer1",
	})
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing, reduction)
	ds.AssertNotCalled(t, "CreateReductionWithSuspension")
}

func TestCreateReductionIneligibleRuleOutsideCourtWarning(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := NewReductionService(ds)

	ds.On("GetReductionByReceipt", mock.Anything, "RCPT002").Return(nil, nil)
	ds.On("GetNotice", mock.Anything, "500100200A").Return(&model.Notice{
		NoticeNo:        "500100200A",
		RuleCode:        "99999",
		ProcessingStage: model.StageRD1,
		AmountPayable:   decimal.NewFromInt(100),
	}, nil)

	_, _, err := service.CreateReductionIfAbsent(context.Background(), ReductionRequest{
		NoticeNo:         "500100200A",
		ReceiptNo:        "RCPT002",
		AmountReduced:    decimal.NewFromInt(50),
		NewAmountPayable: decimal.NewFromInt(50),
		ApprovedBy:       "officer1",
	})
	assert.Error(t, err)
	assert.True(t, apierror.IsBusiness(err))
}

func TestCreateReductionRefusesPermanentlySuspendedNotice(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := NewReductionService(ds)

	ds.On("GetReductionByReceipt", mock.Anything, "RCPT003").Return(nil, nil)
	ds.On("GetNotice", mock.Anything, "500100200A").Return(&model.Notice{
		NoticeNo:        "500100200A",
		RuleCode:        "30305",
		ProcessingStage: model.StageRD2,
		SuspensionType:  model.SuspensionPermanent,
		AmountPayable:   decimal.NewFromInt(100),
	}, nil)

	_, _, err := service.CreateReductionIfAbsent(context.Background(), ReductionRequest{
		NoticeNo:         "500100200A",
		ReceiptNo:        "RCPT003",
		AmountReduced:    decimal.NewFromInt(50),
		NewAmountPayable: decimal.NewFromInt(50),
		ApprovedBy:       "officer1",
	})
	assert.Error(t, err)
	assert.True(t, apierror.IsBusiness(err))
}

func TestCreateReductionRequiresLowerAmount(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := NewReductionService(ds)

	ds.On("GetReductionByReceipt", mock.Anything, "RCPT004").Return(nil, nil)
	ds.On("GetNotice", mock.Anything, "500100200A").Return(&model.Notice{
		NoticeNo:        "500100200A",
		RuleCode:        "30305",
		ProcessingStage: model.StageRD1,
		AmountPayable:   decimal.NewFromInt(100),
	}, nil)

	_, _, err := service.CreateReductionIfAbsent(context.Background(), ReductionRequest{
		NoticeNo:         "500100200A",
		ReceiptNo:        "RCPT004",
		AmountReduced:    decimal.NewFromInt(0),
		NewAmountPayable: decimal.NewFromInt(100),
		ApprovedBy:       "officer1",
	})
	assert.Error(t, err)
	assert.True(t, apierror.IsValidation(err))
}

func TestCreateReductionCreatesCompanionSuspension(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := NewReductionService(ds)

	ds.On("GetReductionByReceipt", mock.Anything, "RCPT005").Return(nil, nil)
	ds.On("GetNotice", mock.Anything, "500100200A").Return(&model.Notice{
		NoticeNo:        "500100200A",
		RuleCode:        "31302",
		ProcessingStage: model.StageRD1,
		AmountPayable:   decimal.NewFromInt(120),
	}, nil)
	ds.On("NextSuspensionSrNo", mock.Anything, "500100200A").Return(2, nil)
	ds.On("CreateReductionWithSuspension", mock.Anything,
		mock.MatchedBy(func(r *model.Reduction) bool {
			return r.ReductionID == "REDRCPT005" && r.SrNo == 2 &&
				r.OriginalAmount.Equal(decimal.NewFromInt(120)) &&
				r.AmountReduced.Equal(decimal.NewFromInt(40)) &&
				r.NewAmountPayable.Equal(decimal.NewFromInt(80)) &&
				r.Reason == "first offence" &&
				r.SuspensionSource == model.SourceOCMS
		}),
		mock.MatchedBy(func(s *model.Suspension) bool {
			return s.SrNo == 2 && s.Type == model.SuspensionTemporary &&
				s.ReasonCode == model.ReasonReduction &&
				s.Source == model.SourceOCMS &&
				s.RevivalDueAt.Sub(s.SuspendedAt) == 7*24*time.Hour
		})).Return(nil)
	ds.On("UpdateNoticePayable", mock.Anything, "500100200A",
		mock.MatchedBy(func(amount decimal.Decimal) bool {
			return amount.Equal(decimal.NewFromInt(80))
		}), "officer1").Return(nil)

	reduction, created, err := service.CreateReductionIfAbsent(context.Background(), ReductionRequest{
		NoticeNo:         "500100200A",
		ReceiptNo:        "RCPT005",
		AmountReduced:    decimal.NewFromInt(40),
		NewAmountPayable: decimal.NewFromInt(80),
		Reason:           "first offence",
		ApprovedBy:       "officer1",
	})
	assert.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "REDRCPT005", reduction.ReductionID)
	ds.AssertExpectations(t)
}

func TestCreateReductionLosingRaceReturnsWinner(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := NewReductionService(ds)

	winner := &model.Reduction{ReductionID: "REDRCPT006", NoticeNo: "500100200A", ReceiptNo: "RCPT006"}

	ds.On("GetReductionByReceipt", mock.Anything, "RCPT006").Return(nil, nil).Once()
	ds.On("GetNotice", mock.Anything, "500100200A").Return(&model.Notice{
		NoticeNo:        "500100200A",
		RuleCode:        "30302",
		ProcessingStage: model.StageRR3,
		AmountPayable:   decimal.NewFromInt(100),
	}, nil)
	ds.On("NextSuspensionSrNo", mock.Anything, "500100200A").Return(1, nil)
	ds.On("CreateReductionWithSuspension", mock.Anything, mock.Anything, mock.Anything).
		Return(apierror.NewAPIError(apierror.ErrConflict, "Reduction for this receipt already exists", nil))
	ds.On("GetReductionByReceipt", mock.Anything, "RCPT006").Return(winner, nil).Once()

	reduction, created, err := service.CreateReductionIfAbsent(context.Background(), ReductionRequest{
		NoticeNo:         "500100200A",
		ReceiptNo:        "RCPT006",
		AmountReduced:    decimal.NewFromInt(40),
		NewAmountPayable: decimal.NewFromInt(60),
		ApprovedBy:       "officer1",
	})
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner, reduction)
	// The losing writer defers to the winner's record and never restates
	// the payable amount itself.
	ds.AssertNotCalled(t, "UpdateNoticePayable")
	ds.AssertExpectations(t)
}

func TestGetReductionUnknownReceipt(t *testing.T) {
	ds := new(mocks.MockDataSource)
	service := NewReductionService(ds)

	ds.On("GetReductionByReceipt", mock.Anything, "RCPT404").Return(nil, nil)

	_, err := service.GetReduction(context.Background(), "RCPT404")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}
