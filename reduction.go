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

	"github.com/shopspring/decimal"

	"github.com/ocmsproject/ocms/database"
	"github.com/ocmsproject/ocms/internal/apierror"
	"github.com/ocmsproject/ocms/model"
)

// ReductionRequest carries a receipted composition amount reduction.
// AmountReduced is the discount taken off; NewAmountPayable is what the
// notice settles at afterwards. SuspensionSource names the channel the
// reduction arrived through and is stamped on the companion hold.
type ReductionRequest struct {
	NoticeNo         string
	ReceiptNo        string
	AmountReduced    decimal.Decimal
	NewAmountPayable decimal.Decimal
	ReductionDate    time.Time
	ExpiryDate       time.Time
	Reason           string
	SuspensionSource string
	ApprovedBy       string
}

// ReductionService applies eligibility-checked amount reductions. A
// reduction is keyed by its receipt, so replaying the same receipt is a
// no-op that returns the original record.
type ReductionService struct {
	datasource database.IDataSource
}

func NewReductionService(ds database.IDataSource) *ReductionService {
	return &ReductionService{datasource: ds}
}

// CreateReductionIfAbsent records a reduction unless one already exists
// for the receipt. The returned bool reports whether a new record was
// created. The reduction lands together with its processing hold: a
// temporary suspension sharing the same serial number, so the notice sits
// out the reminder chain while the reduced amount is settled.
func (s *ReductionService) CreateReductionIfAbsent(ctx context.Context, req ReductionRequest) (*model.Reduction, bool, error) {
	existing, err := s.datasource.GetReductionByReceipt(ctx, req.ReceiptNo)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	notice, err := s.datasource.GetNotice(ctx, req.NoticeNo)
	if err != nil {
		return nil, false, err
	}

	if !model.ReductionEligible(notice.RuleCode, notice.ProcessingStage) {
		return nil, false, apierror.NewBusinessError(
			fmt.Sprintf("notice %s with rule %s is not eligible for reduction at stage %s",
				notice.NoticeNo, notice.RuleCode, notice.ProcessingStage), nil)
	}
	if notice.SuspensionType == model.SuspensionPermanent {
		return nil, false, apierror.NewBusinessError(
			fmt.Sprintf("notice %s is permanently suspended", notice.NoticeNo), nil)
	}
	if req.NewAmountPayable.GreaterThanOrEqual(notice.AmountPayable) {
		return nil, false, apierror.NewAPIError(apierror.ErrInvalidInput,
			"new amount payable must be lower than the current amount payable", nil)
	}
	if req.NewAmountPayable.IsNegative() {
		return nil, false, apierror.NewAPIError(apierror.ErrInvalidInput,
			"new amount payable cannot be negative", nil)
	}

	srNo, err := s.datasource.NextSuspensionSrNo(ctx, req.NoticeNo)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	reductionDate := req.ReductionDate
	if reductionDate.IsZero() {
		reductionDate = now
	}
	source := req.SuspensionSource
	if source == "" {
		source = model.SourceOCMS
	}
	reduction := model.Reduction{
		ReductionID:      model.ReductionID(req.ReceiptNo),
		NoticeNo:         req.NoticeNo,
		SrNo:             srNo,
		ReceiptNo:        req.ReceiptNo,
		ReductionDate:    reductionDate,
		OriginalAmount:   notice.AmountPayable,
		AmountReduced:    req.AmountReduced,
		NewAmountPayable: req.NewAmountPayable,
		Reason:           req.Reason,
		ExpiryDate:       req.ExpiryDate,
		SuspensionSource: source,
		ApprovedBy:       req.ApprovedBy,
		CreatedAt:        now,
	}
	suspension := model.Suspension{
		NoticeNo:     req.NoticeNo,
		SrNo:         srNo,
		Type:         model.SuspensionTemporary,
		ReasonCode:   model.ReasonReduction,
		Remarks:      "reduction " + reduction.ReductionID,
		Source:       source,
		SuspendedAt:  now,
		RevivalDueAt: now.AddDate(0, 0, model.RevivalDaysFor(model.ReasonReduction)),
		CreatedBy:    req.ApprovedBy,
	}

	if err := s.datasource.CreateReductionWithSuspension(ctx, &reduction, &suspension); err != nil {
		// A concurrent writer won the receipt. Their record is the answer.
		if hasCode(err, apierror.ErrConflict) {
			won, lookupErr := s.datasource.GetReductionByReceipt(ctx, req.ReceiptNo)
			if lookupErr == nil && won != nil {
				return won, false, nil
			}
		}
		return nil, false, err
	}

	// The reduction row is the record of truth for the restated amount; a
	// failure here is retried by reading it back, not by re-creating it.
	if err := s.datasource.UpdateNoticePayable(ctx, req.NoticeNo, reduction.NewAmountPayable, req.ApprovedBy); err != nil {
		return nil, false, err
	}
	return &reduction, true, nil
}

// GetReduction looks a reduction up by receipt number.
func (s *ReductionService) GetReduction(ctx context.Context, receiptNo string) (*model.Reduction, error) {
	reduction, err := s.datasource.GetReductionByReceipt(ctx, receiptNo)
	if err != nil {
		return nil, err
	}
	if reduction == nil {
		return nil, apierror.NewAPIError(apierror.ErrNotFound,
			fmt.Sprintf("No reduction found for receipt %s", receiptNo), nil)
	}
	return reduction, nil
}

func hasCode(err error, code apierror.ErrorCode) bool {
	apiErr, ok := err.(apierror.APIError)
	return ok && apiErr.Code == code
}
