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
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ocmsproject/ocms"
	model2 "github.com/ocmsproject/ocms/api/model"
)

func (a Api) CreateSuspension(c *gin.Context) {
	var newSuspension model2.CreateSuspension
	if err := c.ShouldBindJSON(&newSuspension); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := newSuspension.ValidateCreateSuspension(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.ocms.Suspensions().CreateSuspension(c.Request.Context(),
		newSuspension.NoticeNo, newSuspension.SuspensionType, newSuspension.ReasonCode,
		newSuspension.Remarks, newSuspension.Source, newSuspension.CreatedBy)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (a Api) CreateReduction(c *gin.Context) {
	var newReduction model2.CreateReduction
	if err := c.ShouldBindJSON(&newReduction); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := newReduction.ValidateCreateReduction(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	reduction, created, err := a.ocms.Reductions().CreateReductionIfAbsent(c.Request.Context(), ocms.ReductionRequest{
		NoticeNo:         newReduction.NoticeNo,
		ReceiptNo:        newReduction.ReceiptNo,
		AmountReduced:    newReduction.AmountReduced,
		NewAmountPayable: newReduction.AmountPayable,
		ReductionDate:    newReduction.DateOfReduction,
		ExpiryDate:       newReduction.ExpiryDate,
		Reason:           newReduction.ReasonOfReduction,
		SuspensionSource: newReduction.SuspensionSource,
		ApprovedBy:       newReduction.ApprovedBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if !created {
		// Replayed receipt: the original record answers the request.
		c.JSON(http.StatusOK, reduction)
		return
	}
	c.JSON(http.StatusCreated, reduction)
}

func (a Api) GetReduction(c *gin.Context) {
	receiptNo, passed := c.Params.Get("receipt_no")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receipt_no is required. pass it in the route /:receipt_no"})
		return
	}

	reduction, err := a.ocms.Reductions().GetReduction(c.Request.Context(), receiptNo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reduction)
}

func (a Api) GetFurnishApplication(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	application, err := a.ocms.Furnish().GetApplication(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, application)
}

func (a Api) ApproveFurnishApplication(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	var decision model2.DecideFurnish
	if err := c.ShouldBindJSON(&decision); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := decision.ValidateApprove(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	outcome, err := a.ocms.Furnish().ApproveApplication(c.Request.Context(), id, decision.ProcessedBy,
		ocms.NotificationPrefs{Email: decision.NotifyByEmail, SMS: decision.NotifyBySMS})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

func (a Api) RejectFurnishApplication(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	var decision model2.DecideFurnish
	if err := c.ShouldBindJSON(&decision); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := decision.ValidateReject(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	outcome, err := a.ocms.Furnish().RejectApplication(c.Request.Context(), id, decision.Reason, decision.ProcessedBy,
		ocms.NotificationPrefs{Email: decision.NotifyByEmail, SMS: decision.NotifyBySMS})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}
