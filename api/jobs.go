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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ocmsproject/ocms"
	model2 "github.com/ocmsproject/ocms/api/model"
)

// TriggerJob enqueues an asynchronous run of the named job and returns
// the request id clients poll the outcome with.
func (a Api) TriggerJob(c *gin.Context) {
	name, passed := c.Params.Get("name")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job name is required. pass name in the route /:name"})
		return
	}

	requestID, err := a.ocms.TriggerJob(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"request_id": requestID, "job_name": name})
}

// GetJobRun reports the outcome of a triggered run. Pending runs return
// 202 so clients keep polling.
func (a Api) GetJobRun(c *gin.Context) {
	requestID, passed := c.Params.Get("request_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_id is required. pass id in the route /:request_id"})
		return
	}

	token, done, err := a.ocms.Callbacks().Fetch(c.Request.Context(), requestID)
	if errors.Is(err, ocms.ErrUnknownRequest) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if !done {
		c.JSON(http.StatusAccepted, gin.H{"request_id": requestID, "status": "pending"})
		return
	}

	var result ocms.JobResult
	if err := json.Unmarshal([]byte(token), &result); err != nil {
		// Token came from an external agency, not the worker. Return it raw.
		c.JSON(http.StatusOK, gin.H{"request_id": requestID, "token": token})
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_id": requestID, "result": result})
}

func (a Api) GetJobHistory(c *gin.Context) {
	name, passed := c.Params.Get("name")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job name is required. pass name in the route /:name"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	executions, err := a.ocms.JobHistory(c.Request.Context(), name, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, executions)
}

// JobCallback lets an external agency deliver an outcome token against a
// pending request window.
func (a Api) JobCallback(c *gin.Context) {
	var callback model2.JobCallback
	if err := c.ShouldBindJSON(&callback); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := callback.ValidateJobCallback(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	err := a.ocms.Callbacks().Complete(c.Request.Context(), callback.RequestID, callback.Token)
	if errors.Is(err, ocms.ErrUnknownRequest) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request_id": callback.RequestID, "status": "completed"})
}
