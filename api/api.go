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
	"github.com/gin-gonic/gin"

	"github.com/ocmsproject/ocms"
	"github.com/ocmsproject/ocms/api/middleware"
	"github.com/ocmsproject/ocms/config"
	"github.com/ocmsproject/ocms/internal/apierror"
)

type Api struct {
	ocms   *ocms.Ocms
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/jobs/trigger/:name", a.TriggerJob)
	router.GET("/jobs/history/:name", a.GetJobHistory)
	router.GET("/jobs/runs/:request_id", a.GetJobRun)
	router.POST("/jobs/callback", a.JobCallback)

	router.POST("/suspensions", a.CreateSuspension)

	router.POST("/reductions", a.CreateReduction)
	router.GET("/reductions/:receipt_no", a.GetReduction)

	router.GET("/furnish-applications/:id", a.GetFurnishApplication)
	router.POST("/furnish-applications/:id/approve", a.ApproveFurnishApplication)
	router.POST("/furnish-applications/:id/reject", a.RejectFurnishApplication)

	return a.router
}

func NewAPI(o *ocms.Ocms) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{ocms: o, router: r}
}

// respondError writes an error using the shared taxonomy mapping.
// Business rule refusals travel as 200 with the refusal in the body.
func respondError(c *gin.Context, err error) {
	status := apierror.MapErrorToHTTPStatus(err)
	if apiErr, ok := err.(apierror.APIError); ok {
		c.JSON(status, gin.H{"error": apiErr.Message, "code": apiErr.Code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
