/*
Copyright 2025 ATMConnect Authors.

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

	model2 "github.com/ArcInTower/atmconnect/api/model"
	"github.com/ArcInTower/atmconnect/internal/apierror"
)

// Authenticate runs one authentication attempt through the strategy
// dispatcher. The response carries the tagged outcome; a failed attempt is
// still a 200 so the reason tag and retry hint reach the client intact.
//
// Responses:
// - 400 Bad Request: If there's an error in binding JSON or validating the request.
// - 200 OK: The attempt ran; success or failure is in the body.
func (a Api) Authenticate(c *gin.Context) {
	var attempt model2.Authenticate
	if err := c.ShouldBindJSON(&attempt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := attempt.ValidateAuthenticate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	result, err := a.atmconnect.Authenticate(c.Request.Context(), attempt.ToCredentials())
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     result.Success,
		"customer_id": result.CustomerID,
		"session_id":  result.SessionID,
		"reason":      result.Reason,
		"message":     result.Message,
		"can_retry":   !result.Success && result.Reason.AllowsRetry(),
	})
}

// RequestChallenge mints a multi-factor OTP for a customer and queues its
// out-of-band delivery. The OTP is never in the response.
func (a Api) RequestChallenge(c *gin.Context) {
	var req model2.RequestChallenge
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := req.ValidateRequestChallenge(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := a.atmconnect.RequestAuthChallenge(c.Request.Context(), req.IdentityNumber); err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "challenge issued"})
}
