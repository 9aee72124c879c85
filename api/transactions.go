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
	"github.com/ArcInTower/atmconnect/model"
)

// InitiateWithdrawal creates a PENDING withdrawal after the full pre-flight.
// It binds the incoming JSON request, validates it, and hands the first phase
// to the service. The OTP reaches the customer out of band, never in the
// response.
//
// Responses:
// - 400 Bad Request: If there's an error in binding JSON or validating the request.
// - 201 Created: If the transaction is successfully created.
func (a Api) InitiateWithdrawal(c *gin.Context) {
	var withdrawal model2.InitiateWithdrawal
	if err := c.ShouldBindJSON(&withdrawal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := withdrawal.ValidateInitiateWithdrawal(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	amount, err := model.NewMoneyFromString(withdrawal.Amount, withdrawal.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.atmconnect.InitiateWithdrawal(c.Request.Context(),
		withdrawal.AccountID, withdrawal.AtmID, withdrawal.DeviceID, amount)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// InitiateTransfer creates a PENDING transfer to another account.
func (a Api) InitiateTransfer(c *gin.Context) {
	var transfer model2.InitiateTransfer
	if err := c.ShouldBindJSON(&transfer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := transfer.ValidateInitiateTransfer(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	amount, err := model.NewMoneyFromString(transfer.Amount, transfer.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.atmconnect.InitiateTransfer(c.Request.Context(),
		transfer.AccountID, transfer.DestinationAccountNumber, transfer.DeviceID, amount)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// BalanceInquiry runs the one flow with no OTP gate and returns the balance
// immediately.
func (a Api) BalanceInquiry(c *gin.Context) {
	var inquiry model2.BalanceInquiry
	if err := c.ShouldBindJSON(&inquiry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := inquiry.ValidateBalanceInquiry(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	txn, balance, err := a.atmconnect.RequestBalanceInquiry(c.Request.Context(), inquiry.AccountID, inquiry.DeviceID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": txn, "balance": balance.String()})
}

// InitiatePinChange creates an OTP-gated PIN change transaction.
func (a Api) InitiatePinChange(c *gin.Context) {
	var change model2.InitiatePinChange
	if err := c.ShouldBindJSON(&change); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := change.ValidateInitiatePinChange(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.atmconnect.InitiatePinChange(c.Request.Context(), change.AccountID, change.DeviceID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CompleteTransaction confirms a PENDING transaction with its OTP and applies
// the financial mutation.
//
// Responses:
// - 400 Bad Request: If there's an error in binding JSON or validating the request.
// - 401 Unauthorized: If the OTP does not match.
// - 409 Conflict: If the transaction was already processed.
// - 410 Gone: If the confirmation window has expired.
// - 200 OK: If the transaction is completed.
func (a Api) CompleteTransaction(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	var completion model2.CompleteTransaction
	if err := c.ShouldBindJSON(&completion); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := completion.ValidateCompleteTransaction(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.atmconnect.CompleteTransaction(c.Request.Context(), id, completion.Otp)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CompletePinChange confirms a PIN change transaction and swaps the PIN
// material.
func (a Api) CompletePinChange(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	var completion model2.CompletePinChange
	if err := c.ShouldBindJSON(&completion); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := completion.ValidateCompletePinChange(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.atmconnect.CompletePinChange(c.Request.Context(), id, completion.Otp, completion.NewPin)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CancelTransaction cancels a still-PENDING transaction. The request must
// name a device registered to the account's owning customer.
func (a Api) CancelTransaction(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	var cancellation model2.CancelTransaction
	if err := c.ShouldBindJSON(&cancellation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := cancellation.ValidateCancelTransaction(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.atmconnect.CancelTransaction(c.Request.Context(), id, cancellation.DeviceID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a Api) GetTransaction(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	resp, err := a.atmconnect.GetTransaction(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a Api) GetTransactionByRef(c *gin.Context) {
	reference, passed := c.Params.Get("reference")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required. pass reference in the route /:reference"})
		return
	}

	resp, err := a.atmconnect.GetTransactionByRef(c.Request.Context(), reference)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetPendingTransactions lists an account's transactions still awaiting OTP
// confirmation.
func (a Api) GetPendingTransactions(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	resp, err := a.atmconnect.GetPendingTransactions(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}
