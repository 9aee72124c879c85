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
	"github.com/gin-gonic/gin"

	"github.com/ArcInTower/atmconnect"
	"github.com/ArcInTower/atmconnect/api/middleware"
	"github.com/ArcInTower/atmconnect/config"
)

type Api struct {
	atmconnect *atmconnect.Atmconnect
	router     *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/customers", a.CreateCustomer)
	router.GET("/customers/:id", a.GetCustomer)
	router.POST("/customers/:id/devices", a.RegisterDevice)

	router.POST("/accounts", a.CreateAccount)
	router.GET("/accounts/:id", a.GetAccount)
	router.GET("/customers/:id/accounts", a.GetCustomerAccounts)

	router.POST("/auth/authenticate", a.Authenticate)
	router.POST("/auth/challenge", a.RequestChallenge)

	router.POST("/transactions/withdrawal", a.InitiateWithdrawal)
	router.POST("/transactions/transfer", a.InitiateTransfer)
	router.POST("/transactions/balance-inquiry", a.BalanceInquiry)
	router.POST("/transactions/pin-change", a.InitiatePinChange)
	router.POST("/transactions/:id/complete", a.CompleteTransaction)
	router.POST("/transactions/:id/complete-pin-change", a.CompletePinChange)
	router.POST("/transactions/:id/cancel", a.CancelTransaction)
	router.GET("/transactions/:id", a.GetTransaction)
	router.GET("/transactions/ref/:reference", a.GetTransactionByRef)
	router.GET("/accounts/:id/transactions/pending", a.GetPendingTransactions)

	router.POST("/atms", a.RegisterATM)
	router.GET("/atms/:id", a.GetATM)
	router.POST("/atms/:id/heartbeat", a.Heartbeat)

	return a.router
}

func NewAPI(service *atmconnect.Atmconnect) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{atmconnect: service, router: r}
}
