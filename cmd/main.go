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

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ArcInTower/atmconnect"
	"github.com/ArcInTower/atmconnect/config"
	"github.com/ArcInTower/atmconnect/database"
	"github.com/ArcInTower/atmconnect/internal/notification"
)

// Atmconnect represents the CLI application, encapsulating the root Cobra
// command.
type Atmconnect struct {
	cmd *cobra.Command
}

// atmconnectInstance holds the service instance and its configuration for the
// lifetime of a command.
type atmconnectInstance struct {
	service *atmconnect.Atmconnect
	cnf     *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and initializes the service before running
// any command.
func preRun(app *atmconnectInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("atmconnect.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		service, err := setupService(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.service = service
		app.cnf = cnf
		return nil
	}
}

func setupService(cfg *config.Configuration) (*atmconnect.Atmconnect, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}
	service, err := atmconnect.NewAtmconnect(db)
	if err != nil {
		return nil, fmt.Errorf("error creating atmconnect: %v", err)
	}
	return service, nil
}

// NewCLI creates the command-line interface for the atmconnect server.
func NewCLI() *Atmconnect {
	var configFile string
	b := &atmconnectInstance{}

	var rootCmd = &cobra.Command{
		Use:   "atmconnect",
		Short: "Mobile to ATM transaction authorization server",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./atmconnect.json", "Configuration file for atmconnect")
	rootCmd.PersistentPreRunE = preRun(b)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(workerCommands())

	return &Atmconnect{cmd: rootCmd}
}

func (a *Atmconnect) executeCLI() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()
	cli := NewCLI()
	cli.executeCLI()
}
