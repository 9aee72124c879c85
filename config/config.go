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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5401"

	defaultMinWithdrawal = "10.00"
	defaultMaxWithdrawal = "5000.00"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"ATMCONNECT_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"ATMCONNECT_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"ATMCONNECT_SERVER_SECRET_KEY"`
	Port      string `json:"port" envconfig:"ATMCONNECT_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"ATMCONNECT_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"ATMCONNECT_REDIS_DNS"`
}

// SecurityConfig carries the tunables of the credential-security state
// machine. The lockout policy itself (3 strikes, 30 minutes) is fixed in the
// model; these bound the transaction side.
type SecurityConfig struct {
	MinWithdrawal string `json:"min_withdrawal" envconfig:"ATMCONNECT_MIN_WITHDRAWAL"`
	MaxWithdrawal string `json:"max_withdrawal" envconfig:"ATMCONNECT_MAX_WITHDRAWAL"`
}

type MonitorConfig struct {
	WebhookUrl string            `json:"webhook_url" envconfig:"ATMCONNECT_MONITOR_WEBHOOK_URL"`
	Headers    map[string]string `json:"headers"`
}

type NotificationConfig struct {
	WebhookUrl string            `json:"webhook_url" envconfig:"ATMCONNECT_NOTIFICATION_WEBHOOK_URL"`
	Headers    map[string]string `json:"headers"`
}

type Configuration struct {
	ProjectName  string             `json:"project_name" envconfig:"ATMCONNECT_PROJECT_NAME"`
	Server       ServerConfig       `json:"server"`
	DataSource   DataSourceConfig   `json:"data_source"`
	Redis        RedisConfig        `json:"redis"`
	Security     SecurityConfig     `json:"security"`
	Monitor      MonitorConfig      `json:"monitor"`
	Notification NotificationConfig `json:"notification"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer func() {
			if err := f.Close(); err != nil {
				logrus.Error(err)
			}
		}()
		if err := json.NewDecoder(f).Decode(&cnf); err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	if err := envconfig.Process("atmconnect", &cnf); err != nil {
		return err
	}

	if err := cnf.validateAndAddDefaults(); err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return nil
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded. Create a json file called atmconnect.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "ATMConnect Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Security.MinWithdrawal == "" {
		cnf.Security.MinWithdrawal = defaultMinWithdrawal
	}
	if cnf.Security.MaxWithdrawal == "" {
		cnf.Security.MaxWithdrawal = defaultMaxWithdrawal
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
