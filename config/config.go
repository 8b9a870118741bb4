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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5001"

	// Lease holds for scheduled jobs. The minimum hold keeps a lease alive
	// across clock drift between nodes; the maximum hold caps how long a
	// crashed run can block the next one.
	DefaultLeaseMinHold = 5 * time.Minute
	DefaultLeaseMaxHold = 30 * time.Minute

	DefaultSyncBatchSize = 500
	DefaultJobQueue      = "jobs"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	Secure    bool   `json:"secure" envconfig:"OCMS_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"OCMS_SERVER_SECRET_KEY"`
	Port      string `json:"port" envconfig:"OCMS_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"OCMS_REDIS_DNS"`
}

// JobsConfig carries the scheduling surface: one cron expression per job,
// shared lease holds and the queue jobs are dispatched on. Empty cron
// fields disable the periodic trigger; manual triggering stays available.
type JobsConfig struct {
	Queue            string `json:"queue" envconfig:"OCMS_JOBS_QUEUE"`
	LeaseMinHoldMins int    `json:"lease_min_hold_mins" envconfig:"OCMS_JOBS_LEASE_MIN_HOLD_MINS"`
	LeaseMaxHoldMins int    `json:"lease_max_hold_mins" envconfig:"OCMS_JOBS_LEASE_MAX_HOLD_MINS"`
	AutoRevivalCron  string `json:"auto_revival_cron" envconfig:"OCMS_JOBS_AUTO_REVIVAL_CRON"`
	StageAdvanceCron string `json:"stage_advance_cron" envconfig:"OCMS_JOBS_STAGE_ADVANCE_CRON"`
	FurnishCron      string `json:"furnish_cron" envconfig:"OCMS_JOBS_FURNISH_CRON"`
	SyncCron         string `json:"sync_cron" envconfig:"OCMS_JOBS_SYNC_CRON"`
}

// LeaseMinHold returns the configured minimum lease hold.
func (j JobsConfig) LeaseMinHold() time.Duration {
	return time.Duration(j.LeaseMinHoldMins) * time.Minute
}

// LeaseMaxHold returns the configured maximum lease hold.
func (j JobsConfig) LeaseMaxHold() time.Duration {
	return time.Duration(j.LeaseMaxHoldMins) * time.Minute
}

type SyncConfig struct {
	BatchSize int `json:"batch_size" envconfig:"OCMS_SYNC_BATCH_SIZE"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"OCMS_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"OCMS_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"OCMS_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url" envconfig:"OCMS_SLACK_WEBHOOK_URL"`
}

// GatewayConfig points at the agency messaging gateway used for owner
// notifications on furnish decisions.
type GatewayConfig struct {
	EmailUrl string `json:"email_url" envconfig:"OCMS_GATEWAY_EMAIL_URL"`
	SmsUrl   string `json:"sms_url" envconfig:"OCMS_GATEWAY_SMS_URL"`
}

type Notification struct {
	Slack   SlackWebhook  `json:"slack"`
	Gateway GatewayConfig `json:"gateway"`
}

type Configuration struct {
	ProjectName        string           `json:"project_name" envconfig:"OCMS_PROJECT_NAME"`
	Server             ServerConfig     `json:"server"`
	IntranetDataSource DataSourceConfig `json:"intranet_data_source" envconfig:"OCMS_INTRANET_DATA_SOURCE"`
	InternetDataSource DataSourceConfig `json:"internet_data_source" envconfig:"OCMS_INTERNET_DATA_SOURCE"`
	Redis              RedisConfig      `json:"redis"`
	Jobs               JobsConfig       `json:"jobs"`
	Sync               SyncConfig       `json:"sync"`
	Notification       Notification     `json:"notification"`
	RateLimit          RateLimitConfig  `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("ocms", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called ocms.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "OCMS Server"
	}

	if cnf.IntranetDataSource.Dns == "" {
		log.Println("Error: Intranet data source DNS is empty. It's a required field.")
		return errors.New("intranet data source DNS is required")
	}

	if cnf.InternetDataSource.Dns == "" {
		log.Println("Error: Internet data source DNS is empty. It's a required field.")
		return errors.New("internet data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.IntranetDataSource.Dns = strings.TrimSpace(cnf.IntranetDataSource.Dns)
	cnf.InternetDataSource.Dns = strings.TrimSpace(cnf.InternetDataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Jobs.Queue == "" {
		cnf.Jobs.Queue = DefaultJobQueue
	}
	if cnf.Jobs.LeaseMinHoldMins <= 0 {
		cnf.Jobs.LeaseMinHoldMins = int(DefaultLeaseMinHold / time.Minute)
	}
	if cnf.Jobs.LeaseMaxHoldMins <= 0 {
		cnf.Jobs.LeaseMaxHoldMins = int(DefaultLeaseMaxHold / time.Minute)
	}
	if cnf.Jobs.LeaseMaxHoldMins < cnf.Jobs.LeaseMinHoldMins {
		log.Printf("Warning: lease max hold below min hold. Raising max hold to %d minutes", cnf.Jobs.LeaseMinHoldMins)
		cnf.Jobs.LeaseMaxHoldMins = cnf.Jobs.LeaseMinHoldMins
	}

	if cnf.Sync.BatchSize <= 0 {
		cnf.Sync.BatchSize = DefaultSyncBatchSize
	}

	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
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
