package config

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3100"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	// APIKey guards the RPC API when set. The web pages stay open.
	APIKey string `envconfig:"API_KEY"`
}

type PlannerEnv struct {
	URL     string        `envconfig:"PLANNER_URL" default:"http://127.0.0.1:8000/api/v1/plans"`
	Token   string        `envconfig:"PLANNER_TOKEN"`
	Timeout time.Duration `envconfig:"PLANNER_TIMEOUT" default:"60s"`
	UserID  string        `envconfig:"USER_ID" default:"smartplanner-user"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".smartplanner/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket   string `envconfig:"S3_BUCKET"`
	S3Prefix   string `envconfig:"S3_PREFIX" default:"smartplanner/"`
	S3Region   string `envconfig:"S3_REGION" default:"ap-northeast-1"`
	S3Endpoint string `envconfig:"S3_ENDPOINT"`
}

type CalendarEnv struct {
	CredentialsFile string `envconfig:"GOOGLE_CREDENTIALS_FILE"`
	CalendarID      string `envconfig:"CALENDAR_ID" default:"primary"`
}

type Env struct {
	BaseEnv
	PlannerEnv
	StorageEnv
	CalendarEnv
}

const namespace = "SMARTPLANNER"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func (e *BaseEnv) Addr() string {
	return net.JoinHostPort(e.HTTPHost, e.HTTPPort)
}
