package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Config struct {
	Env              string
	ServiceName      string
	HTTPPort         int
	LogLevel         string
	ConfigPath       string
	RequestTimeoutMS int
	RequestTimeout   time.Duration

	DatabaseURL      string
	DBMaxConns       int
	DBMinConns       int
	DBConnMaxIdleSec int
	DBConnMaxLifeSec int

	KafkaBrokers  []string
	KafkaClientID string
	KafkaRetryMax int
	KafkaWriteMS  int

	OrderEventsTopic     string
	InventoryEventsTopic string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AsynqEnabled     bool
	AsynqRedisAddr   string
	AsynqRedisPass   string
	AsynqRedisDB     int
	AsynqQueue       string
	AsynqConcurrency int
	ReturnRetryMax   int

	OtelEnabled     bool
	OtelEndpoint    string
	OtelInsecure    bool
	OtelSampleRatio float64
}

// Load builds the configuration from an optional JSON config file and the
// environment, env winning over file. Validation failures are collected as
// problems rather than aborting, so a service can start degraded and report
// them on its readiness endpoint.
func Load(serviceNameDefault string, httpPortDefault int) (Config, []Problem) {
	cfg := Config{
		Env:                  strings.TrimSpace(os.Getenv("ENV")),
		ServiceName:          serviceNameDefault,
		HTTPPort:             httpPortDefault,
		LogLevel:             "info",
		ConfigPath:           strings.TrimSpace(os.Getenv("CONFIG_PATH")),
		RequestTimeoutMS:     30000,
		DBMaxConns:           10,
		DBMinConns:           1,
		DBConnMaxIdleSec:     300,
		DBConnMaxLifeSec:     1800,
		KafkaRetryMax:        5,
		KafkaWriteMS:         5000,
		OrderEventsTopic:     "order-events",
		InventoryEventsTopic: "inventory-events",
		AsynqQueue:           "default",
		AsynqConcurrency:     10,
		ReturnRetryMax:       20,
		OtelInsecure:         true,
		OtelSampleRatio:      1.0,
	}

	problems := make([]Problem, 0, 4)

	if fileData, fileProblems, ok := loadConfigFile(cfg.ConfigPath); ok {
		problems = append(problems, fileProblems...)
		applyConfigMap(&cfg, fileData, &problems)
	} else {
		problems = append(problems, fileProblems...)
	}

	applyEnv(&cfg, &problems)

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		problems = append(problems, Problem{Field: "HTTP_PORT", Message: "HTTP_PORT must be 1-65535"})
		cfg.HTTPPort = httpPortDefault
	}
	if cfg.RequestTimeoutMS <= 0 {
		problems = append(problems, Problem{Field: "REQUEST_TIMEOUT_MS", Message: "REQUEST_TIMEOUT_MS must be > 0"})
		cfg.RequestTimeoutMS = 30000
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	if cfg.DBMaxConns <= 0 {
		problems = append(problems, Problem{Field: "DB_MAX_CONNS", Message: "DB_MAX_CONNS must be > 0"})
		cfg.DBMaxConns = 10
	}
	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		problems = append(problems, Problem{Field: "DB_MIN_CONNS", Message: "DB_MIN_CONNS must be 0-DB_MAX_CONNS"})
		cfg.DBMinConns = 1
	}
	if cfg.KafkaRetryMax < 0 {
		problems = append(problems, Problem{Field: "KAFKA_RETRY_MAX", Message: "KAFKA_RETRY_MAX must be >= 0"})
		cfg.KafkaRetryMax = 5
	}
	if cfg.KafkaWriteMS <= 0 {
		problems = append(problems, Problem{Field: "KAFKA_WRITE_TIMEOUT_MS", Message: "KAFKA_WRITE_TIMEOUT_MS must be > 0"})
		cfg.KafkaWriteMS = 5000
	}
	if cfg.RedisDB < 0 {
		problems = append(problems, Problem{Field: "REDIS_DB", Message: "REDIS_DB must be >= 0"})
		cfg.RedisDB = 0
	}
	if cfg.AsynqConcurrency <= 0 {
		problems = append(problems, Problem{Field: "ASYNQ_CONCURRENCY", Message: "ASYNQ_CONCURRENCY must be > 0"})
		cfg.AsynqConcurrency = 10
	}
	if cfg.ReturnRetryMax <= 0 {
		problems = append(problems, Problem{Field: "RETURN_RETRY_MAX", Message: "RETURN_RETRY_MAX must be > 0"})
		cfg.ReturnRetryMax = 20
	}
	if cfg.OtelSampleRatio < 0 || cfg.OtelSampleRatio > 1 {
		problems = append(problems, Problem{Field: "OTEL_SAMPLE_RATIO", Message: "OTEL_SAMPLE_RATIO must be 0-1"})
		cfg.OtelSampleRatio = 1.0
	}

	return cfg, problems
}

func loadConfigFile(path string) (map[string]any, []Problem, bool) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, false
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, []Problem{{Field: "CONFIG_PATH", Message: "config file not found"}}, false
		}
		return nil, []Problem{{Field: "CONFIG_PATH", Message: fmt.Sprintf("failed to read config file: %v", err)}}, false
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, []Problem{{Field: "CONFIG_PATH", Message: fmt.Sprintf("invalid json: %v", err)}}, false
	}
	return raw, nil, true
}

func applyEnv(cfg *Config, problems *[]Problem) {
	setString := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				*problems = append(*problems, Problem{Field: name, Message: name + " must be an integer"})
				return
			}
			*dst = n
		}
	}
	setBool := func(name string, dst *bool) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			b, ok := asBool(v)
			if !ok {
				*problems = append(*problems, Problem{Field: name, Message: name + " must be a boolean"})
				return
			}
			*dst = b
		}
	}

	setString("SERVICE_NAME", &cfg.ServiceName)
	setString("LOG_LEVEL", &cfg.LogLevel)

	portRaw := strings.TrimSpace(os.Getenv("HTTP_PORT"))
	if portRaw == "" {
		portRaw = strings.TrimSpace(os.Getenv("PORT"))
	}
	if portRaw != "" {
		if p, err := strconv.Atoi(portRaw); err != nil || p <= 0 || p > 65535 {
			*problems = append(*problems, Problem{Field: "HTTP_PORT", Message: "HTTP_PORT must be 1-65535"})
		} else {
			cfg.HTTPPort = p
		}
	}

	setInt("REQUEST_TIMEOUT_MS", &cfg.RequestTimeoutMS)

	setString("DATABASE_URL", &cfg.DatabaseURL)
	setInt("DB_MAX_CONNS", &cfg.DBMaxConns)
	setInt("DB_MIN_CONNS", &cfg.DBMinConns)
	setInt("DB_CONN_MAX_IDLE_SECONDS", &cfg.DBConnMaxIdleSec)
	setInt("DB_CONN_MAX_LIFETIME_SECONDS", &cfg.DBConnMaxLifeSec)

	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		cfg.KafkaBrokers = parseCSV(v)
	}
	setString("KAFKA_CLIENT_ID", &cfg.KafkaClientID)
	setInt("KAFKA_RETRY_MAX", &cfg.KafkaRetryMax)
	setInt("KAFKA_WRITE_TIMEOUT_MS", &cfg.KafkaWriteMS)
	setString("ORDER_EVENTS_TOPIC", &cfg.OrderEventsTopic)
	setString("INVENTORY_EVENTS_TOPIC", &cfg.InventoryEventsTopic)

	setString("REDIS_ADDR", &cfg.RedisAddr)
	setString("REDIS_PASSWORD", &cfg.RedisPassword)
	setInt("REDIS_DB", &cfg.RedisDB)

	setBool("ASYNQ_ENABLED", &cfg.AsynqEnabled)
	setString("ASYNQ_REDIS_ADDR", &cfg.AsynqRedisAddr)
	setString("ASYNQ_REDIS_PASSWORD", &cfg.AsynqRedisPass)
	setInt("ASYNQ_REDIS_DB", &cfg.AsynqRedisDB)
	setString("ASYNQ_QUEUE", &cfg.AsynqQueue)
	setInt("ASYNQ_CONCURRENCY", &cfg.AsynqConcurrency)
	setInt("RETURN_RETRY_MAX", &cfg.ReturnRetryMax)

	setBool("OTEL_ENABLED", &cfg.OtelEnabled)
	setString("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.OtelEndpoint)
	setBool("OTEL_EXPORTER_OTLP_INSECURE", &cfg.OtelInsecure)
	if v := strings.TrimSpace(os.Getenv("OTEL_SAMPLE_RATIO")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err != nil {
			*problems = append(*problems, Problem{Field: "OTEL_SAMPLE_RATIO", Message: "OTEL_SAMPLE_RATIO must be a number"})
		} else {
			cfg.OtelSampleRatio = f
		}
	}
}

func applyConfigMap(cfg *Config, raw map[string]any, problems *[]Problem) {
	for k, v := range raw {
		key := strings.ToUpper(strings.TrimSpace(k))
		switch key {
		case "ENV", "SERVICE_NAME", "LOG_LEVEL", "DATABASE_URL", "KAFKA_CLIENT_ID",
			"ORDER_EVENTS_TOPIC", "INVENTORY_EVENTS_TOPIC", "REDIS_ADDR", "REDIS_PASSWORD",
			"ASYNQ_REDIS_ADDR", "ASYNQ_REDIS_PASSWORD", "ASYNQ_QUEUE",
			"OTEL_EXPORTER_OTLP_ENDPOINT":
			s, ok := v.(string)
			if !ok {
				*problems = append(*problems, Problem{Field: key, Message: key + " must be a string"})
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" && key != "ENV" {
				continue
			}
			switch key {
			case "ENV":
				cfg.Env = s
			case "SERVICE_NAME":
				cfg.ServiceName = s
			case "LOG_LEVEL":
				cfg.LogLevel = s
			case "DATABASE_URL":
				cfg.DatabaseURL = s
			case "KAFKA_CLIENT_ID":
				cfg.KafkaClientID = s
			case "ORDER_EVENTS_TOPIC":
				cfg.OrderEventsTopic = s
			case "INVENTORY_EVENTS_TOPIC":
				cfg.InventoryEventsTopic = s
			case "REDIS_ADDR":
				cfg.RedisAddr = s
			case "REDIS_PASSWORD":
				cfg.RedisPassword = s
			case "ASYNQ_REDIS_ADDR":
				cfg.AsynqRedisAddr = s
			case "ASYNQ_REDIS_PASSWORD":
				cfg.AsynqRedisPass = s
			case "ASYNQ_QUEUE":
				cfg.AsynqQueue = s
			case "OTEL_EXPORTER_OTLP_ENDPOINT":
				cfg.OtelEndpoint = s
			}
		case "HTTP_PORT", "REQUEST_TIMEOUT_MS", "DB_MAX_CONNS", "DB_MIN_CONNS",
			"DB_CONN_MAX_IDLE_SECONDS", "DB_CONN_MAX_LIFETIME_SECONDS",
			"KAFKA_RETRY_MAX", "KAFKA_WRITE_TIMEOUT_MS", "REDIS_DB",
			"ASYNQ_REDIS_DB", "ASYNQ_CONCURRENCY", "RETURN_RETRY_MAX":
			n, ok := asInt(v)
			if !ok {
				*problems = append(*problems, Problem{Field: key, Message: key + " must be an integer"})
				continue
			}
			switch key {
			case "HTTP_PORT":
				cfg.HTTPPort = n
			case "REQUEST_TIMEOUT_MS":
				cfg.RequestTimeoutMS = n
			case "DB_MAX_CONNS":
				cfg.DBMaxConns = n
			case "DB_MIN_CONNS":
				cfg.DBMinConns = n
			case "DB_CONN_MAX_IDLE_SECONDS":
				cfg.DBConnMaxIdleSec = n
			case "DB_CONN_MAX_LIFETIME_SECONDS":
				cfg.DBConnMaxLifeSec = n
			case "KAFKA_RETRY_MAX":
				cfg.KafkaRetryMax = n
			case "KAFKA_WRITE_TIMEOUT_MS":
				cfg.KafkaWriteMS = n
			case "REDIS_DB":
				cfg.RedisDB = n
			case "ASYNQ_REDIS_DB":
				cfg.AsynqRedisDB = n
			case "ASYNQ_CONCURRENCY":
				cfg.AsynqConcurrency = n
			case "RETURN_RETRY_MAX":
				cfg.ReturnRetryMax = n
			}
		case "KAFKA_BROKERS":
			switch t := v.(type) {
			case string:
				cfg.KafkaBrokers = parseCSV(t)
			case []any:
				cfg.KafkaBrokers = parseAnyList(t)
			default:
				*problems = append(*problems, Problem{Field: key, Message: "KAFKA_BROKERS must be a string or list"})
			}
		case "ASYNQ_ENABLED", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_INSECURE":
			b, ok := anyAsBool(v)
			if !ok {
				*problems = append(*problems, Problem{Field: key, Message: key + " must be a boolean"})
				continue
			}
			switch key {
			case "ASYNQ_ENABLED":
				cfg.AsynqEnabled = b
			case "OTEL_ENABLED":
				cfg.OtelEnabled = b
			case "OTEL_EXPORTER_OTLP_INSECURE":
				cfg.OtelInsecure = b
			}
		case "OTEL_SAMPLE_RATIO":
			if f, ok := asFloat(v); ok {
				cfg.OtelSampleRatio = f
			} else {
				*problems = append(*problems, Problem{Field: key, Message: "OTEL_SAMPLE_RATIO must be a number"})
			}
		}
	}
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		i, err := t.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		return i, err == nil
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "y":
		return true, true
	case "false", "0", "no", "n":
		return false, true
	default:
		return false, false
	}
}

func anyAsBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		return asBool(t)
	default:
		return false, false
	}
}

func parseCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseAnyList(raw []any) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
