package config

import "testing"

func TestParseCSV(t *testing.T) {
	got := parseCSV("a, b, ,c,,")
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected values: %#v", got)
	}
}

func TestParseAnyList(t *testing.T) {
	raw := []any{"x", " ", "y", 7}
	got := parseAnyList(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0] != "x" || got[1] != "y" {
		t.Fatalf("unexpected values: %#v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, problems := Load("test-service", 9000)
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %#v", problems)
	}
	if cfg.ServiceName != "test-service" {
		t.Fatalf("unexpected service name: %s", cfg.ServiceName)
	}
	if cfg.HTTPPort != 9000 {
		t.Fatalf("unexpected port: %d", cfg.HTTPPort)
	}
	if cfg.OrderEventsTopic != "order-events" || cfg.InventoryEventsTopic != "inventory-events" {
		t.Fatalf("unexpected topics: %s %s", cfg.OrderEventsTopic, cfg.InventoryEventsTopic)
	}
	if cfg.Env != "dev" {
		t.Fatalf("unexpected env: %s", cfg.Env)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "8123")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("ASYNQ_ENABLED", "true")
	t.Setenv("RETURN_RETRY_MAX", "5")

	cfg, problems := Load("test-service", 9000)
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %#v", problems)
	}
	if cfg.HTTPPort != 8123 {
		t.Fatalf("unexpected port: %d", cfg.HTTPPort)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "k1:9092" {
		t.Fatalf("unexpected brokers: %#v", cfg.KafkaBrokers)
	}
	if !cfg.AsynqEnabled {
		t.Fatal("expected asynq enabled")
	}
	if cfg.ReturnRetryMax != 5 {
		t.Fatalf("unexpected retry max: %d", cfg.ReturnRetryMax)
	}
}

func TestLoadCollectsProblems(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")
	t.Setenv("REDIS_DB", "x")

	cfg, problems := Load("test-service", 9000)
	if len(problems) != 2 {
		t.Fatalf("expected 2 problems, got %#v", problems)
	}
	if cfg.HTTPPort != 9000 {
		t.Fatalf("expected fallback port, got %d", cfg.HTTPPort)
	}
}
