package config

import (
	"fmt"
	"strings"
	"testing"
)

func TestRedactedHidesRedisPassword(t *testing.T) {
	cfg := &Config{}
	cfg.Redis = Redis{Addr: "redis:6379", Password: "hunter2", DB: 1}

	got := cfg.Redacted()
	if strings.Contains(fmt.Sprintf("%+v", got), "hunter2") {
		t.Errorf("Redacted() still prints the password: %+v", got)
	}
	if got.Redis.Addr != "redis:6379" || got.Redis.DB != 1 {
		t.Errorf("Redacted() changed other fields: %+v", got.Redis)
	}
	if cfg.Redis.Password != "hunter2" {
		t.Error("Redacted() modified the original config")
	}
}

func TestRedactedKeepsEmptyPassword(t *testing.T) {
	if got := (Config{}).Redacted(); got.Redis.Password != "" {
		t.Errorf("Redis.Password = %q, want empty", got.Redis.Password)
	}
}
