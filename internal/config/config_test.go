package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Monitoring: MonitoringConfig{
			Cron:      "* * * * *",
			WeekStart: "sunday",
		},
		Recording: RecordingConfig{DefaultStatus: "pending"},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestWeekStartDay(t *testing.T) {
	cfg := validConfig()

	cfg.Monitoring.WeekStart = "Monday"
	day, err := cfg.Monitoring.WeekStartDay()
	if err != nil {
		t.Fatalf("week start day: %v", err)
	}
	if day != time.Monday {
		t.Fatalf("week start day = %v, want Monday", day)
	}

	cfg.Monitoring.WeekStart = "someday"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown weekday name")
	}
}

func TestValidateRejectsEmptyCron(t *testing.T) {
	cfg := validConfig()
	cfg.Monitoring.Cron = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty cron spec")
	}
}

func TestLocationDefaultsToUTC(t *testing.T) {
	cfg := validConfig()
	loc, err := cfg.Monitoring.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc != time.UTC {
		t.Fatalf("location = %v, want UTC", loc)
	}

	cfg.Monitoring.Timezone = "Asia/Manila"
	if _, err := cfg.Monitoring.Location(); err != nil {
		t.Fatalf("location for Asia/Manila: %v", err)
	}
}
