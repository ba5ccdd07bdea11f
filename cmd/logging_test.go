package cmd

import (
	"testing"

	"github.com/vibast-solutions/ms-go-console/config"

	"github.com/sirupsen/logrus"
)

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.JSONFormatter{})
	})

	if err := configureLogging(&config.Config{Log: config.LogConfig{Level: "debug", Format: "text"}}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", logrus.GetLevel())
	}
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("expected text formatter")
	}

	if err := configureLogging(&config.Config{Log: config.LogConfig{Level: "loud"}}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
