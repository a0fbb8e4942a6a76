package providers

import "github.com/sirupsen/logrus"

// newAdapterLogger builds the structured logger shared by provider adapters.
// JSON output keeps request/latency fields machine-parseable even in dev.
func newAdapterLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	return logger
}
