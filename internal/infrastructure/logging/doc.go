// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON lines for log shippers
//   - Development: coloured console output
//
// Components never construct their own loggers. They receive a *zap.Logger,
// usually a named child from Logger.Component, and attach fields such as
// workspace_id and request_id.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	defer logger.Close()
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
