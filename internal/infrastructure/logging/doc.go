// Package logging builds the root zap logger.
//
// Production output is sampled JSON; development output is coloured console
// text. Subsystems get a named child via Component and log with structured
// fields such as session_id and view_id. OrNop lets constructors accept nil.
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	bridgeLog := logging.Component(logger.Logger, "bridge")
//	bridgeLog.Info("Session created", zap.String("session_id", id))
package logging
