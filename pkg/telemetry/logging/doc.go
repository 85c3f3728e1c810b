// Package logging builds the structured loggers used across irvm.
//
// # Overview
//
// The package wraps Go's log/slog package to provide:
//   - JSON, text, and console output formats
//   - Redaction of sensitive attributes and values
//   - Context-aware records carrying evaluation fields and trace IDs
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//
//	ctx = logging.WithPlan(ctx, "authz/allow")
//	logger.InfoContext(ctx, "evaluation finished", "results", 1)
//	// ... plan=authz/allow trace_id=... span_id=...
//
// # Redaction
//
// With redaction enabled, attributes named input, data, password, secret,
// token, authorization or api_key are replaced with [REDACTED], and bearer
// tokens, password assignments, API key assignments and email addresses are
// masked inside any string value.
package logging
