/*
Package log provides structured logging for the tenant lifecycle manager
using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

The tenant lifecycle manager's logging system provides structured JSON logging with minimal overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent(base, "timer")              │          │
	│  │  - WithTenantID(base, "tenant-abc123")       │          │
	│  │  - WithModuleID(base, "mod-users-1.2.0")     │          │
	│  │  - WithJobID(base, "job-def456")             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "scheduler",                │          │
	│  │    "time": "2024-10-13T10:30:00Z",         │          │
	│  │    "message": "task scheduled"              │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  2024-10-13T10:30:00Z INF task scheduled component=scheduler │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all tenant lifecycle manager packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent(base, name): derive a component-scoped child of base
  - WithTenantID(base, id): derive a tenant-scoped child of base
  - WithModuleID(base, id): derive a module-scoped child of base
  - WithJobID(base, id): derive a job-scoped child of base

These take the logger to derive from explicitly, so call sites chain
exactly the context they have instead of always rooting at the global
Logger: install.Engine builds component -> tenant -> job once per job
and narrows to -> module per plan item.

# Log Levels

Debug Level:
  - Purpose: Detailed debugging information
  - Usage: Development and troubleshooting
  - Performance: Verbose, may impact production
  - Example: "Resolving dependencies for tenant tenant-abc123"

Info Level:
  - Purpose: General informational messages
  - Usage: Default production level
  - Performance: Moderate volume
  - Example: "Module enabled: mod-users-1.2.0"

Warn Level:
  - Purpose: Potential issues or unexpected conditions
  - Usage: Situations that may require attention
  - Performance: Low volume
  - Example: "Timer fired while not leader, skipping"

Error Level:
  - Purpose: Operation failures that need investigation
  - Usage: Failed operations, exceptions
  - Performance: Low volume
  - Example: "Hook invocation failed: connection refused"

Fatal Level:
  - Purpose: Critical errors causing process termination
  - Usage: Unrecoverable errors only
  - Behavior: Logs message and exits process (os.Exit(1))
  - Example: "Failed to open tenant store: %v"

# Usage

Initializing the Logger:

	import "github.com/moduleplatform/tenantd/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

	// Custom output (file)
	file, _ := os.OpenFile("/var/log/tenantd.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     file,
	})

Simple Logging:

	log.Info("Tenant lifecycle manager initialized successfully")
	log.Debug("Checking timer queue")
	log.Warn("High job backlog detected")
	log.Error("Failed to reach module manager")
	log.Fatal("Cannot start without tenant store") // Exits process

Structured Logging:

	log.Logger.Info().
		Str("tenant_id", "tenant-123").
		Int("enabled_modules", 3).
		Msg("Tenant created")

	log.Logger.Error().
		Err(err).
		Str("job_id", "job-abc").
		Msg("Install job failed")

Component Loggers:

	// Create component-specific logger
	timerLog := log.WithComponent(log.Logger, "timer")
	timerLog.Info().Msg("Arming timer")
	timerLog.Debug().Str("module_id", "mod-users-1.2.0").Msg("Timer fired")

	// Chain context onto a component logger, narrowest last
	jobLog := log.WithJobID(log.WithTenantID(log.WithComponent(log.Logger, "install"), "tenant-abc"), "job-123")
	jobLog.Info().Msg("Starting job")
	jobLog.Error().Err(err).Msg("Job failed")

Context Logger Helpers:

	// Tenant-specific logs, derived from a component logger
	tenantLog := log.WithTenantID(log.WithComponent(log.Logger, "lifecycle"), "tenant-abc123")
	tenantLog.Info().Msg("Tenant created")

	// Module-specific logs, narrowed further from the job logger
	moduleLog := log.WithModuleID(jobLog, "mod-users-1.2.0")
	moduleLog.Info().Msg("Module enabled")

Complete Example:

	package main

	import (
		"errors"
		"os"
		"github.com/moduleplatform/tenantd/pkg/log"
	)

	func main() {
		// Initialize logger
		log.Init(log.Config{
			Level:      log.InfoLevel,
			JSONOutput: true,
			Output:     os.Stdout,
		})

		log.Info("tenantd starting")

		// Component-specific logging
		timerLog := log.WithComponent(log.Logger, "timer")
		timerLog.Info().
			Str("tenant_id", "tenant-1").
			Int("armed_timers", 5).
			Msg("Timer queue initialized")

		// Error logging
		err := errors.New("connection refused")
		log.Logger.Error().
			Err(err).
			Str("component", "hooks").
			Msg("Failed to reach module manager")

		log.Info("tenantd stopped")
	}

# Integration Points

This package integrates with:

  - cmd/tenantd: serve calls Init and logs startup/shutdown
  - pkg/timer: Logs timer arming (Debug) and failed fires (Warn)
  - pkg/install: Logs failed job-progress writes and auto-undeploys
  - pkg/hooks: Logs failed _tenant hook calls
  - pkg/lifecycle: Logs façade warnings; admin API requests are counted
    in pkg/metrics, not logged

pkg/replicatedmap does not use this package; the Raft library writes
its own output to stderr.

# Log Output Examples

JSON Format (Production):

	{"level":"debug","component":"timer","tenant_id":"tenant-1","module_id":"mod-cron-1.0.0","seq":1,"delay":1000,"time":"2024-10-13T10:30:01Z","message":"armed timer"}
	{"level":"warn","component":"hooks","module_id":"mod-users-1.2.0","error":"connection refused","path":"/_/tenant","time":"2024-10-13T10:30:02Z","message":"_tenant hook call failed"}

Console Format (Development):

	2024-10-13T10:30:01Z DBG armed timer component=timer delay=1000 module_id=mod-cron-1.0.0 seq=1 tenant_id=tenant-1
	2024-10-13T10:30:02Z WRN _tenant hook call failed error="connection refused" component=hooks module_id=mod-users-1.2.0 path=/_/tenant

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

Structured Logging Pattern:
  - Use typed fields (.Str, .Int, .Err)
  - Enables log aggregation and querying
  - Better than string concatenation
  - Parseable by log analysis tools

Error Logging Pattern:
  - Always use .Err(err) for error objects
  - Records the error text in the "error" field (no stack trace)
  - Enables error tracking and alerting
  - Consistent error format across codebase

# Performance Characteristics

Logging Overhead:
  - Disabled level: 0ns (compile-time optimization)
  - JSON encode: ~500ns per log line
  - Console format: ~1µs per log line
  - String field: +50ns per field
  - Int field: +30ns per field

Memory Allocation:
  - Zero allocation for disabled levels
  - ~100 bytes per log line (JSON)
  - ~200 bytes per log line (console)
  - Amortized by buffer pooling

Throughput:
  - JSON: ~2M log lines per second
  - Console: ~1M log lines per second
  - Bottleneck: I/O write speed
  - Async writes recommended for high volume

Log Level Impact:
  - Debug: High volume, use in development only
  - Info: Moderate volume, suitable for production
  - Warn/Error: Low volume, minimal impact
  - Recommendation: Info level in production

# Troubleshooting

Common Issues:

No Log Output:
  - Symptom: No logs appearing
  - Check: log.Init() called before logging
  - Check: Log level set appropriately (Debug < Info < Warn < Error)
  - Solution: Initialize logger in main() before any logging

Excessive Log Volume:
  - Symptom: Disk space fills quickly
  - Cause: Debug level in production
  - Check: Log level configuration
  - Solution: Use Info level in production, rotate logs

Missing Context Fields:
  - Symptom: Logs missing component or ID fields
  - Cause: Using global Logger instead of context logger
  - Solution: Use WithComponent() or create child loggers

Log Parsing Fails:
  - Symptom: Cannot parse JSON logs
  - Cause: Invalid JSON in message field
  - Check: Embedded quotes or control characters
  - Solution: Use .Str() instead of string interpolation

Performance Degradation:
  - Symptom: Slow application performance
  - Cause: Excessive logging in hot path
  - Check: Log statements in tight loops
  - Solution: Reduce log frequency, use sampling

# Log Rotation

File-Based Logging:

tenantd doesn't include built-in log rotation. Use external tools:

Logrotate (Linux):
	# /etc/logrotate.d/tenantd
	/var/log/tenantd/*.log {
	    daily
	    rotate 7
	    compress
	    delaycompress
	    missingok
	    notifempty
	    copytruncate
	}

Systemd Journal:
	# Automatic rotation by systemd
	journalctl -u tenantd -f

Docker/Kubernetes:
	# Use container runtime log drivers
	# JSON logs to stdout (already implemented)

# Log Aggregation

Recommended Tools:

Elasticsearch + Filebeat:
  - Filebeat ships logs to Elasticsearch
  - Kibana for visualization and search
  - Query: component:"timer" AND level:"error"

Loki + Promtail:
  - Lightweight log aggregation
  - Grafana integration
  - Query: {component="timer"} |= "error"

CloudWatch Logs:
  - AWS native log aggregation
  - Metric filters for alerting
  - Query: fields @message | filter component = "install"

Datadog:
  - Full-stack observability
  - APM and log correlation
  - Query: service:tenantd component:install status:error

# Monitoring

Log-Based Alerts:

High Error Rate:
  - Query: rate(log entries with level="error"[5m]) > 10
  - Description: More than 10 errors per second
  - Action: Check recent errors, investigate root cause

No Logs:
  - Query: absent(log entries[1m])
  - Description: No logs received in 1 minute
  - Action: Check tenantd process, log pipeline

Specific Error Pattern:
  - Query: log entries containing "failed to reach module manager"
  - Description: Module manager connectivity issues
  - Action: Check module manager endpoint, network policy

# Security

Log Content:
  - Never log secrets or sensitive data
  - Redact tokens, passwords, API keys
  - Use log scrubbing for compliance (GDPR, PCI)
  - Review logs before sharing externally

Log Access:
  - Restrict log file permissions (0640)
  - Limit log aggregation access (RBAC)
  - Audit log access in production
  - Encrypt logs at rest and in transit

Log Injection:
  - Use structured logging (prevents injection)
  - Never concatenate user input into log messages
  - Use typed fields (.Str, .Int) for user data
  - Validate/sanitize before logging if necessary

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() so the error has its own field
  - Include context (tenant ID, module ID, job ID)

Don't:
  - Log sensitive data (secrets, passwords)
  - Use Debug level in production
  - Log in tight loops (use sampling)
  - Concatenate strings (use .Str, .Int)
  - Block on log writes (use buffered output)

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - Structured logging: https://www.thoughtworks.com/radar/techniques/structured-logging
  - 12-Factor App Logs: https://12factor.net/logs
  - Log aggregation: https://www.elastic.co/what-is/log-aggregation
*/
package log
