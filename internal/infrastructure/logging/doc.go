// Package logging builds the zap loggers the driver writes through.
//
// Production mode emits JSON lines; development mode emits colored console
// output at debug level. Components take a child of the root logger named
// after themselves (registry, scripts, cleanup, http, provider). Sessions
// log under "registry.session" with a session_id field, so one session's
// lifecycle can be followed by filtering on those two fields:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	reg := automation.NewRegistry(provider, scripts, cfg, logger.Named(logging.Registry))
package logging
