// Package virtual provides an in-memory desktop implementing
// automation.Provider.
//
// A desktop is built from a Fixture (YAML, TOML or JSON) listing top-level
// panes, launchable applications and their element trees. Launching an
// application instantiates fresh windows on the desktop; attaching finds a
// running application by one of its window handles.
//
// Every keyboard, pointer and synchronization call is recorded as an Event,
// which makes the provider the test double for sessions and gestures. It is
// also the default provider on hosts without a native automation backend.
package virtual
