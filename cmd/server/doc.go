// Package main is the entry point for the deskdriver server.
//
// deskdriver speaks the WebDriver wire protocol and drives desktop
// applications through a UI automation provider. Clients open a session
// against an application path, an existing top-level window, or the whole
// desktop ("Root"), then find elements, type keys, and run gesture,
// clipboard and shell scripts.
//
// Settings come from environment variables (PORT, BASE_PATH,
// SESSION_CLEANUP_CYCLE, ALLOW_SHELL, DESKTOP_FIXTURE and friends); the
// flags below override them.
//
// Usage:
//
//	# Default: port 4723, routes under /wd/hub
//	./server
//
//	# Custom port with shell scripts enabled and a 60s cleanup cycle
//	./server -port 4724 -allow-powershell -cleanup-cycle 60
//
//	# Development mode (colored logs, debug level)
//	./server -dev -log-level debug
//
// SIGINT or SIGTERM stops accepting requests and closes every live
// session before exit.
package main
