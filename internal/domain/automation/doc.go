// Package automation implements WebDriver-style desktop automation sessions.
//
// A Registry owns Sessions keyed by id. Each Session targets a launched or
// attached Application, or the whole desktop, and keeps its own element
// handle table, active window and held modifier keys. Element lookup goes
// through Locator (automation id, class name, tag name, name or XPath), and
// ExecuteScript routes named gestures, clipboard access and shell commands
// through a shared Dispatcher. A Scheduler reaps sessions that sit idle.
//
// Platform access is behind the Provider interface so the same sessions can
// drive a real desktop or an in-memory one.
package automation
