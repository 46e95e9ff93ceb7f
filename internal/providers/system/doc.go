// Package system holds host integrations shared by automation providers:
// the operating system clipboard and the process runner behind the shell
// script.
package system
