// Package commands implements the authctl command tree. Every command builds
// the client stack from configuration, restores the stored session and then
// performs one operation.
package commands
