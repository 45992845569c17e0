// Package mcp exposes quiz hosting as MCP tools so an agent can run a
// quiz end to end: create or pick a quiz through the management API, open
// a live session, pace the questions, and watch joins, chat and scores
// through a polled event log.
package mcp
