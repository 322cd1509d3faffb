// Package mcp bridges the agent-facing MCP transport to the owning
// process's capability registry.
//
// The proxy is a stateless translator. Every tool invocation re-fetches the
// registry over HTTP; nothing is cached across calls because entries can be
// replaced at any time by a fresh ingestion. A lookup of a name that does
// not exist returns a structured text result enumerating what is currently
// callable, never a protocol error, so a failed invocation doubles as
// discovery.
//
// Run the proxy over stdio next to an MCP-speaking agent:
//
//	backend := mcp.NewBackendClient("http://localhost:3000", nil)
//	proxy := mcp.NewProxy(backend, logger)
//	if err := proxy.Run(ctx); err != nil { ... }
package mcp
