// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [Transport]: Delivers one wire payload to the log intake
//   - [EventEmitter]: Receives delivery outcomes (metrics, embedding apps)
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// HTTP, TCP, zerolog and Prometheus implementations.
package ports
