// Package dto contains Data Transfer Objects for HTTP requests and responses.
//
// DTOs are separate from engine views and domain entities so the API controls
// what it exposes: picks stay hidden, durations become whole seconds and
// optional fields are omitted when empty.
//
// Naming convention:
//   - Request types: <Action>Request (e.g., ExtendRequest)
//   - Response types: <Resource>Response (e.g., GameResponse)
package dto
