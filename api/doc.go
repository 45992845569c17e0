// Package api is a client for the quiz management REST API.
//
// The api package implements:
//   - Listing and fetching quizzes
//   - Creating and deleting quizzes
//   - Bearer-token authentication
//
// Endpoints:
//   - GET /quiz - List quizzes
//   - POST /quiz - Create a quiz
//   - GET /quiz/{id} - Fetch a quiz
//   - DELETE /quiz/{id} - Delete a quiz
//
// Live quiz sessions do not go through this package; they run over the
// websocket transport.
package api
