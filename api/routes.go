package main

import (
	"net/http"
)

func composeRoutes(app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", app.healthCheckHandler)

	mux.HandleFunc("POST /api/auth/register", app.registerUserHandler)
	mux.HandleFunc("POST /api/auth/login", app.loginUserHandler)
	mux.HandleFunc("GET /api/auth/profile", app.requireAuthenticatedUser(app.getProfileHandler))
	mux.HandleFunc("PUT /api/auth/profile", app.requireAuthenticatedUser(app.updateProfileHandler))
	mux.HandleFunc("PUT /api/auth/password", app.requireAuthenticatedUser(app.updatePasswordHandler))

	mux.HandleFunc("GET /api/tasks", app.requireAuthenticatedUser(app.listTasksHandler))
	mux.HandleFunc("POST /api/tasks", app.requireAuthenticatedUser(app.createTaskHandler))
	mux.HandleFunc("GET /api/tasks/stats", app.requireAuthenticatedUser(app.taskStatsHandler))
	mux.HandleFunc("PUT /api/tasks/{id}", app.requireAuthenticatedUser(app.updateTaskHandler))
	mux.HandleFunc("DELETE /api/tasks/{id}", app.requireAuthenticatedUser(app.deleteTaskHandler))

	return app.enableCORS(app.recoverPanic(app.logRequest(mux)))
}
