package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type taskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Status      *string `json:"status"`
	DueDate     *string `json:"dueDate"`
	DueTime     *string `json:"dueTime"`
}

// apply copies every supplied, non-empty field onto t. Absent fields keep
// their current value.
func (in *taskInput) apply(v *validator, t *task) {
	if title := trimmed(in.Title); title != "" {
		t.Title = title
	}
	if description := trimmed(in.Description); description != "" {
		t.Description = description
	}
	if category := trimmed(in.Category); category != "" {
		t.Category = category
	}
	if status := trimmed(in.Status); status != "" {
		v.checkStatus(status)
		t.Status = status
	}
	if dueDate := trimmed(in.DueDate); dueDate != "" {
		t.DueDate = normalizeDueDate(v, dueDate)
	}
	if dueTime := trimmed(in.DueTime); dueTime != "" {
		v.checkDueTime(dueTime)
		t.DueTime = dueTime
	}
}

func (app *application) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	u := contextGetUser(r)
	tasks, err := app.tasks.getTasksForUser(r.Context(), u.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	err = writeJSON(w, http.StatusOK, tasks, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var input taskInput
	err := readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err.Error())
		return
	}

	v := newValidator()
	v.check(trimmed(input.Title) != "" && trimmed(input.Category) != "" && trimmed(input.Status) != "",
		"fields", "please provide title, category, and status")

	u := contextGetUser(r)
	now := time.Now().UTC()
	t := &task{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Status:    statusIncomplete,
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.apply(v, t)
	if !v.valid() {
		app.failedValidationResponse(w, r, v)
		return
	}

	err = app.tasks.insertTask(r.Context(), t)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusCreated, t, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ownedTask loads the task named in the path and checks that the caller owns
// it. Existence is checked before ownership. On failure the response has
// already been written and ok is false.
func (app *application) ownedTask(w http.ResponseWriter, r *http.Request, action string) (t *task, ok bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		app.notFoundResponse(w, r, "task not found")
		return nil, false
	}

	t, err := app.tasks.getTaskByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, errRecordNotFound):
			app.notFoundResponse(w, r, "task not found")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return nil, false
	}

	if !t.ownedBy(contextGetUser(r)) {
		app.forbiddenResponse(w, r, "you are not authorized to "+action+" this task")
		return nil, false
	}
	return t, true
}

func (app *application) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	t, ok := app.ownedTask(w, r, "update")
	if !ok {
		return
	}

	var input taskInput
	err := readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err.Error())
		return
	}

	v := newValidator()
	input.apply(v, t)
	if !v.valid() {
		app.failedValidationResponse(w, r, v)
		return
	}
	t.UpdatedAt = time.Now().UTC()

	err = app.tasks.updateTask(r.Context(), t)
	if err != nil {
		switch {
		case errors.Is(err, errRecordNotFound):
			app.notFoundResponse(w, r, "task not found")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = writeJSON(w, http.StatusOK, t, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	t, ok := app.ownedTask(w, r, "delete")
	if !ok {
		return
	}

	err := app.tasks.deleteTask(r.Context(), t)
	if err != nil {
		switch {
		case errors.Is(err, errRecordNotFound):
			app.notFoundResponse(w, r, "task not found")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = writeJSON(w, http.StatusOK, envelope{"message": "task successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) taskStatsHandler(w http.ResponseWriter, r *http.Request) {
	u := contextGetUser(r)
	counts, err := app.tasks.getTaskStatusCounts(r.Context(), u.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	err = writeJSON(w, http.StatusOK, buildTaskStats(counts), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
