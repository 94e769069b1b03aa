package ui

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gocompare/domain/core"
	"gocompare/internal/render"
	"gocompare/ports"
)

// handleIndex renders the runs list, newest first.
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	summaries, err := a.runs.ListRuns(r.Context(), ports.RunFilters{Limit: 100})
	if err != nil {
		a.logger.Error("Failed to list runs: %v", err)
		http.Error(w, "Failed to load runs", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title": "Runs",
		"Runs":  summaries,
	}
	a.renderTemplate(w, "runs.html", data)
}

// handleRunDetail renders one run with its summary converted to HTML.
func (a *App) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	id := core.RunID(chi.URLParam(r, "id"))

	record, err := a.runs.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrRunNotFound) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		a.logger.Error("Failed to load run %s: %v", id, err)
		http.Error(w, "Failed to load run", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title":   "Run " + string(record.ID),
		"Record":  record,
		"Summary": template.HTML(render.ToHTML(record.Summary)),
	}
	a.renderTemplate(w, "run.html", data)
}
