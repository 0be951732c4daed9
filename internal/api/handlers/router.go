package handlers

import "github.com/go-chi/chi/v5"

// APIRouter assembles every handler under a single /patients subtree.
// Collection routes and patient-scoped routes must be registered on the
// same node: a separate mount at /patients would be shadowed by the
// {patientID} parameter route and its subtree would be unreachable.
func APIRouter(patients *PatientHandler, alerts *AlertHandler, assessments *AssessmentHandler, goals *GoalHandler, dashboard *DashboardHandler, records *RecordHandler) chi.Router {
	r := chi.NewRouter()
	r.Route("/patients", func(r chi.Router) {
		r.Post("/", patients.Create)
		r.Get("/", patients.List)
		r.Route("/{patientID}", func(r chi.Router) {
			r.Get("/", patients.Get)
			r.Delete("/", patients.Remove)
			r.Post("/notes", patients.AddNote)
			r.Get("/notes", patients.ListNotes)
			r.Mount("/alerts", alerts.Routes())
			r.Mount("/adl", assessments.Routes())
			r.Mount("/goals", goals.Routes())
			r.Mount("/dashboard", dashboard.Routes())
			records.Register(r)
		})
	})
	return r
}
