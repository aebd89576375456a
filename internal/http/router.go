package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router wraps the standard library ServeMux; no third-party routing
// dependency is needed for this surface.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRoutes wires every handler under /crm/api/v1.
func (r *Router) RegisterRoutes(
	customers *CustomerHandler,
	leads *LeadHandler,
	tasks *TaskHandler,
	products *ProductHandler,
	surveys *SiteSurveyHandler,
	cron *CronHandler,
) {
	r.HandleHandler("/crm/api/v1/customers", customers)
	r.HandleHandler("/crm/api/v1/customers/", customers)

	r.HandleHandler("/crm/api/v1/leads", leads)
	r.HandleHandler("/crm/api/v1/leads/", leads)

	r.HandleHandler("/crm/api/v1/tasks", tasks)
	r.HandleHandler("/crm/api/v1/tasks/", tasks)

	r.HandleHandler("/crm/api/v1/products", products)
	r.HandleHandler("/crm/api/v1/products/", products)

	r.HandleHandler("/crm/api/v1/site-surveys", surveys)
	r.HandleHandler("/crm/api/v1/site-surveys/", surveys)

	r.HandleHandler("/crm/api/v1/cron/", cron)

	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
