package httpapi

import (
	"net/http"
	"strings"
	"time"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/service"

	"go.uber.org/zap"
)

type CustomerHandler struct {
	customers service.CustomerService
	logger    *zap.Logger
}

func NewCustomerHandler(customers service.CustomerService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, logger: logger}
}

func (h *CustomerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/crm/api/v1/customers" && r.Method == http.MethodGet:
		h.ListCustomers(w, r)
	case r.URL.Path == "/crm/api/v1/customers" && r.Method == http.MethodPost:
		h.CreateCustomer(w, r)
	case strings.HasPrefix(r.URL.Path, "/crm/api/v1/customers/") && r.Method == http.MethodGet:
		h.GetCustomer(w, r)
	case strings.HasPrefix(r.URL.Path, "/crm/api/v1/customers/") && r.Method == http.MethodPut:
		h.UpdateCustomer(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type customerView struct {
	CustomerID   string     `json:"customerId"`
	CustomerName string     `json:"customerName"`
	VATNumber    string     `json:"vatNumber,omitempty"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Address      string     `json:"address,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

func toCustomerView(c *domain.Customer) customerView {
	return customerView{
		CustomerID:   c.CustomerID,
		CustomerName: c.CustomerName,
		VATNumber:    strOf(c.VATNumber),
		Email:        strOf(c.Email),
		Phone:        strOf(c.Phone),
		Address:      strOf(c.Address),
		CreatedAt:    timeOf(c.CreatedAt),
	}
}

func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.customers.ListCustomers(r.Context(), q.Get("search"),
		parseInt(q.Get("page"), 1), parseInt(q.Get("size"), 50))
	if err != nil {
		h.logger.Error("list customers failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	items := make([]customerView, 0, len(resp.Items))
	for _, c := range resp.Items {
		items = append(items, toCustomerView(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": resp.Total})
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/crm/api/v1/customers/")
	customer, err := h.customers.GetCustomer(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerView(customer))
}

type customerRequest struct {
	CustomerName string `json:"customerName"`
	VATNumber    string `json:"vatNumber"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	id, err := h.customers.CreateCustomer(r.Context(), service.CreateCustomerRequest{
		Name:      req.CustomerName,
		VATNumber: req.VATNumber,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"customerId": id})
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/crm/api/v1/customers/")
	var req customerRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	err := h.customers.UpdateCustomer(r.Context(), service.UpdateCustomerRequest{
		CustomerID: id,
		Name:       req.CustomerName,
		VATNumber:  req.VATNumber,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w)
}
