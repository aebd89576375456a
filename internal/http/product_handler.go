package httpapi

import (
	"net/http"
	"strings"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/service"

	"go.uber.org/zap"
)

type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
}

func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

func (h *ProductHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/crm/api/v1/products" && r.Method == http.MethodGet:
		h.ListProducts(w, r)
	case r.URL.Path == "/crm/api/v1/products" && r.Method == http.MethodPost:
		h.CreateProduct(w, r)
	case r.URL.Path == "/crm/api/v1/products/sync" && r.Method == http.MethodPost:
		h.SyncProducts(w, r)
	case r.URL.Path == "/crm/api/v1/products/fetch-images" && r.Method == http.MethodPost:
		h.FetchImages(w, r)
	case strings.HasPrefix(r.URL.Path, "/crm/api/v1/products/") && r.Method == http.MethodGet:
		h.GetProduct(w, r)
	case strings.HasPrefix(r.URL.Path, "/crm/api/v1/products/") && r.Method == http.MethodPut:
		h.UpdateProduct(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type productView struct {
	ProductID   string  `json:"productId"`
	SKU         string  `json:"sku"`
	ProductName string  `json:"productName"`
	Brand       string  `json:"brand,omitempty"`
	Category    string  `json:"category,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	ListPrice   float64 `json:"listPrice"`
	ERPCode     string  `json:"erpCode,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

func toProductView(p *domain.Product) productView {
	return productView{
		ProductID:   p.ProductID,
		SKU:         p.SKU,
		ProductName: p.ProductName,
		Brand:       strOf(p.Brand),
		Category:    strOf(p.Category),
		Unit:        strOf(p.Unit),
		ListPrice:   p.ListPrice,
		ERPCode:     strOf(p.ERPCode),
		ImageURL:    strOf(p.ImageURL),
	}
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.products.ListProducts(r.Context(), service.ListProductsRequest{
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		Search:   q.Get("search"),
		Page:     parseInt(q.Get("page"), 1),
		Size:     parseInt(q.Get("size"), 50),
	})
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	items := make([]productView, 0, len(resp.Items))
	for _, p := range resp.Items {
		items = append(items, toProductView(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": resp.Total})
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/crm/api/v1/products/")
	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductView(product))
}

type productRequest struct {
	SKU         string  `json:"sku"`
	ProductName string  `json:"productName"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Unit        string  `json:"unit"`
	ListPrice   float64 `json:"listPrice"`
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	id, err := h.products.CreateProduct(r.Context(), service.CreateProductRequest{
		SKU:      req.SKU,
		Name:     req.ProductName,
		Brand:    req.Brand,
		Category: req.Category,
		Unit:     req.Unit,
		Price:    req.ListPrice,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"productId": id})
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/crm/api/v1/products/")
	var req productRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	err := h.products.UpdateProduct(r.Context(), service.UpdateProductRequest{
		ProductID: id,
		SKU:       req.SKU,
		Name:      req.ProductName,
		Brand:     req.Brand,
		Category:  req.Category,
		Unit:      req.Unit,
		Price:     req.ListPrice,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w)
}

func (h *ProductHandler) SyncProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.products.SyncFromERP(r.Context())
	if err != nil {
		h.logger.Error("ERP sync failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) FetchImages(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	result, err := h.products.FetchMissingImages(r.Context(), limit)
	if err != nil {
		h.logger.Error("image fetch failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
