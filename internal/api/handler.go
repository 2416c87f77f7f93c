package api

import (
	"net/http"
	"strconv"
	"time"

	"quote-service/internal/service"
	"quote-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog   *service.CatalogService
	prices    *service.PriceService
	products  *service.ProductService
	quotes    *service.QuoteService
	suppliers *service.SupplierService
	clients   *service.ClientService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	prices *service.PriceService,
	products *service.ProductService,
	quotes *service.QuoteService,
	suppliers *service.SupplierService,
	clients *service.ClientService,
) *Handler {
	return &Handler{
		catalog:   catalog,
		prices:    prices,
		products:  products,
		quotes:    quotes,
		suppliers: suppliers,
		clients:   clients,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/items", h.createItem)
		v1.GET("/items", h.listItems)
		v1.GET("/items/:id", h.getItem)
		v1.PUT("/items/:id", h.updateItem)
		v1.POST("/items/:id/archive", h.archiveItem)
		v1.POST("/items/:id/activate", h.activateItem)
		v1.GET("/items/:id/prices", h.priceHistory)
		v1.GET("/items/:id/prices/latest", h.latestPrice)

		v1.POST("/price-entries", h.recordPrice)
		v1.GET("/price-entries/search", h.searchPrices)

		v1.POST("/suppliers", h.createSupplier)
		v1.GET("/suppliers", h.listSuppliers)
		v1.GET("/suppliers/:id", h.getSupplier)
		v1.PUT("/suppliers/:id", h.updateSupplier)
		v1.DELETE("/suppliers/:id", h.deleteSupplier)

		v1.POST("/clients", h.createClient)
		v1.GET("/clients", h.listClients)
		v1.GET("/clients/:id", h.getClient)
		v1.PUT("/clients/:id", h.updateClient)
		v1.DELETE("/clients/:id", h.deleteClient)

		v1.POST("/products", h.createProduct)
		v1.GET("/products", h.listProducts)
		v1.PUT("/products/:id", h.updateProduct)
		v1.DELETE("/products/:id", h.deleteProduct)
		v1.GET("/products/:id/materials", h.getMaterials)
		v1.POST("/products/:id/materials", h.addMaterial)
		v1.GET("/products/:id/cost", h.materialCost)
		v1.PUT("/materials/:id", h.updateMaterial)
		v1.DELETE("/materials/:id", h.removeMaterial)

		v1.POST("/quotes", h.createQuote)
		v1.GET("/quotes", h.listQuotes)
		v1.GET("/quotes/:id", h.getQuote)
		v1.PUT("/quotes/:id/status", h.updateQuoteStatus)
		v1.POST("/quotes/:id/recompute", h.recomputeQuote)
		v1.POST("/quotes/:id/items", h.addQuoteItem)
		v1.PATCH("/quote-items/:id", h.updateQuoteItem)
		v1.DELETE("/quote-items/:id", h.deleteQuoteItem)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

// respondError maps service error kinds onto HTTP statuses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch service.ErrorKind(err) {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindConflict:
		status = http.StatusConflict
	case service.KindNotFound:
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// createItem handles catalog item creation
func (h *Handler) createItem(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	item, err := h.catalog.CreateItem(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// listItems handles catalog listings, filtered by status
func (h *Handler) listItems(c *gin.Context) {
	items, err := h.catalog.ListItems(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// getItem handles get item by ID
func (h *Handler) getItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, err := h.catalog.GetItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// updateItem handles catalog item updates
func (h *Handler) updateItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	item, err := h.catalog.UpdateItem(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// archiveItem handles item archival
func (h *Handler) archiveItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, err := h.catalog.ArchiveItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// activateItem handles item reactivation
func (h *Handler) activateItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, err := h.catalog.ActivateItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// priceHistory handles the per-item ledger listing
func (h *Handler) priceHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	entries, err := h.prices.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// latestPrice handles the latest ledger entry lookup, filterable by type
func (h *Handler) latestPrice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	entry, err := h.prices.LatestEntry(c.Request.Context(), id, c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No price entries for item"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// recordPrice handles ledger appends
func (h *Handler) recordPrice(c *gin.Context) {
	var req service.RecordPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	entry, err := h.prices.RecordPrice(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// searchPrices handles ledger searches by item name, brand or model
func (h *Handler) searchPrices(c *gin.Context) {
	entries, err := h.prices.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// createSupplier handles supplier creation
func (h *Handler) createSupplier(c *gin.Context) {
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	supplier, err := h.suppliers.CreateSupplier(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

// listSuppliers handles the supplier listing
func (h *Handler) listSuppliers(c *gin.Context) {
	suppliers, err := h.suppliers.ListSuppliers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers})
}

// getSupplier handles get supplier by ID
func (h *Handler) getSupplier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	supplier, err := h.suppliers.GetSupplier(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

// updateSupplier handles supplier updates
func (h *Handler) updateSupplier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	supplier, err := h.suppliers.UpdateSupplier(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

// deleteSupplier handles supplier deletion
func (h *Handler) deleteSupplier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.suppliers.DeleteSupplier(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// createClient handles client creation
func (h *Handler) createClient(c *gin.Context) {
	var req service.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	client, err := h.clients.CreateClient(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// listClients handles the client listing
func (h *Handler) listClients(c *gin.Context) {
	clients, err := h.clients.ListClients(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

// getClient handles get client by ID
func (h *Handler) getClient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	client, err := h.clients.GetClient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// updateClient handles client updates
func (h *Handler) updateClient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	client, err := h.clients.UpdateClient(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// deleteClient handles client deletion
func (h *Handler) deleteClient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.clients.DeleteClient(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// createProduct handles BOM product creation
func (h *Handler) createProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.products.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// listProducts handles the product listing
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// updateProduct handles product header updates
func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.products.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// deleteProduct handles product deletion
func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.products.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// getMaterials handles the BOM listing for a product
func (h *Handler) getMaterials(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	materials, err := h.products.GetMaterials(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials})
}

// addMaterial handles adding an item to a product's BOM
func (h *Handler) addMaterial(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.AddMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	material, err := h.products.AddMaterial(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, material)
}

// materialCost handles the aggregate material cost of a product
func (h *Handler) materialCost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cost, err := h.products.MaterialCost(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": id, "material_cost": cost})
}

// updateMaterial handles BOM line quantity updates
func (h *Handler) updateMaterial(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	material, err := h.products.UpdateMaterialQuantity(c.Request.Context(), id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, material)
}

// removeMaterial handles BOM line removal
func (h *Handler) removeMaterial(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.products.RemoveMaterial(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// createQuote handles quote creation
func (h *Handler) createQuote(c *gin.Context) {
	var req struct {
		ClientID int64 `json:"client_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	quote, err := h.quotes.CreateQuote(c.Request.Context(), req.ClientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quote)
}

// listQuotes handles the quote listing
func (h *Handler) listQuotes(c *gin.Context) {
	quotes, err := h.quotes.ListQuotes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// getQuote handles get quote by ID, returning the assembled item tree
func (h *Handler) getQuote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	detail, err := h.quotes.GetQuote(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// updateQuoteStatus handles quote status transitions
func (h *Handler) updateQuoteStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.quotes.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote_id": id, "status": req.Status})
}

// recomputeQuote handles an explicit quote total recomputation
func (h *Handler) recomputeQuote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	total, err := h.quotes.RecomputeTotal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote_id": id, "total_amount": total})
}

// addQuoteItem handles adding a catalog item to a quote
func (h *Handler) addQuoteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.AddQuoteItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	item, err := h.quotes.AddItem(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// updateQuoteItem handles partial quote line updates
func (h *Handler) updateQuoteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateQuoteItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	item, err := h.quotes.UpdateItem(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// deleteQuoteItem handles quote line soft deletion
func (h *Handler) deleteQuoteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.quotes.DeleteItem(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
