package handlers

import (
	"net/http"
	"strings"

	"pizzeria-service/internal/dto"
	"pizzeria-service/internal/models"
	"pizzeria-service/internal/repository"
	"pizzeria-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalog service.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(catalog service.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

// ListProducts godoc
// @Summary Каталог товаров
// @Tags catalog
// @Produce json
// @Param kind query string false "PIZZA, PASTA или DRINK"
// @Param q query string false "Поиск по названию"
// @Param limit query int false "Лимит (по умолчанию 50)"
// @Param offset query int false "Смещение"
// @Success 200 {object} dto.ProductListResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неизвестный тип товара"
// @Router /api/v1/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	limit, offset := pagination(c)
	f := repository.ProductListFilter{Query: strings.TrimSpace(c.Query("q")), Limit: limit, Offset: offset}
	if k := c.Query("kind"); k != "" {
		kind := models.ProductKind(strings.ToUpper(k))
		f.Kind = &kind
	}

	list, total, err := h.catalog.ListProducts(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := dto.ProductListResponse{Items: make([]dto.ProductResponse, 0, len(list)), Total: total}
	for i := range list {
		resp.Items = append(resp.Items, dto.ToProductResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetProduct godoc
// @Summary Товар по id
// @Tags catalog
// @Produce json
// @Param id path string true "ID товара"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} dto.NotFoundErrorResponse "Товар не найден"
// @Router /api/v1/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProductResponse(p))
}

// CreateProduct godoc
// @Summary Добавить товар (админ)
// @Description Пицца и паста задаются списком ингредиентов, напиток размером
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body dto.ProductRequest true "Товар"
// @Success 201 {object} dto.ProductResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 409 {object} dto.ConflictErrorResponse "Название занято"
// @Router /api/v1/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	in := service.ProductInput{
		Kind:  models.ProductKind(req.Kind),
		Name:  req.Name,
		Price: req.Price,
	}
	if req.Size != nil {
		size := models.DrinkSize(*req.Size)
		in.Size = &size
	}
	for _, raw := range req.IngredientIDs {
		in.IngredientIDs = append(in.IngredientIDs, uuid.MustParse(raw))
	}

	p, err := h.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToProductResponse(p))
}

// UpdatePrice godoc
// @Summary Изменить цену (админ)
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID товара"
// @Param price body dto.PriceRequest true "Новая цена"
// @Success 200 {object} dto.ProductResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Отрицательная цена"
// @Failure 404 {object} dto.NotFoundErrorResponse "Товар не найден"
// @Router /api/v1/products/{id}/price [put]
func (h *CatalogHandler) UpdatePrice(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}
	p, err := h.catalog.UpdatePrice(c.Request.Context(), id, req.Price)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProductResponse(p))
}

// DeleteProduct godoc
// @Summary Удалить товар (админ)
// @Tags catalog
// @Security BearerAuth
// @Param id path string true "ID товара"
// @Success 204
// @Failure 404 {object} dto.NotFoundErrorResponse "Товар не найден"
// @Failure 409 {object} dto.ConflictErrorResponse "Товар есть в заказах"
// @Router /api/v1/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListIngredients godoc
// @Summary Список ингредиентов
// @Tags catalog
// @Produce json
// @Success 200 {array} dto.IngredientResponse
// @Router /api/v1/ingredients [get]
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	list, err := h.catalog.ListIngredients(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := make([]dto.IngredientResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.ToIngredientResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// CreateIngredient godoc
// @Summary Добавить ингредиент (админ)
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ingredient body dto.IngredientRequest true "Ингредиент и аллергены"
// @Success 201 {object} dto.IngredientResponse
// @Failure 409 {object} dto.ConflictErrorResponse "Название занято"
// @Router /api/v1/ingredients [post]
func (h *CatalogHandler) CreateIngredient(c *gin.Context) {
	var req dto.IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}
	in, err := h.catalog.CreateIngredient(c.Request.Context(), req.Name, req.Allergens)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToIngredientResponse(in))
}

// DeleteIngredient godoc
// @Summary Удалить ингредиент (админ)
// @Description Ингредиент убирается из состава всех товаров
// @Tags catalog
// @Security BearerAuth
// @Param id path string true "ID ингредиента"
// @Success 204
// @Failure 404 {object} dto.NotFoundErrorResponse "Ингредиент не найден"
// @Router /api/v1/ingredients/{id} [delete]
func (h *CatalogHandler) DeleteIngredient(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteIngredient(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
