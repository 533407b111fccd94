package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/foodcourt/backend/internal/models"
	"github.com/foodcourt/backend/internal/mykafka"
	"github.com/foodcourt/backend/internal/util"
)

type FoodHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *FoodHandler) GetFood(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var food models.Food
	if err := h.DB.First(&food, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "food not found")
	}
	return c.JSON(http.StatusOK, food)
}

func (h *FoodHandler) GetFoods(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Food{})
	if category := c.QueryParam("category"); category != "" {
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var items []models.Food
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *FoodHandler) CreateFood(c echo.Context) error {
	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Image       string  `json:"image"`
		Category    string  `json:"category"`
		IsAvailable *bool   `json:"is_available"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required and price must be non-negative")
	}

	food := models.Food{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		IsAvailable: true,
	}
	if req.IsAvailable != nil {
		food.IsAvailable = *req.IsAvailable
	}

	if err := h.DB.Create(&food).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.indexFood(c, food)
	h.publish(c, map[string]any{
		"type":   "food_created",
		"foodID": food.ID,
		"name":   food.Name,
	})
	return c.JSON(http.StatusCreated, food)
}

func (h *FoodHandler) PatchFood(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Image       *string  `json:"image"`
		Category    *string  `json:"category"`
		IsAvailable *bool    `json:"is_available"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var food models.Food
	if err := h.DB.First(&food, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "food not found")
	}

	if req.Name != nil {
		food.Name = *req.Name
	}
	if req.Description != nil {
		food.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "price must be non-negative")
		}
		food.Price = *req.Price
	}
	if req.Image != nil {
		food.Image = *req.Image
	}
	if req.Category != nil {
		food.Category = *req.Category
	}
	if req.IsAvailable != nil {
		food.IsAvailable = *req.IsAvailable
	}

	if err := h.DB.Save(&food).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.indexFood(c, food)
	h.publish(c, map[string]any{
		"type":   "food_updated",
		"foodID": food.ID,
	})
	return c.JSON(http.StatusOK, food)
}

func (h *FoodHandler) DeleteFood(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Delete(&models.Food{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if h.ES != nil {
		if res, err := h.ES.Delete(h.Index, strconv.Itoa(id)); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		} else {
			res.Body.Close()
		}
	}
	h.publish(c, map[string]any{
		"type":   "food_deleted",
		"foodID": id,
	})
	return c.NoContent(http.StatusNoContent)
}

// indexFood mirrors the food document into Elasticsearch for search; index
// failures never fail the request.
func (h *FoodHandler) indexFood(c echo.Context, food models.Food) {
	if h.ES == nil {
		return
	}
	body, err := json.Marshal(food)
	if err != nil {
		c.Logger().Errorf("ES marshal error: %v", err)
		return
	}
	res, err := h.ES.Index(
		h.Index,
		bytes.NewReader(body),
		h.ES.Index.WithDocumentID(strconv.FormatUint(uint64(food.ID), 10)),
	)
	if err != nil {
		c.Logger().Errorf("ES index error: %v", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		c.Logger().Errorf("ES index error: %s", res.Status())
	}
}

func (h *FoodHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "food_events", fmt.Sprint(event["foodID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
