package controller

import (
	"strconv"

	"voicenote-vector-be/internal/pkg/serverutils"
	"voicenote-vector-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
	SimilarNotes(ctx *fiber.Ctx) error
}

type searchController struct {
	searchService  service.ISearchService
	scoreThreshold float64
}

func NewSearchController(searchService service.ISearchService, scoreThreshold float64) ISearchController {
	return &searchController{
		searchService:  searchService,
		scoreThreshold: scoreThreshold,
	}
}

func (c *searchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/search/v1")
	h.Get("", c.Search)
	h.Get("similar/:noteId", c.SimilarNotes)
}

func (c *searchController) Search(ctx *fiber.Ctx) error {
	query := ctx.Query("q")
	limit := parseIntQuery(ctx, "limit", 0)
	threshold := parseFloatQuery(ctx, "threshold", c.scoreThreshold)

	res, err := c.searchService.Search(ctx.Context(), query, limit, threshold)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success semantic search", res))
}

func (c *searchController) SimilarNotes(ctx *fiber.Ctx) error {
	noteId, err := uuid.Parse(ctx.Params("noteId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid note id")
	}

	limit := parseIntQuery(ctx, "limit", 0)
	threshold := parseFloatQuery(ctx, "threshold", c.scoreThreshold)

	res, err := c.searchService.FindSimilarNotes(ctx.Context(), noteId, limit, threshold)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success similar notes", res))
}

func parseIntQuery(ctx *fiber.Ctx, name string, fallback int) int {
	if v, err := strconv.Atoi(ctx.Query(name)); err == nil {
		return v
	}
	return fallback
}

func parseFloatQuery(ctx *fiber.Ctx, name string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(ctx.Query(name), 64); err == nil {
		return v
	}
	return fallback
}
