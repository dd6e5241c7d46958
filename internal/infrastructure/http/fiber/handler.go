package fiber

import (
	"net/http"
	"strconv"

	"nft-activity-timeline/internal/application/dto"
	"nft-activity-timeline/internal/domain/entity"
	"nft-activity-timeline/internal/domain/service"
	"nft-activity-timeline/internal/infrastructure/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TimelineHandler exposes the timeline service over HTTP
type TimelineHandler struct {
	svc         service.TimelineService
	groupingMin int
	logger      *logger.Logger
}

func NewTimelineHandler(svc service.TimelineService, groupingMin int, log *logger.Logger) *TimelineHandler {
	return &TimelineHandler{
		svc:         svc,
		groupingMin: groupingMin,
		logger:      log.WithComponent("http-handler"),
	}
}

// Register mounts every route on app
func (h *TimelineHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)

	v1 := app.Group("/v1")
	v1.Get("/timeline", h.GetTimeline)
	v1.Get("/wallets/:input", h.GetWallet)
	v1.Get("/wallets/:input/collections", h.GetCollections)
	v1.Get("/collections/:contract", h.GetCollection)
}

func (h *TimelineHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// GetTimeline handles GET /v1/timeline?wallet=&start_date=&end_date=&contract_address=&filter=&page=
func (h *TimelineHandler) GetTimeline(c *fiber.Ctx) error {
	page := 1
	if raw := c.Query("page", ""); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(dto.ErrorResponse{
				Error:   "invalid_request",
				Message: "invalid 'page' parameter",
			})
		}
		page = p
	}

	criteria := entity.SearchCriteria{
		Wallet:          c.Query("wallet", ""),
		StartDate:       c.Query("start_date", ""),
		EndDate:         c.Query("end_date", ""),
		ContractAddress: c.Query("contract_address", ""),
		Filter:          entity.EventType(c.Query("filter", "")),
		Page:            page,
	}

	result, err := h.svc.Query(c.UserContext(), criteria)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(dto.NewTimelineResponse(result, h.groupingMin))
}

// GetWallet handles GET /v1/wallets/:input
func (h *TimelineHandler) GetWallet(c *fiber.Ctx) error {
	wallet, err := h.svc.ResolveWallet(c.UserContext(), c.Params("input"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.NewWalletResponse(wallet))
}

// GetCollections handles GET /v1/wallets/:input/collections
func (h *TimelineHandler) GetCollections(c *fiber.Ctx) error {
	collections, err := h.svc.Collections(c.UserContext(), c.Params("input"))
	if err != nil {
		return h.writeError(c, err)
	}
	if collections == nil {
		collections = []entity.CollectionInfo{}
	}
	return c.JSON(collections)
}

// GetCollection handles GET /v1/collections/:contract?wallet=
func (h *TimelineHandler) GetCollection(c *fiber.Ctx) error {
	info, err := h.svc.Collection(c.UserContext(), c.Params("contract"), c.Query("wallet", ""))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(info)
}

func (h *TimelineHandler) writeError(c *fiber.Ctx, err error) error {
	status, resp := dto.NewErrorResponse(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err))
	}
	return c.Status(status).JSON(resp)
}
