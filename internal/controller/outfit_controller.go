package controller

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"outfit-stylist-be/internal/dto"
	"outfit-stylist-be/internal/entity"
	"outfit-stylist-be/internal/pkg/serverutils"
	"outfit-stylist-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type IOutfitController interface {
	RegisterRoutes(r fiber.Router)
	UploadImage(ctx *fiber.Ctx) error
	UploadOutfit(ctx *fiber.Ctx) error
	Analyze(ctx *fiber.Ctx) error
	Reroll(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	TierStats(ctx *fiber.Ctx) error
	Presets(ctx *fiber.Ctx) error
}

type outfitController struct {
	service        service.IOutfitService
	maxUploadBytes int
}

func NewOutfitController(service service.IOutfitService, maxUploadBytes int) IOutfitController {
	return &outfitController{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

func (c *outfitController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/outfit/v1")
	h.Get("/presets", c.Presets)
	h.Get("/tiers", c.TierStats)

	session := serverutils.SessionMiddleware
	h.Post("/images", session, c.UploadImage)
	h.Post("/upload", session, c.UploadOutfit)
	h.Post("/analyze", session, c.Analyze)
	h.Post("/reroll", session, c.Reroll)
	h.Post("", session, c.Save)
	h.Get("", session, c.GetAll)
	h.Delete("/:id", session, c.Delete)
}

func (c *outfitController) UploadImage(ctx *fiber.Ctx) error {
	req := dto.UploadImageRequest{
		SessionId: serverutils.SessionID(ctx),
		Category:  utils.CopyString(ctx.FormValue("category")),
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Image file is required"))
	}
	upload, err := c.readUpload(entity.Slot(req.Category), fileHeader)
	if err != nil {
		return err
	}

	res, err := c.service.Upload(ctx.UserContext(), req.SessionId, upload)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Image uploaded", res))
}

// UploadOutfit takes one multipart file per slot, keyed by slot name.
func (c *outfitController) UploadOutfit(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Multipart form is required"))
	}

	var uploads []*entity.ImageUpload
	for _, slot := range entity.Slots {
		for _, fileHeader := range form.File[string(slot)] {
			upload, err := c.readUpload(slot, fileHeader)
			if err != nil {
				return err
			}
			uploads = append(uploads, upload)
		}
	}
	if len(uploads) == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "At least one image is required"))
	}

	res, err := c.service.UploadOutfit(ctx.UserContext(), serverutils.SessionID(ctx), uploads)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Outfit images uploaded", res))
}

func (c *outfitController) Analyze(ctx *fiber.Ctx) error {
	res, err := c.analyze(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Outfit analyzed", res))
}

// Reroll analyzes the same context again. The previous record is left as is.
func (c *outfitController) Reroll(ctx *fiber.Ctx) error {
	res, err := c.analyze(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Outfit rerolled", res))
}

func (c *outfitController) analyze(ctx *fiber.Ctx) (*dto.AnalyzeOutfitResponse, error) {
	var req dto.AnalyzeOutfitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.SessionId = serverutils.SessionID(ctx)

	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	oc := entity.OutfitContext{
		Session: entity.SessionContext{
			SessionId: req.SessionId,
			Season:    entity.Season(req.Season),
			Formality: entity.Formality(req.Formality),
		},
		Images: entity.ImageRefs{
			TopUrl:         req.TopUrl,
			TopLayerUrl:    req.TopLayerUrl,
			BottomUrl:      req.BottomUrl,
			ShoesUrl:       req.ShoesUrl,
			AccessoriesUrl: req.AccessoriesUrl,
		},
	}
	return c.service.Analyze(ctx.UserContext(), oc)
}

func (c *outfitController) Save(ctx *fiber.Ctx) error {
	var req dto.SaveOutfitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	req.SessionId = serverutils.SessionID(ctx)

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Save(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Outfit saved", res))
}

func (c *outfitController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.FetchAll(ctx.UserContext(), serverutils.SessionID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all outfits", res))
}

func (c *outfitController) Delete(ctx *fiber.Ctx) error {
	id := utils.CopyString(ctx.Params("id"))
	if id == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Outfit id is required"))
	}

	res, err := c.service.Delete(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete outfit", res))
}

func (c *outfitController) TierStats(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get tier stats", c.service.TierStats(ctx.UserContext())))
}

func (c *outfitController) Presets(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get presets", c.service.Presets(ctx.UserContext())))
}

func (c *outfitController) readUpload(slot entity.Slot, fileHeader *multipart.FileHeader) (*entity.ImageUpload, error) {
	if c.maxUploadBytes > 0 && fileHeader.Size > int64(c.maxUploadBytes) {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("%s exceeds %d bytes", fileHeader.Filename, c.maxUploadBytes))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Unable to read uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Unable to read uploaded file")
	}

	return &entity.ImageUpload{
		Category: slot,
		Filename: fileHeader.Filename,
		Data:     data,
	}, nil
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrUploadFailed):
		return fiber.NewError(fiber.StatusBadGateway, "none of the images could be stored")
	case errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrUnsupportedImage),
		errors.Is(err, service.ErrTooManyImages):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}
