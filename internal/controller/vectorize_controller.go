package controller

import (
	"voicenote-vector-be/internal/dto"
	"voicenote-vector-be/internal/pkg/serverutils"
	"voicenote-vector-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IVectorizeController interface {
	RegisterRoutes(r fiber.Router)
	VectorizeRecording(ctx *fiber.Ctx) error
	VectorizeNote(ctx *fiber.Ctx) error
	DeleteNote(ctx *fiber.Ctx) error
	DeleteRecording(ctx *fiber.Ctx) error
}

type vectorizeController struct {
	publisherService service.IPublisherService
	indexService     service.IIndexService
}

func NewVectorizeController(publisherService service.IPublisherService, indexService service.IIndexService) IVectorizeController {
	return &vectorizeController{
		publisherService: publisherService,
		indexService:     indexService,
	}
}

func (c *vectorizeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/vectorize/v1")
	h.Post("recording", c.VectorizeRecording)
	h.Post("note", c.VectorizeNote)
	h.Delete("note/:id", c.DeleteNote)
	h.Delete("recording/:id", c.DeleteRecording)
}

// VectorizeRecording enqueues a chunk-level indexing task; embedding happens
// asynchronously in the worker.
func (c *vectorizeController) VectorizeRecording(ctx *fiber.Ctx) error {
	var req dto.VectorizeRecordingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	msg := dto.VectorizeRecordingMessage{
		NoteId:      req.NoteId,
		RecordingId: req.RecordingId,
		Text:        req.Text,
		SegmentIds:  req.SegmentIds,
	}
	if err := c.publisherService.PublishRecording(ctx.Context(), msg); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Recording vectorization enqueued", dto.EnqueueResponse{
		Enqueued: true,
		Topic:    "VECTORIZE_RECORDING",
	}))
}

func (c *vectorizeController) VectorizeNote(ctx *fiber.Ctx) error {
	var req dto.VectorizeNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	msg := dto.VectorizeNoteMessage{
		NoteId:        req.NoteId,
		AggregateText: req.AggregateText,
		SegmentIds:    req.SegmentIds,
	}
	if err := c.publisherService.PublishNote(ctx.Context(), msg); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Note vectorization enqueued", dto.EnqueueResponse{
		Enqueued: true,
		Topic:    "VECTORIZE_NOTE",
	}))
}

func (c *vectorizeController) DeleteNote(ctx *fiber.Ctx) error {
	noteId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid note id")
	}

	res, err := c.indexService.Delete(ctx.Context(), noteId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete note embeddings", res))
}

func (c *vectorizeController) DeleteRecording(ctx *fiber.Ctx) error {
	recordingId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid recording id")
	}

	res, err := c.indexService.DeleteByRecording(ctx.Context(), recordingId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete recording embeddings", res))
}
