package service

import (
	"context"
	"encoding/json"
	"time"

	"voicenote-vector-be/internal/dto"
	"voicenote-vector-be/internal/pkg/logger"
	"voicenote-vector-be/pkg/apperror"
	"voicenote-vector-be/pkg/lock"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

const lockTTL = 2 * time.Minute

// ConsumerTopics names the worker's queue topics.
type ConsumerTopics struct {
	Recording string
	Note      string
	Poison    string
}

type IConsumerService interface {
	// Consume wires the worker router and starts it in the background.
	Consume(ctx context.Context) error
	Close() error
}

type consumerService struct {
	subscriber message.Subscriber
	publisher  message.Publisher
	topics     ConsumerTopics
	indexSvc   IIndexService
	keyedLock  *lock.KeyedLock
	log        logger.ILogger
	router     *message.Router
}

func NewConsumerService(
	subscriber message.Subscriber,
	publisher message.Publisher,
	topics ConsumerTopics,
	indexSvc IIndexService,
	keyedLock *lock.KeyedLock,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		publisher:  publisher,
		topics:     topics,
		indexSvc:   indexSvc,
		keyedLock:  keyedLock,
		log:        log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	wmLogger := watermill.NewStdLogger(false, false)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return err
	}
	cs.router = router

	poisonQueue, err := middleware.PoisonQueue(cs.publisher, cs.topics.Poison)
	if err != nil {
		return err
	}

	retry := middleware.Retry{
		MaxRetries:      3,
		InitialInterval: time.Second,
		Multiplier:      2.0,
		MaxInterval:     30 * time.Second,
		Logger:          wmLogger,
	}

	// Order matters: PoisonQueue sits outside Retry so a message is parked
	// only after the retries are exhausted.
	router.AddMiddleware(
		middleware.Recoverer,
		poisonQueue,
		retry.Middleware,
	)

	router.AddNoPublisherHandler(
		"vectorize_recording",
		cs.topics.Recording,
		cs.subscriber,
		cs.handleRecording,
	)
	router.AddNoPublisherHandler(
		"vectorize_note",
		cs.topics.Note,
		cs.subscriber,
		cs.handleNote,
	)

	go func() {
		if err := router.Run(ctx); err != nil {
			cs.log.Error("consumer", "worker router stopped", map[string]interface{}{"error": err.Error()})
		}
	}()

	return nil
}

func (cs *consumerService) handleRecording(msg *message.Message) error {
	var payload dto.VectorizeRecordingMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("consumer", "unreadable recording task, dropping", map[string]interface{}{"error": err.Error()})
		return nil
	}

	ctx := msg.Context()
	release, ok, err := cs.acquire(ctx, "rec:"+payload.RecordingId.String())
	if err != nil {
		return err
	}
	if !ok {
		// Another worker holds this key; redeliver after backoff.
		return apperror.Newf(apperror.KindStoreFailure, "consumer.recording", payload.RecordingId.String(),
			"key is locked by another worker")
	}
	defer release()

	result, err := cs.indexSvc.IndexChunkText(ctx, payload.NoteId, payload.RecordingId, payload.Text, payload.SegmentIds)
	if err != nil {
		return cs.settle(err, "recording task failed", payload.RecordingId.String())
	}

	cs.log.Info("consumer", "recording task done", map[string]interface{}{
		"recording_id": payload.RecordingId, "status": result.Status, "reason": result.Reason,
		"segments_created": result.SegmentsCreated,
	})
	return nil
}

func (cs *consumerService) handleNote(msg *message.Message) error {
	var payload dto.VectorizeNoteMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("consumer", "unreadable note task, dropping", map[string]interface{}{"error": err.Error()})
		return nil
	}

	ctx := msg.Context()
	release, ok, err := cs.acquire(ctx, "note:"+payload.NoteId.String())
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Newf(apperror.KindStoreFailure, "consumer.note", payload.NoteId.String(),
			"key is locked by another worker")
	}
	defer release()

	result, err := cs.indexSvc.IndexNoteText(ctx, payload.NoteId, payload.AggregateText, payload.SegmentIds)
	if err != nil {
		return cs.settle(err, "note task failed", payload.NoteId.String())
	}

	cs.log.Info("consumer", "note task done", map[string]interface{}{
		"note_id": payload.NoteId, "status": result.Status, "reason": result.Reason,
	})
	return nil
}

func (cs *consumerService) acquire(ctx context.Context, key string) (func(), bool, error) {
	if cs.keyedLock == nil {
		return func() {}, true, nil
	}
	return cs.keyedLock.Acquire(ctx, key, lockTTL)
}

// settle decides between ack and retry: non-retriable failures (blank input,
// bad config) would fail identically on redelivery, so they are logged and
// acked instead of poisoning the queue.
func (cs *consumerService) settle(err error, what, key string) error {
	if !apperror.IsRetriable(err) {
		cs.log.Warn("consumer", what+", not retriable, dropping", map[string]interface{}{
			"key": key, "error": err.Error(),
		})
		return nil
	}
	cs.log.Error("consumer", what, map[string]interface{}{"key": key, "error": err.Error()})
	return err
}

func (cs *consumerService) Close() error {
	if cs.router != nil {
		return cs.router.Close()
	}
	return nil
}
