package service

import (
	"context"
	"encoding/json"

	"voicenote-vector-be/internal/dto"
	"voicenote-vector-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IPublisherService enqueues vectorization tasks. The HTTP layer only ever
// enqueues; embedding happens in the worker consumer.
type IPublisherService interface {
	PublishRecording(ctx context.Context, msg dto.VectorizeRecordingMessage) error
	PublishNote(ctx context.Context, msg dto.VectorizeNoteMessage) error
}

type publisherService struct {
	publisher      message.Publisher
	recordingTopic string
	noteTopic      string
	log            logger.ILogger
}

func NewPublisherService(publisher message.Publisher, recordingTopic, noteTopic string, log logger.ILogger) IPublisherService {
	return &publisherService{
		publisher:      publisher,
		recordingTopic: recordingTopic,
		noteTopic:      noteTopic,
		log:            log,
	}
}

func (s *publisherService) PublishRecording(ctx context.Context, msg dto.VectorizeRecordingMessage) error {
	return s.publish(ctx, s.recordingTopic, msg)
}

func (s *publisherService) PublishNote(ctx context.Context, msg dto.VectorizeNoteMessage) error {
	return s.publish(ctx, s.noteTopic, msg)
}

func (s *publisherService) publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	wmMsg := message.NewMessage(watermill.NewUUID(), data)
	wmMsg.SetContext(ctx)

	if err := s.publisher.Publish(topic, wmMsg); err != nil {
		s.log.Error("publisher", "failed to publish vectorize task", map[string]interface{}{
			"topic": topic, "error": err.Error(),
		})
		return err
	}

	s.log.Debug("publisher", "vectorize task enqueued", map[string]interface{}{"topic": topic})
	return nil
}
