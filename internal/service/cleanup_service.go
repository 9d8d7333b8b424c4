package service

import (
	"context"
	"fmt"

	"voicenote-vector-be/internal/pkg/logger"
	"voicenote-vector-be/pkg/events"
	pktNats "voicenote-vector-be/pkg/nats"

	"github.com/google/uuid"
)

// ICleanupService listens for deletion events from the owning subsystems and
// cascades them into the embedding index, so a deleted note or recording never
// keeps matching searches.
type ICleanupService interface {
	Start() error
}

type cleanupService struct {
	subscriber  *pktNats.Subscriber
	consistency IConsistencyService
	log         logger.ILogger
}

func NewCleanupService(subscriber *pktNats.Subscriber, consistency IConsistencyService, log logger.ILogger) ICleanupService {
	return &cleanupService{
		subscriber:  subscriber,
		consistency: consistency,
		log:         log,
	}
}

func (s *cleanupService) Start() error {
	if err := s.subscriber.Subscribe("events."+events.TypeNoteDeleted, "vector-note-cleanup", s.onNoteDeleted); err != nil {
		return err
	}
	return s.subscriber.Subscribe("events."+events.TypeRecordingDeleted, "vector-recording-cleanup", s.onRecordingDeleted)
}

func (s *cleanupService) onNoteDeleted(ctx context.Context, evt events.Event) error {
	noteId, err := payloadId(evt, "note_id")
	if err != nil {
		// Malformed events are dropped; redelivery cannot fix them.
		s.log.Warn("cleanup", "ignoring malformed NOTE_DELETED event", map[string]interface{}{"error": err.Error()})
		return nil
	}

	result, err := s.consistency.DeleteByNote(ctx, noteId)
	if err != nil {
		return err
	}
	s.log.Info("cleanup", "note deletion cascaded", map[string]interface{}{
		"note_id": noteId, "records_deleted": result.RecordsDeleted, "store_failures": result.StoreFailures,
	})
	return nil
}

func (s *cleanupService) onRecordingDeleted(ctx context.Context, evt events.Event) error {
	recordingId, err := payloadId(evt, "recording_id")
	if err != nil {
		s.log.Warn("cleanup", "ignoring malformed RECORDING_DELETED event", map[string]interface{}{"error": err.Error()})
		return nil
	}

	result, err := s.consistency.DeleteByRecording(ctx, recordingId)
	if err != nil {
		return err
	}
	s.log.Info("cleanup", "recording deletion cascaded", map[string]interface{}{
		"recording_id": recordingId, "records_deleted": result.RecordsDeleted, "store_failures": result.StoreFailures,
	})
	return nil
}

func payloadId(evt events.Event, key string) (uuid.UUID, error) {
	raw, ok := evt.Payload()[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("event %s has no %s", evt.EventType(), key)
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("event %s: %s is not a string", evt.EventType(), key)
	}
	return uuid.Parse(str)
}
