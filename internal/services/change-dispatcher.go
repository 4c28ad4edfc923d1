package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SundayYogurt/rote_service/internal/dto"
	"github.com/SundayYogurt/rote_service/internal/interfaces"
	"github.com/SundayYogurt/rote_service/internal/repository"
	"github.com/gofiber/fiber/v2/log"
)

const DefaultDispatcherName = "kafka"

// ChangeDispatcher forwards committed change records to the broker, oldest first.
// Its cursor is the (created_at, id) position of the last published record and is saved
// only after the publish succeeds, so every record is forwarded at least once.
// Records younger than lag are held back for a later pass, which lets a transaction that
// committed after a newer record still be picked up.
type ChangeDispatcher struct {
	name     string
	changes  repository.ChangeLogRepository
	cursors  repository.DispatchCursorRepository
	producer interfaces.ProducerHandler
	batch    int
	interval time.Duration
	lag      time.Duration
}

func NewChangeDispatcher(
	name string,
	changes repository.ChangeLogRepository,
	cursors repository.DispatchCursorRepository,
	producer interfaces.ProducerHandler,
	batch int,
	interval time.Duration,
	lag time.Duration,
) *ChangeDispatcher {
	if name == "" {
		name = DefaultDispatcherName
	}
	if batch <= 0 {
		batch = 100
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if lag < 0 {
		lag = 0
	}
	return &ChangeDispatcher{
		name:     name,
		changes:  changes,
		cursors:  cursors,
		producer: producer,
		batch:    batch,
		interval: interval,
		lag:      lag,
	}
}

// Run dispatches on every tick until ctx is cancelled.
func (d *ChangeDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	log.Infof("[dispatcher:%s] started, interval=%s batch=%d lag=%s", d.name, d.interval, d.batch, d.lag)
	for {
		if _, err := d.DispatchOnce(ctx); err != nil && ctx.Err() == nil {
			log.Warnw("change dispatch failed", "dispatcher", d.name, "error", err)
		}
		select {
		case <-ctx.Done():
			log.Infof("[dispatcher:%s] stopped", d.name)
			return
		case <-ticker.C:
		}
	}
}

// DispatchOnce drains the backlog in batches and returns how many records were published.
// A publish failure stops the pass; the cursor stays on the last published record.
func (d *ChangeDispatcher) DispatchOnce(ctx context.Context) (int, error) {
	cursor, err := d.cursors.Load(ctx, d.name)
	if err != nil {
		return 0, err
	}

	// one bound for the whole pass
	var until time.Time
	if d.lag > 0 {
		until = time.Now().Add(-d.lag)
	}

	sent := 0
	for {
		recs, err := d.changes.ListAfterAll(ctx, cursor, until, d.batch)
		if err != nil {
			return sent, err
		}
		for _, rec := range recs {
			payload, err := json.Marshal(dto.NewChangeEvent(rec))
			if err != nil {
				return sent, fmt.Errorf("encode change %s: %w", rec.ID, err)
			}
			if err := d.producer.PublishMessage(ctx, []byte(rec.OriginID.String()), payload); err != nil {
				return sent, fmt.Errorf("publish change %s: %w", rec.ID, err)
			}
			pos := repository.PositionOf(rec)
			if err := d.cursors.Save(ctx, d.name, pos); err != nil {
				return sent, err
			}
			cursor = pos
			sent++
		}
		if len(recs) < d.batch {
			return sent, nil
		}
	}
}
