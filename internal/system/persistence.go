package system

import (
	"context"
	"time"

	"github.com/farmdemo/server/internal/core/event"
	coresys "github.com/farmdemo/server/internal/core/system"
	"github.com/farmdemo/server/internal/data"
	"github.com/farmdemo/server/internal/persist"
	"go.uber.org/zap"
)

// PointStore saves points created by measure and detect macros.
type PointStore interface {
	Save(ctx context.Context, p data.Point) (int, error)
}

type ImageStore interface {
	Save(ctx context.Context, img persist.ImageRow) error
}

type LogStore interface {
	SaveBatch(ctx context.Context, logs []persist.LogRow) error
}

// PersistenceSystem writes effect records to the database. Points and
// images are saved on the tick after they are recorded; logs wait until
// they are saveDelay old. Phase 3 (Persist).
type PersistenceSystem struct {
	points    PointStore
	images    ImageStore
	logs      LogStore
	now       func() time.Time
	saveDelay time.Duration
	log       *zap.Logger

	pendingPoints []data.Point
	pendingImages []persist.ImageRow
	pendingLogs   []persist.LogRow
}

func NewPersistenceSystem(points PointStore, images ImageStore, logs LogStore, now func() time.Time, saveDelay time.Duration, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		points:    points,
		images:    images,
		logs:      logs,
		now:       now,
		saveDelay: saveDelay,
		log:       log,
	}
}

// Attach subscribes to the records the system saves.
func (s *PersistenceSystem) Attach(bus *event.Bus) {
	event.Subscribe(bus, s.onPoint)
	event.Subscribe(bus, s.onPhoto)
	event.Subscribe(bus, s.onMessage)
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.flush(s.now().Add(-s.saveDelay))
}

// Flush saves everything pending regardless of age. Called on shutdown.
func (s *PersistenceSystem) Flush() {
	s.flush(time.Time{})
}

// Pending returns the number of records not yet saved.
func (s *PersistenceSystem) Pending() int {
	return len(s.pendingPoints) + len(s.pendingImages) + len(s.pendingLogs)
}

func (s *PersistenceSystem) onPoint(e event.PointCreated) {
	s.pendingPoints = append(s.pendingPoints, e.Point)
}

func (s *PersistenceSystem) onPhoto(e event.PhotoTaken) {
	s.pendingImages = append(s.pendingImages, persist.ImageRow{
		URL:       e.URL,
		Name:      e.Name,
		X:         e.Position.X,
		Y:         e.Position.Y,
		Z:         e.Position.Z,
		CreatedAt: e.At,
	})
}

func (s *PersistenceSystem) onMessage(e event.MessageLogged) {
	s.pendingLogs = append(s.pendingLogs, persist.LogRow{
		Type:      e.Type,
		Message:   e.Message,
		Channels:  e.Channels,
		X:         e.Position.X,
		Y:         e.Position.Y,
		Z:         e.Position.Z,
		Verbosity: e.Verbosity,
		CreatedAt: e.At,
	})
}

// flush saves points, images and the logs recorded at or before cutoff. A
// zero cutoff saves every log. Failed writes are logged and dropped.
func (s *PersistenceSystem) flush(cutoff time.Time) {
	if s.Pending() == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, p := range s.pendingPoints {
		if _, err := s.points.Save(ctx, p); err != nil {
			s.log.Error("save point failed", zap.Int("point", p.ID), zap.Error(err))
		}
	}
	s.pendingPoints = s.pendingPoints[:0]

	for _, img := range s.pendingImages {
		if err := s.images.Save(ctx, img); err != nil {
			s.log.Error("save image failed", zap.String("url", img.URL), zap.Error(err))
		}
	}
	s.pendingImages = s.pendingImages[:0]

	due := 0
	for due < len(s.pendingLogs) && (cutoff.IsZero() || !s.pendingLogs[due].CreatedAt.After(cutoff)) {
		due++
	}
	if due == 0 {
		return
	}
	if err := s.logs.SaveBatch(ctx, s.pendingLogs[:due]); err != nil {
		s.log.Error("save logs failed", zap.Int("count", due), zap.Error(err))
	} else {
		s.log.Debug("logs saved", zap.Int("count", due))
	}
	s.pendingLogs = append(s.pendingLogs[:0], s.pendingLogs[due:]...)
}
