package world

import (
	"github.com/farmdemo/server/internal/core/event"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// maxHistory bounds the number of records each Console list keeps.
const maxHistory = 200

// Console writes the user-facing records (toasts, log messages, prints,
// photos) to the logger and keeps the most recent ones for inspection.
type Console struct {
	log *zap.Logger

	toasts   []event.Toasted
	messages []event.MessageLogged
	prints   []string
	photos   []event.PhotoTaken
}

func NewConsole(log *zap.Logger) *Console {
	return &Console{log: log}
}

// Attach subscribes the console to the record events on bus.
func (c *Console) Attach(bus *event.Bus) {
	event.Subscribe(bus, c.onToast)
	event.Subscribe(bus, c.onMessage)
	event.Subscribe(bus, c.onPrint)
	event.Subscribe(bus, c.onPhoto)
}

func (c *Console) Toasts() []event.Toasted { return c.toasts }

func (c *Console) Messages() []event.MessageLogged { return c.messages }

func (c *Console) Prints() []string { return c.prints }

func (c *Console) Photos() []event.PhotoTaken { return c.photos }

func (c *Console) onToast(e event.Toasted) {
	c.toasts = keep(c.toasts, e)
	fields := []zap.Field{zap.String("type", e.Type)}
	if e.Title != "" {
		fields = append(fields, zap.String("title", e.Title))
	}
	if ce := c.log.Check(messageLevel(e.Type), "toast: "+e.Message); ce != nil {
		ce.Write(fields...)
	}
}

func (c *Console) onMessage(e event.MessageLogged) {
	c.messages = keep(c.messages, e)
	if ce := c.log.Check(messageLevel(e.Type), e.Message); ce != nil {
		ce.Write(
			zap.String("type", e.Type),
			zap.Strings("channels", e.Channels),
			zap.Stringer("position", e.Position),
			zap.Int("verbosity", e.Verbosity),
		)
	}
}

func (c *Console) onPrint(e event.Printed) {
	c.prints = keep(c.prints, e.Text)
	c.log.Info("print", zap.String("text", e.Text))
}

func (c *Console) onPhoto(e event.PhotoTaken) {
	c.photos = keep(c.photos, e)
	c.log.Info("photo taken",
		zap.String("url", e.URL),
		zap.Stringer("position", e.Position),
	)
}

// messageLevel maps a send_message type to a log level.
func messageLevel(kind string) zapcore.Level {
	switch kind {
	case "error":
		return zapcore.ErrorLevel
	case "warn":
		return zapcore.WarnLevel
	case "debug":
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func keep[T any](list []T, v T) []T {
	list = append(list, v)
	if len(list) > maxHistory {
		list = list[len(list)-maxHistory:]
	}
	return list
}
