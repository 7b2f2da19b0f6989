package notify

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	Success Type = "success"
	Info    Type = "info"
	Warning Type = "warning"
	Error   Type = "error"
)

// Notification is a fire-and-forget user-visible toast.
type Notification struct {
	Key         string
	Type        Type
	Title       string
	Description string
	Duration    time.Duration
}

// Notifier is the UI toast collaborator.
type Notifier interface {
	Open(n Notification)
}

// NewKey returns a unique notification key.
func NewKey() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Log is a Notifier that writes notifications to a logger. It is the default
// when no UI surface is attached.
type Log struct {
	Logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{Logger: logger}
}

func (l *Log) Open(n Notification) {
	attrs := []any{"key", n.Key, "title", n.Title, "description", n.Description}
	switch n.Type {
	case Warning:
		l.Logger.Warn("notification", attrs...)
	case Error:
		l.Logger.Error("notification", attrs...)
	default:
		l.Logger.Info("notification", attrs...)
	}
}
