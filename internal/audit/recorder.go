package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conntrace-systems/conntrace/internal/metrics"
	"github.com/conntrace-systems/conntrace/internal/models"
)

// Sink receives audit entries. Implementations are externally-owned
// delivery channels (structured log, NATS subject, durable store).
type Sink interface {
	Write(ctx context.Context, entry models.AuditEntry) error
}

// sinkTimeout bounds each sink write so a stalled sink cannot back up the
// worker indefinitely.
const sinkTimeout = 5 * time.Second

// Recorder emits audit entries to its sinks through a buffered worker.
// Record never blocks the primary operation and sink failures never
// propagate: they are logged locally as warnings, keeping enough context to
// reconstruct the trail.
type Recorder struct {
	signer *Signer
	sinks  []Sink
	queue  chan models.AuditEntry
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// NewRecorder starts a recorder draining into the given sinks. bufferSize
// bounds the in-flight queue; entries beyond it are dropped and counted.
func NewRecorder(signer *Signer, bufferSize int, sinks ...Sink) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	r := &Recorder{
		signer: signer,
		sinks:  sinks,
		queue:  make(chan models.AuditEntry, bufferSize),
	}
	r.wg.Add(1)
	go r.drain()
	return r
}

// Record emits exactly one entry for a logical action. It assigns the entry
// id and signature, then hands off to the worker without blocking; when the
// buffer is full the entry is dropped, counted and logged, never failed.
func (r *Recorder) Record(action, actor, clientAddr, userAgent string, details map[string]interface{}) {
	entry := models.AuditEntry{
		ID:            uuid.New().String(),
		Action:        action,
		ActorIdentity: actor,
		ClientAddress: clientAddr,
		UserAgent:     userAgent,
		Timestamp:     time.Now().UTC(),
		Details:       details,
	}
	if r.signer != nil {
		entry.Signature = r.signer.Sign(entry.ID, entry.Timestamp, entry.ActorIdentity, entry.Action)
	}

	metrics.AuditEntriesTotal.WithLabelValues(action).Inc()

	select {
	case r.queue <- entry:
	default:
		metrics.AuditDroppedTotal.Inc()
		slog.Warn("audit buffer full, entry dropped",
			slog.String("action", action),
			slog.String("actor", actor),
		)
	}
}

func (r *Recorder) drain() {
	defer r.wg.Done()
	for entry := range r.queue {
		for _, sink := range r.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			if err := sink.Write(ctx, entry); err != nil {
				// Never escalated: the primary response already went out.
				// Log with enough context to reconstruct the trail.
				slog.Warn("audit sink write failed",
					slog.String("action", entry.Action),
					slog.String("actor", entry.ActorIdentity),
					slog.Time("timestamp", entry.Timestamp),
					slog.String("error", err.Error()),
				)
			}
			cancel()
		}
	}
}

// Close drains pending entries and stops the worker.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)
	})
	r.wg.Wait()
}

// LogSink writes audit entries to the structured log. Always configured so
// the trail survives even when every other sink is down.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger uses slog.Default.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Write logs the entry at Info level.
func (s *LogSink) Write(_ context.Context, entry models.AuditEntry) error {
	s.logger.Info("audit",
		slog.String("id", entry.ID),
		slog.String("action", entry.Action),
		slog.String("actor", entry.ActorIdentity),
		slog.String("client_address", entry.ClientAddress),
		slog.String("user_agent", entry.UserAgent),
		slog.Time("timestamp", entry.Timestamp),
		slog.Any("details", entry.Details),
	)
	return nil
}
