package auditlog

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sink stamps round events with the agent, session and bet house and never lets
// a failure reach the caller.
type Sink struct {
	client   *Client
	agent    string
	session  string
	betHouse string
	timeout  time.Duration
	logger   *zap.Logger
}

func NewSink(client *Client, agent, session, betHouse string, timeout time.Duration, logger *zap.Logger) *Sink {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if agent == "" {
		agent = "bethouse-oracle"
	}
	return &Sink{client: client, agent: agent, session: session, betHouse: betHouse, timeout: timeout, logger: logger}
}

// Emit is a no-op on a nil sink or one without a client.
func (s *Sink) Emit(ctx context.Context, ev RoundEvent) {
	if s == nil || s.client == nil {
		return
	}
	// Detached so the failure event of a cancelled session still goes out.
	ctx2, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.client.Record(ctx2, s.agent, s.session, s.betHouse, ev); err != nil {
		s.logger.Warn("audit event dropped",
			zap.String("kind", string(ev.Kind)),
			zap.Uint64("round_id", ev.RoundID),
			zap.Error(err),
		)
	}
}
