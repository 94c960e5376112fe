package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"dronemarket_backend/internal/logger"
)

// SubjectPrefix - все события уходят в marketplace.<name>
const SubjectPrefix = "marketplace."

type natsConn interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher публикует события в NATS core
type NATSPublisher struct {
	conn natsConn
	nc   *nats.Conn
}

// ConnectNATS подключается к серверу с бесконечным переподключением
func ConnectNATS(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("dronemarket-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc, nc: nc}, nil
}

func newNATSPublisher(conn natsConn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.Name, err)
	}
	if err := p.conn.Publish(SubjectPrefix+ev.Name, data); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Name, err)
	}
	logger.CtxDebug(ctx, "event published", "subject", SubjectPrefix+ev.Name)
	return nil
}

// Close дожидается отправки буфера и закрывает соединение
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}
