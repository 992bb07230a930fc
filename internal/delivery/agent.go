// internal/delivery/agent.go
package delivery

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/faststart/inviter-backend/internal/presence"
)

// Automator performs the actual send against the messaging surface. The
// production implementation drives a browser; tests and local dev use the
// mock in mock.go.
type Automator interface {
	SendMessage(ctx context.Context, friendID, friendName, message string) error
}

// Agent consumes delivery requests from RabbitMQ, checks for a live human
// on the surface, runs the automator, and replies with one outcome per
// request.
type Agent struct {
	ch        *amqp.Channel
	automator Automator
	detector  presence.Detector
}

func NewAgent(conn *amqp.Connection, automator Automator, detector presence.Detector) (*Agent, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(DeliverQueue, true, false, false, false, nil); err != nil {
		return nil, err
	}
	// One unacked request at a time; the automator cannot multitask a browser.
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, err
	}
	return &Agent{ch: ch, automator: automator, detector: detector}, nil
}

// Run blocks consuming requests until the context is cancelled or the
// channel closes.
func (a *Agent) Run(ctx context.Context) error {
	msgs, err := a.ch.Consume(DeliverQueue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	logrus.Info("[AGENT] waiting for delivery requests")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			a.handle(ctx, d)
		}
	}
}

func (a *Agent) handle(ctx context.Context, d amqp.Delivery) {
	var req Request
	if err := json.Unmarshal(d.Body, &req); err != nil {
		logrus.WithError(err).Warn("[AGENT] invalid request, dropping")
		d.Ack(false)
		return
	}

	out := a.process(ctx, req)

	logrus.WithFields(logrus.Fields{
		"friend":  req.FriendName,
		"outcome": out.Result,
	}).Info("[AGENT] delivery attempt finished")

	a.reply(d, out)
	d.Ack(false)
}

func (a *Agent) process(ctx context.Context, req Request) Outcome {
	// A human actively using the surface wins; back off rather than typing
	// over them.
	human, err := a.detector.HumanPresent(ctx)
	if err != nil {
		logrus.WithError(err).Warn("[AGENT] presence check failed, assuming absent")
	}
	if human {
		return Deferred()
	}

	if err := a.automator.SendMessage(ctx, req.FriendID, req.FriendName, req.Message); err != nil {
		return Failed(err.Error())
	}
	return Sent()
}

func (a *Agent) reply(d amqp.Delivery, out Outcome) {
	if d.ReplyTo == "" {
		return
	}
	body, err := json.Marshal(out)
	if err != nil {
		logrus.WithError(err).Error("[AGENT] marshal reply")
		return
	}
	err = a.ch.Publish(
		"", d.ReplyTo, false, false,
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: d.CorrelationId,
			Body:          body,
		},
	)
	if err != nil {
		logrus.WithError(err).Error("[AGENT] publish reply")
	}
}
