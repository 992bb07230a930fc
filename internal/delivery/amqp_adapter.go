// internal/delivery/amqp_adapter.go
package delivery

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// DeliverQueue is the durable queue the delivery agent consumes.
const DeliverQueue = "invite_deliveries"

// DefaultReplyTimeout bounds how long a Deliver call waits for the agent.
// Browser automation is slow; a full attempt can take a couple of minutes.
const DefaultReplyTimeout = 3 * time.Minute

// AMQPAdapter sends delivery requests to the out-of-process agent over
// RabbitMQ and waits for the correlated reply. One request is in flight at
// a time; a timed-out request resolves to a failed outcome so the caller
// always gets one of the three results.
type AMQPAdapter struct {
	ch           *amqp.Channel
	replyQueue   string
	replies      <-chan amqp.Delivery
	replyTimeout time.Duration
	mu           sync.Mutex
}

// NewAMQPAdapter declares the request queue and a private reply queue on the
// given connection.
func NewAMQPAdapter(conn *amqp.Connection) (*AMQPAdapter, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		DeliverQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}

	reply, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	replies, err := ch.Consume(reply.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, err
	}

	return &AMQPAdapter{
		ch:           ch,
		replyQueue:   reply.Name,
		replies:      replies,
		replyTimeout: DefaultReplyTimeout,
	}, nil
}

func (a *AMQPAdapter) Deliver(ctx context.Context, req Request) (Outcome, error) {
	// Serialize defensively; the scheduler's send lock is the primary guard.
	a.mu.Lock()
	defer a.mu.Unlock()

	body, err := json.Marshal(req)
	if err != nil {
		return Outcome{}, err
	}

	corrID := uuid.NewString()
	err = a.ch.Publish(
		"", DeliverQueue, false, false,
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: corrID,
			ReplyTo:       a.replyQueue,
			Body:          body,
		},
	)
	if err != nil {
		return Outcome{}, err
	}

	timeout := time.NewTimer(a.replyTimeout)
	defer timeout.Stop()

	for {
		select {
		case d, ok := <-a.replies:
			if !ok {
				return Failed("delivery agent connection lost"), nil
			}
			if d.CorrelationId != corrID {
				// Stale reply from a previous timed-out request.
				continue
			}
			var out Outcome
			if err := json.Unmarshal(d.Body, &out); err != nil {
				logrus.WithError(err).Error("[DELIVERY] malformed agent reply")
				return Failed("malformed agent reply"), nil
			}
			return out, nil
		case <-timeout.C:
			return Failed("delivery agent timeout"), nil
		case <-ctx.Done():
			return Failed(ctx.Err().Error()), nil
		}
	}
}
