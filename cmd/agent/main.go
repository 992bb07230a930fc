// cmd/agent/main.go
package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/faststart/inviter-backend/internal/config"
	"github.com/faststart/inviter-backend/internal/delivery"
	"github.com/faststart/inviter-backend/internal/presence"
)

// The agent is the process that actually touches the messaging surface. It
// consumes delivery requests from the queue, checks for a human on the
// surface, drives the automator, and replies with the outcome.
func main() {
	cfg := config.Load()

	amqpConn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		logrus.Fatalf("[AGENT] amqp dial failed: %v", err)
	}
	defer amqpConn.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	detector := presence.NewRedisDetector(redisClient)

	automator := delivery.NewMockAutomator(rand.New(rand.NewSource(time.Now().UnixNano())))

	agent, err := delivery.NewAgent(amqpConn, automator, detector)
	if err != nil {
		logrus.Fatalf("[AGENT] setup failed: %v", err)
	}

	logrus.Info("[AGENT] consuming delivery requests")
	if err := agent.Run(context.Background()); err != nil {
		logrus.Fatalf("[AGENT] run failed: %v", err)
	}
}
