// cmd/server/main.go
package main

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/faststart/inviter-backend/internal/config"
	"github.com/faststart/inviter-backend/internal/controller"
	"github.com/faststart/inviter-backend/internal/db"
	"github.com/faststart/inviter-backend/internal/delivery"
	"github.com/faststart/inviter-backend/internal/handler"
	"github.com/faststart/inviter-backend/internal/presence"
	"github.com/faststart/inviter-backend/internal/repository"
	"github.com/faststart/inviter-backend/internal/scheduler"
)

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("[SERVER] db open failed: %v", err)
	}
	defer database.Close()

	amqpConn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		logrus.Fatalf("[SERVER] amqp dial failed: %v", err)
	}
	defer amqpConn.Close()

	adapter, err := delivery.NewAMQPAdapter(amqpConn)
	if err != nil {
		logrus.Fatalf("[SERVER] delivery adapter setup failed: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	presenceDetector := presence.NewRedisDetector(redisClient)

	friendRepo := &repository.FriendRepository{DB: database}
	listRepo := &repository.ListRepository{DB: database}
	templateRepo := &repository.TemplateRepository{DB: database}
	campaignRepo := &repository.CampaignRepository{DB: database}

	sched := scheduler.New(campaignRepo, templateRepo, listRepo, adapter, cfg, nil, nil)
	// Pick up where a previous process left off: if a campaign is live and
	// no timer is armed, arm one.
	if err := sched.Recover(); err != nil {
		logrus.Warnf("[SERVER] scheduler recovery failed: %v", err)
	}

	campaignController := &controller.CampaignController{
		Scheduler:    sched,
		CampaignRepo: campaignRepo,
	}
	friendHandler := &handler.FriendHandler{Friends: friendRepo, CampaignRepo: campaignRepo}
	listHandler := &handler.ListHandler{Lists: listRepo}
	templateHandler := &handler.TemplateHandler{
		Templates: templateRepo,
		Friends:   friendRepo,
		Scheduler: sched,
		Rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	presenceHandler := &handler.PresenceHandler{Presence: presenceDetector}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Friends
	r.Get("/friends", friendHandler.ListFriends)
	r.Post("/friends/refresh", friendHandler.RefreshFriends)

	// Lists
	r.Get("/lists", listHandler.ListLists)
	r.Post("/lists", listHandler.CreateList)
	r.Get("/lists/{id}", listHandler.GetList)
	r.Put("/lists/{id}", listHandler.UpdateList)
	r.Delete("/lists/{id}", listHandler.DeleteList)
	r.Post("/lists/message-history", friendHandler.MessageHistory)

	// Templates
	r.Get("/templates", templateHandler.ListTemplates)
	r.Post("/templates", templateHandler.CreateTemplate)
	r.Put("/templates/{id}", templateHandler.UpdateTemplate)
	r.Delete("/templates/{id}", templateHandler.DeleteTemplate)
	r.Post("/templates/{id}/preview", templateHandler.PreviewTemplate)

	// Campaigns
	r.Post("/campaigns", campaignController.StartCampaign)
	r.Get("/campaigns/current", campaignController.GetStatus)
	r.Post("/campaigns/current/pause", campaignController.PauseCampaign)
	r.Post("/campaigns/current/resume", campaignController.ResumeCampaign)
	r.Post("/campaigns/current/cancel", campaignController.CancelCampaign)
	r.Get("/campaigns/{id}/records", campaignController.ListRecords)
	r.Post("/campaigns/records/{id}/send-now", campaignController.SendNow)

	// Presence
	r.Post("/presence/heartbeat", presenceHandler.Heartbeat)

	logrus.Infof("[SERVER] listening on :%s", cfg.Port)
	logrus.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
