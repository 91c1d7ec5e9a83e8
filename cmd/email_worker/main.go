package main

import (
	"context"
	"encoding/json"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/streamtube-backend/config"
	"github.com/oksasatya/streamtube-backend/pkg/helpers"
	"github.com/oksasatya/streamtube-backend/pkg/mailer"
	"github.com/oksasatya/streamtube-backend/pkg/mailer/templates"
)

// email_worker consumes email jobs from RabbitMQ and sends them via Mailgun.
// Run alongside the API server: go run ./cmd/email_worker
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" {
		log.Fatal("MAILGUN_DOMAIN and MAILGUN_API_KEY are required")
	}
	mailClient := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(cfg.RabbitMQEmailQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}
	if err := ch.Qos(5, 0, false); err != nil {
		log.Fatalf("failed to set qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("failed to start consumer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Infof("email worker consuming from %q", cfg.RabbitMQEmailQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("email worker shutting down")
			return
		case d, ok := <-msgs:
			if !ok {
				logger.Warn("consumer channel closed")
				return
			}
			handleDelivery(ctx, logger, mailClient, d)
		}
	}
}

func handleDelivery(ctx context.Context, logger *logrus.Logger, mailClient *mailer.Mailgun, d amqp.Delivery) {
	var job mailer.EmailJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		logger.Errorf("invalid email job payload: %v", err)
		_ = d.Nack(false, false) // drop malformed messages
		return
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := templates.Render(job.Template, job.Data)
		if err != nil {
			logger.Errorf("render template %q: %v", job.Template, err)
			_ = d.Nack(false, false)
			return
		}
		subject, text, html = s, t, h
	}

	if err := mailClient.Send(ctx, job.To, subject, text, html); err != nil {
		logger.Errorf("send email to %s: %v", job.To, err)
		_ = d.Nack(false, true) // requeue on transient send failure
		return
	}
	logger.Infof("sent %q email to %s", subject, job.To)
	_ = d.Ack(false)
}
