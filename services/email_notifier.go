package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/arenaline/chess-arena/repositories"
)

type EmailNotifierConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// EmailNotifier delivers announcements over SMTP, resolving competitor ids to
// email addresses through the competitor repository. Delivery failures for a
// single recipient are logged and skipped so one bad address does not block
// the rest of a broadcast.
type EmailNotifier struct {
	cfg            EmailNotifierConfig
	competitorRepo repositories.CompetitorRepository
	logger         *slog.Logger
}

func NewEmailNotifier(cfg EmailNotifierConfig, competitorRepo repositories.CompetitorRepository, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, competitorRepo: competitorRepo, logger: logger}
}

func (n *EmailNotifier) Notify(ctx context.Context, competitorIDs []int, title, body string, metadata map[string]string) error {
	for _, id := range competitorIDs {
		competitor, err := n.competitorRepo.GetByID(ctx, id)
		if err != nil {
			n.logger.WarnContext(ctx, "skipping notification for unknown competitor",
				slog.Int("competitor_id", id), slog.Any("error", err))
			continue
		}
		if err := n.send(competitor.Email, title, body); err != nil {
			n.logger.ErrorContext(ctx, "failed to deliver notification email",
				slog.Int("competitor_id", id), slog.Any("error", err))
		}
	}
	return nil
}

func (n *EmailNotifier) send(to, subject, body string) error {
	msg := []byte("To: " + to + "\r\n" +
		"From: " + n.cfg.From + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/plain; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	tlsConfig := &tls.Config{ServerName: n.cfg.Host}

	var client *smtp.Client
	if n.cfg.Port == 465 {
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("TLS dial failed: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, n.cfg.Host)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
	} else {
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("SMTP dial failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", n.cfg.User, n.cfg.Pass, n.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth failed: %w", err)
	}
	if err := client.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close DATA: %w", err)
	}
	return nil
}
