package delivery

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

const defaultSMTPPort = 587

// EmailConfig holds SMTP settings for the email channel.
type EmailConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	// To defaults to Username when empty.
	To      []string
	Timeout time.Duration
}

// EmailNotifier mails a plain text report over SMTP, upgrading with
// STARTTLS when the server offers it.
type EmailNotifier struct {
	cfg    EmailConfig
	logger *slog.Logger
	now    func() time.Time
}

var _ domain.Notifier = (*EmailNotifier)(nil)

// NewEmailNotifier creates an email notifier.
func NewEmailNotifier(cfg EmailConfig, logger *slog.Logger) *EmailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultSMTPPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.To) == 0 && cfg.Username != "" {
		cfg.To = []string{cfg.Username}
	}
	return &EmailNotifier{cfg: cfg, logger: logger, now: time.Now}
}

func (n *EmailNotifier) Name() string { return "email" }

// Notify sends the report to every recipient in one message.
func (n *EmailNotifier) Notify(ctx context.Context, report domain.Report) error {
	if n.cfg.Server == "" || n.cfg.Username == "" || n.cfg.Password == "" {
		return errors.New("email smtp server, username and password are required")
	}
	msg := n.buildMessage(report)
	if err := n.send(ctx, msg); err != nil {
		n.logger.ErrorContext(ctx, "email send failed", "server", n.cfg.Server, "error", err)
		return err
	}
	n.logger.InfoContext(ctx, "email sent", "recipients", len(n.cfg.To))
	return nil
}

func (n *EmailNotifier) send(ctx context.Context, msg []byte) error {
	addr := net.JoinHostPort(n.cfg.Server, strconv.Itoa(n.cfg.Port))
	dialer := &net.Dialer{Timeout: n.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	deadline := time.Now().Add(n.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, n.cfg.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: n.cfg.Server, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if ok, _ := client.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Server)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(n.cfg.Username); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, to := range n.cfg.To {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", to, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}
	return client.Quit()
}

func (n *EmailNotifier) buildMessage(report domain.Report) []byte {
	var buf bytes.Buffer
	buf.WriteString("From: " + n.cfg.Username + "\r\n")
	buf.WriteString("To: " + strings.Join(n.cfg.To, ", ") + "\r\n")
	buf.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", PlainText(report.Title)) + "\r\n")
	buf.WriteString("Date: " + n.now().Format(time.RFC1123Z) + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(PlainText(report.Body), "\n", "\r\n"))
	buf.WriteString("\r\n")
	return buf.Bytes()
}
