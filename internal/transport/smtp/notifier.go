// Package smtp delivers match alerts and follow-up nudges by email.
package smtp

import (
	"context"
	"fmt"
	"math"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/reclaimhq/reclaim/internal/domain"
	"github.com/reclaimhq/reclaim/internal/domain/match"
)

// Config holds the SMTP settings for outbound mail.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if c.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

// ServerAddress returns the SMTP server address in the format "host:port".
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// sendFunc matches smtp.SendMail; swapped out in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Notifier sends mail over SMTP with STARTTLS.
type Notifier struct {
	cfg    Config
	send   sendFunc
	logger *zap.Logger
}

// New creates an SMTP notifier.
func New(cfg Config, logger *zap.Logger) (*Notifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("smtp config: %w", err)
	}
	return &Notifier{cfg: cfg, send: smtp.SendMail, logger: logger}, nil
}

// SendMatchAlert mails `to` about a potential match for their item. The mail
// carries the overall confidence, the per-modality breakdown, and the
// counterpart's contact identity.
func (n *Notifier) SendMatchAlert(
	ctx context.Context,
	to domain.UserProfile,
	about domain.ItemRecord,
	matched domain.ItemRecord,
	matchedOwner domain.UserProfile,
	res match.Result,
) error {
	if to.Email == "" {
		return fmt.Errorf("recipient has no email address: %w", domain.ErrDeliveryFailed)
	}

	subject := fmt.Sprintf("Potential Match Found: Your %s might be a match!", about.Title)
	body := matchAlertBody(to, about, matched, matchedOwner, res)

	if err := n.deliver(ctx, to.Email, subject, body); err != nil {
		return fmt.Errorf("send match alert to %s: %w: %w", to.Email, domain.ErrDeliveryFailed, err)
	}

	n.logger.Info("match alert sent",
		zap.String("to", to.Email),
		zap.String("item_id", about.ID),
		zap.String("matched_item_id", matched.ID),
		zap.Float64("confidence", res.Confidence),
	)
	return nil
}

// SendFollowUpAlert mails the owner of a still-unmatched lost item the
// 48-hour nudge to report the loss in person.
func (n *Notifier) SendFollowUpAlert(ctx context.Context, to domain.UserProfile, about domain.ItemRecord) error {
	if to.Email == "" {
		return fmt.Errorf("recipient has no email address: %w", domain.ErrDeliveryFailed)
	}

	subject := "ACTION REQUIRED: No match yet for your lost item"
	body := followUpBody(to, about)

	if err := n.deliver(ctx, to.Email, subject, body); err != nil {
		return fmt.Errorf("send follow-up to %s: %w: %w", to.Email, domain.ErrDeliveryFailed, err)
	}

	n.logger.Info("follow-up alert sent",
		zap.String("to", to.Email),
		zap.String("item_id", about.ID),
	)
	return nil
}

func (n *Notifier) deliver(ctx context.Context, toEmail, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", n.cfg.FromName, n.cfg.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", toEmail)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	return n.send(n.cfg.ServerAddress(), auth, n.cfg.FromEmail, []string{toEmail}, []byte(msg.String()))
}

func matchAlertBody(
	to domain.UserProfile,
	about, matched domain.ItemRecord,
	matchedOwner domain.UserProfile,
	res match.Result,
) string {
	pct := func(v float64) int { return int(math.Round(v * 100)) }
	scoreColor := "#f59e0b"
	if pct(res.Confidence) >= 80 {
		scoreColor = "#10b981"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<html><body><p>Hi %s,</p>", htmlName(to.Name))
	fmt.Fprintf(&b, "<p>Good news! Our matching engine has found a potential match for your reported item, <b>%s</b>.</p>", about.Title)
	fmt.Fprintf(&b, `<p style="font-size: 18px; font-weight: bold; color: %s;">Overall Match Confidence: %d%%</p>`,
		scoreColor, pct(res.Confidence))
	b.WriteString("<table><tr><td>Image Match</td><td>")
	fmt.Fprintf(&b, "%d%%</td></tr><tr><td>Text Match</td><td>%d%%</td></tr><tr><td>Location Match</td><td>%d%%</td></tr></table>",
		pct(res.Scores.Image), pct(res.Scores.Text), pct(res.Scores.Location))
	b.WriteString("<h3>Item Details of the Match:</h3>")
	fmt.Fprintf(&b, "<p><b>Item:</b> %s (%s)</p>", matched.Title, matched.Disposition)
	fmt.Fprintf(&b, "<p><b>Reported by:</b> %s</p>", htmlName(matchedOwner.Name))
	fmt.Fprintf(&b, `<p><b>Contact Email:</b> <a href="mailto:%s">%s</a></p>`, matchedOwner.Email, matchedOwner.Email)
	b.WriteString("<p><i>Please reach out directly to the other party to arrange verification and recovery.</i></p>")
	b.WriteString("<p>Thank you for using Lost &amp; Found AI.</p></body></html>")
	return b.String()
}

func followUpBody(to domain.UserProfile, about domain.ItemRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><body><p>Hi %s,</p>", htmlName(to.Name))
	fmt.Fprintf(&b, "<p>We haven't found a match for your item, <b>%s</b>, in the last 48 hours.</p>", about.Title)
	b.WriteString("<p>For official reporting and increased chances of recovery, please consider visiting your nearest police station.</p>")
	if about.Coords != nil {
		fmt.Fprintf(&b, "<p>The coordinates of the loss were: Lat %.5f, Lon %.5f.</p>",
			about.Coords.Latitude, about.Coords.Longitude)
	}
	b.WriteString("<p>Please bring any proof of ownership and item details.</p>")
	b.WriteString("<p>Your item's status remains active on our platform.</p>")
	b.WriteString("<p>Thank you.</p></body></html>")
	return b.String()
}

func htmlName(name string) string {
	if name == "" {
		return "User"
	}
	return name
}
