package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"auctionhousego/internal/money"
)

// Notifier delivers the "you won" message. Best-effort: callers log
// failures and move on, closure of an auction never depends on delivery.
type Notifier interface {
	NotifyWinner(ctx context.Context, winner, auctionTitle string, amount int64) error
}

// Mailer sends winner notifications over SMTP. Without SMTP credentials it
// degrades to logging the would-be mail, which keeps dev setups working.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewMailer(host string, port int, user, pass, from string) *Mailer {
	if from == "" {
		from = user
	}
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from}
}

func (m *Mailer) configured() bool {
	return m.host != "" && m.user != "" && m.pass != ""
}

func (m *Mailer) NotifyWinner(ctx context.Context, winner, auctionTitle string, amount int64) error {
	subject := fmt.Sprintf("You won the auction: %s", auctionTitle)
	body := fmt.Sprintf("Congratulations! You won %q with a bid of %s.",
		auctionTitle, money.FormatMinor(amount))

	if !m.configured() {
		zap.L().Info("mail_simulated",
			zap.String("to", winner),
			zap.String("subject", subject),
			zap.String("body", body),
		)
		return nil
	}

	msg := []byte("From: " + m.from + "\r\n" +
		"To: " + winner + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body + "\r\n")
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	return smtp.SendMail(addr, auth, m.from, []string{winner}, msg)
}
