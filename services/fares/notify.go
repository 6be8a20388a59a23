package fares

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type AlertConfig struct {
	Smtp SmtpConfig `json:"smtp"`
	To   []string   `json:"to"`
	// a trip at or under this total price triggers the alert;
	// zero disables alerting entirely
	PriceThreshold float64 `json:"price_threshold"`
}

// Notifier mails the ranked results when a combination undercuts the
// configured threshold.
type Notifier struct {
	config AlertConfig
}

func NewNotifier(config AlertConfig) Notifier {
	return Notifier{config: config}
}

func (n Notifier) Enabled() bool {
	return n.config.PriceThreshold > 0 && len(n.config.To) > 0
}

// MaybeSend sends an alert if the cheapest trip is at or below the
// threshold. Returns whether a mail went out.
func (n Notifier) MaybeSend(ctx context.Context, trips []TripCombination) (bool, error) {
	ctx, span := tracer.Start(ctx, "notifier.MaybeSend")
	defer span.End()

	if !n.Enabled() || len(trips) == 0 {
		return false, nil
	}
	best := trips[0]
	if best.TotalPrice > n.config.PriceThreshold {
		return false, nil
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Tigerfare <%s>", n.config.Smtp.EmailAddress)
	mail.To = n.config.To
	mail.Subject = fmt.Sprintf(
		"Fare alert: %s round trip at NT$%.0f",
		best.RouteName, best.TotalPrice,
	)
	mail.Text = []byte(n.body(trips))

	addr := fmt.Sprintf("%s:%d", n.config.Smtp.Server, n.config.Smtp.Port)
	err := mail.Send(addr, smtp.PlainAuth("", n.config.Smtp.EmailAddress, n.config.Smtp.Password, n.config.Smtp.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send alert email")
		return false, err
	}
	return true, nil
}

func (n Notifier) body(trips []TripCombination) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cheapest round trips under NT$%.0f:\n\n", n.config.PriceThreshold)
	for i, trip := range trips {
		if trip.TotalPrice > n.config.PriceThreshold {
			break
		}
		fmt.Fprintf(&b, "%d. %s %s ~ %s  NT$%.0f (%s %s-%s + %s %s-%s)\n",
			i+1, trip.RouteName, trip.DepartureDate, trip.ReturnDate, trip.TotalPrice,
			trip.Outbound.FlightNumber, trip.Outbound.DepartureTime, trip.Outbound.ArrivalTime,
			trip.Inbound.FlightNumber, trip.Inbound.DepartureTime, trip.Inbound.ArrivalTime,
		)
	}
	return b.String()
}
