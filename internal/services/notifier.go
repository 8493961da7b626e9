package services

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos"
	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/domain/notification"
	"github.com/Britinogn/CourviaShipAPI/internal/observability"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/sendgrid"
)

//go:embed templates/*.html
var emailTemplateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(emailTemplateFS, "templates/*.html"))

type registrationEmailData struct {
	Company            string
	ReceiverName       string
	TrackingCode       string
	SenderName         string
	ReceiverAddress    string
	ReceiverCity       string
	ReceiverCountry    string
	ReceiverPhone      string
	PackageDescription string
	PackageWeight      string
	PackageQuantity    int
	EstimatedDelivery  string
	TrackingURL        string
	CurrentYear        int
}

type updateEmailData struct {
	Company           string
	ReceiverName      string
	TrackingCode      string
	ReceiverCity      string
	ReceiverCountry   string
	OldStatus         string
	NewStatus         string
	EstimatedDelivery string
	UpdateMessage     string
	TrackingURL       string
	CurrentYear       int
}

type EmailNotifierConfig struct {
	Company string
	// TrackingBaseURL is the public tracking page; the tracking ID is appended.
	TrackingBaseURL string
}

type emailNotifier struct {
	log           *logger.Logger
	mailer        sendgrid.Client
	notifications repos.NotificationRepo
	cfg           EmailNotifierConfig
	now           func() time.Time
}

// NewEmailNotifier sends receiver emails through mailer and records every
// attempt in the notification log. notifications may be nil.
func NewEmailNotifier(log *logger.Logger, mailer sendgrid.Client, notifications repos.NotificationRepo, cfg EmailNotifierConfig) ShipmentNotifier {
	if strings.TrimSpace(cfg.Company) == "" {
		cfg.Company = DefaultReceiptBranding().Company
	}
	return &emailNotifier{
		log:           log.With("service", "EmailNotifier"),
		mailer:        mailer,
		notifications: notifications,
		cfg:           cfg,
		now:           time.Now,
	}
}

func (n *emailNotifier) trackingURL(trackingID string) string {
	base := strings.TrimRight(strings.TrimSpace(n.cfg.TrackingBaseURL), "/")
	if base == "" {
		return ""
	}
	return base + "/" + trackingID
}

func formatWeight(kg float64) string {
	return strconv.FormatFloat(kg, 'f', -1, 64) + " kg"
}

func renderEmail(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// statusMessage is the lead sentence of an update email.
func statusMessage(change ShipmentChange) string {
	if change.OldStatus == change.NewStatus && change.EstimatedDeliveryChanged {
		return "The estimated delivery date of your package has changed."
	}
	switch change.NewStatus {
	case types.StatusOutForDelivery:
		return "Your package is out for delivery."
	case types.StatusDelivered:
		return "Your package has been delivered."
	case types.StatusDelayed:
		return "Your package has been delayed. We apologise for the inconvenience."
	case types.StatusInCustoms:
		return "Your package is being processed by customs."
	case types.StatusCancelled:
		return "Your shipment has been cancelled."
	default:
		return "Your package status has been updated."
	}
}

func (n *emailNotifier) ShipmentRegistered(ctx context.Context, s *types.Shipment, receipt []byte) error {
	if n == nil || n.mailer == nil || s == nil {
		return nil
	}
	quantity := s.Package.Quantity
	if quantity < 1 {
		quantity = 1
	}
	html, err := renderEmail("registration.html", registrationEmailData{
		Company:            n.cfg.Company,
		ReceiverName:       s.Receiver.Name,
		TrackingCode:       s.TrackingID,
		SenderName:         s.Sender.Name,
		ReceiverAddress:    s.Receiver.Address,
		ReceiverCity:       s.Receiver.City,
		ReceiverCountry:    s.Receiver.Country,
		ReceiverPhone:      s.Receiver.Phone,
		PackageDescription: s.Package.Description,
		PackageWeight:      formatWeight(s.Package.WeightKg),
		PackageQuantity:    quantity,
		EstimatedDelivery:  publicDate(s.EstimatedDelivery),
		TrackingURL:        n.trackingURL(s.TrackingID),
		CurrentYear:        n.now().Year(),
	})
	if err != nil {
		return err
	}

	req := sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: s.Receiver.Email, Name: s.Receiver.Name}},
		Subject:    "Package Registered - Tracking ID: " + s.TrackingID,
		HTML:       html,
		Categories: []string{"shipment-registration"},
		CustomArgs: map[string]string{"tracking_id": s.TrackingID},
	}
	if len(receipt) > 0 {
		req.Attachments = []sendgrid.Attachment{{
			Filename:    "receipt-" + s.TrackingID + ".pdf",
			MIMEType:    "application/pdf",
			Content:     receipt,
			Disposition: "attachment",
		}}
	}
	return n.send(ctx, s.TrackingID, notification.KindRegistration, req, nil)
}

func (n *emailNotifier) ShipmentUpdated(ctx context.Context, s *types.Shipment, change ShipmentChange) error {
	if n == nil || n.mailer == nil || s == nil {
		return nil
	}
	oldStatus := string(change.OldStatus)
	if oldStatus == "" {
		oldStatus = "N/A"
	}
	eta := "Not updated"
	if change.EstimatedDeliveryChanged {
		eta = publicDate(s.EstimatedDelivery)
	}
	html, err := renderEmail("update.html", updateEmailData{
		Company:           n.cfg.Company,
		ReceiverName:      s.Receiver.Name,
		TrackingCode:      s.TrackingID,
		ReceiverCity:      s.Receiver.City,
		ReceiverCountry:   s.Receiver.Country,
		OldStatus:         oldStatus,
		NewStatus:         string(change.NewStatus),
		EstimatedDelivery: eta,
		UpdateMessage:     statusMessage(change),
		TrackingURL:       n.trackingURL(s.TrackingID),
		CurrentYear:       n.now().Year(),
	})
	if err != nil {
		return err
	}
	return n.send(ctx, s.TrackingID, notification.KindUpdate, sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: s.Receiver.Email, Name: s.Receiver.Name}},
		Subject:    "Package Update - Tracking ID: " + s.TrackingID,
		HTML:       html,
		Categories: []string{"shipment-update"},
		CustomArgs: map[string]string{"tracking_id": s.TrackingID},
	}, change)
}

// send records the attempt, delivers it and records the outcome. Failures
// writing the log never mask the delivery result.
func (n *emailNotifier) send(ctx context.Context, trackingID string, kind notification.Kind, req sendgrid.SendEmailRequest, meta any) error {
	entry := &types.Notification{
		TrackingID: trackingID,
		Channel:    notification.ChannelEmail,
		Kind:       kind,
		Recipient:  req.To[0].Email,
		Subject:    req.Subject,
		Status:     types.NotificationPending,
	}
	if meta != nil {
		if raw, err := json.Marshal(meta); err == nil {
			entry.Metadata = datatypes.JSON(raw)
		}
	}
	logged := false
	if n.notifications != nil {
		if err := n.notifications.Create(dbctx.Context{Ctx: ctx}, entry); err != nil {
			n.log.Warn("Failed to record notification", "tracking_id", trackingID, "error", err)
		} else {
			logged = true
		}
	}

	res, sendErr := n.mailer.Send(ctx, req)
	if sendErr != nil {
		n.log.Warn("Email delivery failed", "tracking_id", trackingID, "kind", kind, "error", sendErr)
		observability.Current().ObserveNotification(string(kind), string(types.NotificationFailed))
		if logged {
			if err := n.notifications.MarkFailed(dbctx.Context{Ctx: ctx}, entry.ID, sendErr.Error()); err != nil {
				n.log.Warn("Failed to record notification failure", "tracking_id", trackingID, "error", err)
			}
		}
		return sendErr
	}

	messageID := ""
	if res != nil {
		messageID = res.MessageID
	}
	if logged {
		if err := n.notifications.MarkSent(dbctx.Context{Ctx: ctx}, entry.ID, messageID, n.now().UTC()); err != nil {
			n.log.Warn("Failed to record notification delivery", "tracking_id", trackingID, "error", err)
		}
	}
	observability.Current().ObserveNotification(string(kind), string(types.NotificationSent))
	n.log.Info("Email sent", "tracking_id", trackingID, "kind", kind)
	return nil
}
