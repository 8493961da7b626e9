package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos"
	"github.com/Britinogn/CourviaShipAPI/internal/data/repos/testutil"
	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/sendgrid"
)

type fakeMailer struct {
	sent []sendgrid.SendEmailRequest
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	m.sent = append(m.sent, req)
	if m.err != nil {
		return nil, m.err
	}
	return &sendgrid.SendEmailResult{StatusCode: 202, MessageID: "msg-1"}, nil
}

func newTestNotifier(t *testing.T, mailer sendgrid.Client) (ShipmentNotifier, repos.NotificationRepo) {
	t.Helper()
	db := testutil.DB(t)
	notifications := repos.NewNotificationRepo(db, logger.Nop())
	n := NewEmailNotifier(logger.Nop(), mailer, notifications, EmailNotifierConfig{
		TrackingBaseURL: "https://courviaship.com/track/",
	})
	return n, notifications
}

func TestRegistrationEmail(t *testing.T) {
	mailer := &fakeMailer{}
	n, log := newTestNotifier(t, mailer)
	s := testutil.NewShipment("NSDMAIL01")

	if err := n.ShipmentRegistered(context.Background(), s, []byte("%PDF-1")); err != nil {
		t.Fatalf("ShipmentRegistered: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent: want=1 got=%d", len(mailer.sent))
	}
	req := mailer.sent[0]
	if req.Subject != "Package Registered - Tracking ID: NSDMAIL01" {
		t.Fatalf("subject: got=%q", req.Subject)
	}
	if req.To[0].Email != s.Receiver.Email {
		t.Fatalf("recipient: want=%q got=%q", s.Receiver.Email, req.To[0].Email)
	}
	for _, want := range []string{"NSDMAIL01", s.Receiver.Name, s.Sender.Name, "2.5 kg", "https://courviaship.com/track/NSDMAIL01", "CourviaShip"} {
		if !strings.Contains(req.HTML, want) {
			t.Fatalf("html missing %q", want)
		}
	}
	if len(req.Attachments) != 1 || req.Attachments[0].Filename != "receipt-NSDMAIL01.pdf" {
		t.Fatalf("attachments: got=%+v", req.Attachments)
	}

	rows, err := log.ListByTrackingID(dbctx.Context{Ctx: context.Background()}, "NSDMAIL01")
	if err != nil {
		t.Fatalf("ListByTrackingID: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != types.NotificationSent || rows[0].MessageID != "msg-1" || rows[0].SentAt == nil {
		t.Fatalf("notification log: got=%+v", rows)
	}
	if rows[0].Kind != types.NotificationRegistration {
		t.Fatalf("kind: got=%q", rows[0].Kind)
	}
}

func TestRegistrationEmailWithoutReceipt(t *testing.T) {
	mailer := &fakeMailer{}
	n, _ := newTestNotifier(t, mailer)
	if err := n.ShipmentRegistered(context.Background(), testutil.NewShipment("NSDMAIL02"), nil); err != nil {
		t.Fatalf("ShipmentRegistered: %v", err)
	}
	if len(mailer.sent[0].Attachments) != 0 {
		t.Fatalf("no attachment expected, got=%+v", mailer.sent[0].Attachments)
	}
}

func TestUpdateEmail(t *testing.T) {
	mailer := &fakeMailer{}
	n, _ := newTestNotifier(t, mailer)
	s := testutil.NewShipment("NSDMAIL03")
	s.Status = types.StatusDelivered

	err := n.ShipmentUpdated(context.Background(), s, ShipmentChange{
		OldStatus: types.StatusOutForDelivery,
		NewStatus: types.StatusDelivered,
	})
	if err != nil {
		t.Fatalf("ShipmentUpdated: %v", err)
	}
	req := mailer.sent[0]
	if req.Subject != "Package Update - Tracking ID: NSDMAIL03" {
		t.Fatalf("subject: got=%q", req.Subject)
	}
	for _, want := range []string{"OutForDelivery", "Delivered", "Not updated", "Your package has been delivered."} {
		if !strings.Contains(req.HTML, want) {
			t.Fatalf("html missing %q", want)
		}
	}
}

func TestUpdateEmailMissingOldStatus(t *testing.T) {
	mailer := &fakeMailer{}
	n, _ := newTestNotifier(t, mailer)
	s := testutil.NewShipment("NSDMAIL04")

	if err := n.ShipmentUpdated(context.Background(), s, ShipmentChange{NewStatus: s.Status, EstimatedDeliveryChanged: true}); err != nil {
		t.Fatalf("ShipmentUpdated: %v", err)
	}
	html := mailer.sent[0].HTML
	if !strings.Contains(html, "N/A") || !strings.Contains(html, publicDate(s.EstimatedDelivery)) {
		t.Fatalf("html: want N/A and new date, got=%s", html)
	}
}

func TestFailedEmailIsRecorded(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("sendgrid http 401: unauthorized")}
	n, log := newTestNotifier(t, mailer)

	err := n.ShipmentRegistered(context.Background(), testutil.NewShipment("NSDMAIL05"), nil)
	if err == nil {
		t.Fatalf("want delivery error")
	}
	rows, _ := log.ListByTrackingID(dbctx.Context{Ctx: context.Background()}, "NSDMAIL05")
	if len(rows) != 1 || rows[0].Status != types.NotificationFailed || !strings.Contains(rows[0].Error, "401") {
		t.Fatalf("notification log: got=%+v", rows)
	}
}

func TestStatusMessage(t *testing.T) {
	cases := []struct {
		change ShipmentChange
		want   string
	}{
		{ShipmentChange{OldStatus: types.StatusAtHub, NewStatus: types.StatusOutForDelivery}, "Your package is out for delivery."},
		{ShipmentChange{OldStatus: types.StatusAtHub, NewStatus: types.StatusDelayed}, "Your package has been delayed. We apologise for the inconvenience."},
		{ShipmentChange{OldStatus: types.StatusAtHub, NewStatus: types.StatusAtHub, EstimatedDeliveryChanged: true}, "The estimated delivery date of your package has changed."},
		{ShipmentChange{OldStatus: types.StatusPickedUp, NewStatus: types.StatusEnRoute}, "Your package status has been updated."},
	}
	for _, tc := range cases {
		if got := statusMessage(tc.change); got != tc.want {
			t.Fatalf("%+v: want=%q got=%q", tc.change, tc.want, got)
		}
	}
}

func TestNilNotifierIsNoop(t *testing.T) {
	n := NewEmailNotifier(logger.Nop(), nil, nil, EmailNotifierConfig{})
	if err := n.ShipmentRegistered(context.Background(), testutil.NewShipment("NSDMAIL06"), nil); err != nil {
		t.Fatalf("nil mailer: %v", err)
	}
}
