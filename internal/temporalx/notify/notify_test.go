package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/testsuite"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos"
	"github.com/Britinogn/CourviaShipAPI/internal/data/repos/testutil"
	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
)

type recordingMailer struct {
	mu       sync.Mutex
	failures int
	calls    []string
	receipts [][]byte
	changes  []services.ShipmentChange
}

func (m *recordingMailer) fail() error {
	if m.failures > 0 {
		m.failures--
		return errors.New("sendgrid http 503: unavailable")
	}
	return nil
}

func (m *recordingMailer) ShipmentRegistered(ctx context.Context, s *types.Shipment, receipt []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "registered:"+s.TrackingID)
	m.receipts = append(m.receipts, receipt)
	return m.fail()
}

func (m *recordingMailer) ShipmentUpdated(ctx context.Context, s *types.Shipment, change services.ShipmentChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "updated:"+s.TrackingID)
	m.changes = append(m.changes, change)
	return m.fail()
}

type stubRenderer struct{}

func (stubRenderer) Render(ctx context.Context, s *types.Shipment) ([]byte, error) {
	return []byte("%PDF-" + s.TrackingID), nil
}

func newActivities(t *testing.T, mailer services.ShipmentNotifier) *Activities {
	t.Helper()
	db := testutil.DB(t)
	testutil.SeedShipment(t, context.Background(), db, "NSDTMP001", func(s *types.Shipment) {
		s.Status = types.StatusAtHub
	})
	return &Activities{
		Log:       logger.Nop(),
		Shipments: repos.NewShipmentRepo(db, logger.Nop()),
		Renderer:  stubRenderer{},
		Mailer:    mailer,
	}
}

func runWorkflow(t *testing.T, acts *Activities, req Request) error {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(Workflow)
	env.RegisterActivityWithOptions(acts.Deliver, activity.RegisterOptions{Name: ActivityDeliver})
	env.ExecuteWorkflow(Workflow, req)
	if !env.IsWorkflowCompleted() {
		t.Fatalf("workflow did not complete")
	}
	return env.GetWorkflowError()
}

func TestWorkflowSendsRegistrationWithReceipt(t *testing.T) {
	mailer := &recordingMailer{}
	acts := newActivities(t, mailer)

	if err := runWorkflow(t, acts, Request{TrackingID: "NSDTMP001", Kind: KindRegistered}); err != nil {
		t.Fatalf("workflow: %v", err)
	}
	if len(mailer.calls) != 1 || mailer.calls[0] != "registered:NSDTMP001" {
		t.Fatalf("calls: got=%v", mailer.calls)
	}
	if string(mailer.receipts[0]) != "%PDF-NSDTMP001" {
		t.Fatalf("receipt: got=%q", mailer.receipts[0])
	}
}

func TestWorkflowRetriesFailedDelivery(t *testing.T) {
	mailer := &recordingMailer{failures: 2}
	acts := newActivities(t, mailer)
	change := services.ShipmentChange{OldStatus: types.StatusInTransit, NewStatus: types.StatusAtHub}

	if err := runWorkflow(t, acts, Request{TrackingID: "NSDTMP001", Kind: KindUpdated, Change: &change}); err != nil {
		t.Fatalf("workflow: %v", err)
	}
	if len(mailer.calls) != 3 {
		t.Fatalf("attempts: want=3 got=%d", len(mailer.calls))
	}
	if mailer.changes[2] != change {
		t.Fatalf("change: want=%+v got=%+v", change, mailer.changes[2])
	}
}

func TestWorkflowStopsWhenShipmentIsGone(t *testing.T) {
	mailer := &recordingMailer{}
	acts := newActivities(t, mailer)

	err := runWorkflow(t, acts, Request{TrackingID: "NSDGONE00", Kind: KindRegistered})
	if err == nil {
		t.Fatalf("want workflow error for deleted shipment")
	}
	if len(mailer.calls) != 0 {
		t.Fatalf("no email expected, got=%v", mailer.calls)
	}
}

func TestWorkflowRejectsEmptyTrackingID(t *testing.T) {
	acts := newActivities(t, &recordingMailer{})
	if err := runWorkflow(t, acts, Request{Kind: KindRegistered}); err == nil {
		t.Fatalf("want error for empty tracking id")
	}
}

type fakeRun struct {
	temporalsdkclient.WorkflowRun
	id string
}

func (r fakeRun) GetID() string    { return r.id }
func (r fakeRun) GetRunID() string { return "run-1" }

type fakeTemporal struct {
	temporalsdkclient.Client
	err     error
	started []temporalsdkclient.StartWorkflowOptions
	args    []Request
}

func (f *fakeTemporal) ExecuteWorkflow(ctx context.Context, opts temporalsdkclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (temporalsdkclient.WorkflowRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.started = append(f.started, opts)
	f.args = append(f.args, args[0].(Request))
	return fakeRun{id: opts.ID}, nil
}

func TestDispatcherStartsWorkflows(t *testing.T) {
	tc := &fakeTemporal{}
	fallback := &recordingMailer{}
	d := NewDispatcher(logger.Nop(), tc, "q", fallback)
	s := testutil.NewShipment("NSDDSP001")
	ctx := context.Background()

	if err := d.ShipmentRegistered(ctx, s, []byte("%PDF")); err != nil {
		t.Fatalf("ShipmentRegistered: %v", err)
	}
	if err := d.ShipmentUpdated(ctx, s, services.ShipmentChange{NewStatus: types.StatusDelivered}); err != nil {
		t.Fatalf("ShipmentUpdated: %v", err)
	}
	if len(tc.started) != 2 || tc.started[0].ID != "notify-registered-NSDDSP001" || tc.started[0].TaskQueue != "q" {
		t.Fatalf("started: got=%+v", tc.started)
	}
	if tc.args[1].Kind != KindUpdated || tc.args[1].Change == nil || tc.args[1].Change.NewStatus != types.StatusDelivered {
		t.Fatalf("update request: got=%+v", tc.args[1])
	}
	if len(fallback.calls) != 0 {
		t.Fatalf("fallback must not run: %v", fallback.calls)
	}
}

func TestDispatcherFallsBackInline(t *testing.T) {
	tc := &fakeTemporal{err: errors.New("frontend unavailable")}
	fallback := &recordingMailer{}
	d := NewDispatcher(logger.Nop(), tc, "q", fallback)

	if err := d.ShipmentRegistered(context.Background(), testutil.NewShipment("NSDDSP002"), nil); err != nil {
		t.Fatalf("ShipmentRegistered: %v", err)
	}
	if len(fallback.calls) != 1 || fallback.calls[0] != "registered:NSDDSP002" {
		t.Fatalf("fallback calls: got=%v", fallback.calls)
	}
}
