package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/visaops/caseflow/internal/storage"
	"github.com/visaops/caseflow/internal/types"
)

const storageScopeName = "github.com/visaops/caseflow/storage"

var _ storage.Storage = (*InstrumentedStorage)(nil)

// InstrumentedStorage wraps storage.Storage with OTel tracing and metrics.
// Every method gets a span and is counted in cf.storage.* metrics.
// Use WrapStorage to create one; it returns the original store unchanged when
// telemetry is disabled.
type InstrumentedStorage struct {
	inner  storage.Storage
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapStorage returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is with zero overhead.
func WrapStorage(s storage.Storage) storage.Storage {
	if !Enabled() {
		return s
	}
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("cf.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("cf.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("cf.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	return &InstrumentedStorage{
		inner:  s,
		tracer: Tracer(storageScopeName),
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
}

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedStorage) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedStorage) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// ── Directory ───────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) GetIdentity(ctx context.Context, id string) (*types.Identity, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.identity.id", id)}
	ctx, span, t := s.op(ctx, "GetIdentity", attrs...)
	v, err := s.inner.GetIdentity(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListDirectReports(ctx context.Context, id string) ([]*types.Identity, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.identity.id", id)}
	ctx, span, t := s.op(ctx, "ListDirectReports", attrs...)
	v, err := s.inner.ListDirectReports(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListIdentitiesByContract(ctx context.Context, contractID string) ([]*types.Identity, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.contract.id", contractID)}
	ctx, span, t := s.op(ctx, "ListIdentitiesByContract", attrs...)
	v, err := s.inner.ListIdentitiesByContract(ctx, contractID)
	if err == nil {
		span.SetAttributes(attribute.Int("cf.result.count", len(v)))
	}
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) GetBeneficiary(ctx context.Context, id string) (*types.Beneficiary, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.beneficiary.id", id)}
	ctx, span, t := s.op(ctx, "GetBeneficiary", attrs...)
	v, err := s.inner.GetBeneficiary(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListBeneficiariesByContract(ctx context.Context, contractID string) ([]*types.Beneficiary, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.contract.id", contractID)}
	ctx, span, t := s.op(ctx, "ListBeneficiariesByContract", attrs...)
	v, err := s.inner.ListBeneficiariesByContract(ctx, contractID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListBeneficiariesByOwner(ctx context.Context, ownerIdentityID string) ([]*types.Beneficiary, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.identity.id", ownerIdentityID)}
	ctx, span, t := s.op(ctx, "ListBeneficiariesByOwner", attrs...)
	v, err := s.inner.ListBeneficiariesByOwner(ctx, ownerIdentityID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) GetLawFirm(ctx context.Context, id string) (*types.LawFirm, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.law_firm.id", id)}
	ctx, span, t := s.op(ctx, "GetLawFirm", attrs...)
	v, err := s.inner.GetLawFirm(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ── Case store ───────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) GetCaseGroup(ctx context.Context, id string) (*types.CaseGroup, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.case_group.id", id)}
	ctx, span, t := s.op(ctx, "GetCaseGroup", attrs...)
	v, err := s.inner.GetCaseGroup(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) CreateCaseGroup(ctx context.Context, group *types.CaseGroup) error {
	attrs := []attribute.KeyValue{
		attribute.String("cf.case_group.pathway", string(group.Pathway)),
		attribute.String("cf.actor", group.CreatedBy),
	}
	ctx, span, t := s.op(ctx, "CreateCaseGroup", attrs...)
	err := s.inner.CreateCaseGroup(ctx, group)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) GetPetition(ctx context.Context, id string) (*types.Petition, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.petition.id", id)}
	ctx, span, t := s.op(ctx, "GetPetition", attrs...)
	v, err := s.inner.GetPetition(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) CreatePetition(ctx context.Context, petition *types.Petition) error {
	attrs := []attribute.KeyValue{
		attribute.String("cf.petition.type", string(petition.Type)),
		attribute.String("cf.case_group.id", petition.CaseGroupID),
	}
	ctx, span, t := s.op(ctx, "CreatePetition", attrs...)
	err := s.inner.CreatePetition(ctx, petition)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) ListPetitions(ctx context.Context, caseGroupID string) ([]*types.Petition, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.case_group.id", caseGroupID)}
	ctx, span, t := s.op(ctx, "ListPetitions", attrs...)
	v, err := s.inner.ListPetitions(ctx, caseGroupID)
	if err == nil {
		span.SetAttributes(attribute.Int("cf.result.count", len(v)))
	}
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) SaveTransition(ctx context.Context, unit *storage.TransitionUnit) error {
	attrs := []attribute.KeyValue{
		attribute.String("cf.case_group.id", unit.CaseGroup.ID),
		attribute.String("cf.transition.to", string(unit.CaseGroup.ApprovalStatus)),
		attribute.Int("cf.transition.todos", len(unit.Todos)),
		attribute.Int("cf.transition.notifications", len(unit.Notifications)),
	}
	ctx, span, t := s.op(ctx, "SaveTransition", attrs...)
	err := s.inner.SaveTransition(ctx, unit)
	s.done(ctx, span, t, err, attrs...)
	return err
}

// ── Milestones ───────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) AddMilestone(ctx context.Context, m *types.Milestone) error {
	attrs := []attribute.KeyValue{attribute.String("cf.milestone.type", string(m.Type))}
	ctx, span, t := s.op(ctx, "AddMilestone", attrs...)
	err := s.inner.AddMilestone(ctx, m)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) ListCompletedMilestoneTypes(ctx context.Context, petitionID string) (map[types.MilestoneType]bool, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.petition.id", petitionID)}
	ctx, span, t := s.op(ctx, "ListCompletedMilestoneTypes", attrs...)
	v, err := s.inner.ListCompletedMilestoneTypes(ctx, petitionID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListCaseGroupMilestoneTypes(ctx context.Context, caseGroupID string) (map[types.MilestoneType]bool, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.case_group.id", caseGroupID)}
	ctx, span, t := s.op(ctx, "ListCaseGroupMilestoneTypes", attrs...)
	v, err := s.inner.ListCaseGroupMilestoneTypes(ctx, caseGroupID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ── Sinks ────────────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) ListTodos(ctx context.Context, caseGroupID string) ([]*types.Todo, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.case_group.id", caseGroupID)}
	ctx, span, t := s.op(ctx, "ListTodos", attrs...)
	v, err := s.inner.ListTodos(ctx, caseGroupID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListNotifications(ctx context.Context, recipientID string) ([]*types.Notification, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.identity.id", recipientID)}
	ctx, span, t := s.op(ctx, "ListNotifications", attrs...)
	v, err := s.inner.ListNotifications(ctx, recipientID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListAuditEntries(ctx context.Context, entityID string) ([]*types.AuditEntry, error) {
	attrs := []attribute.KeyValue{attribute.String("cf.entity.id", entityID)}
	ctx, span, t := s.op(ctx, "ListAuditEntries", attrs...)
	v, err := s.inner.ListAuditEntries(ctx, entityID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ── Administration ───────────────────────────────────────────────────────────

func (s *InstrumentedStorage) PutIdentity(ctx context.Context, identity *types.Identity) error {
	attrs := []attribute.KeyValue{attribute.String("cf.identity.role", string(identity.Role))}
	ctx, span, t := s.op(ctx, "PutIdentity", attrs...)
	err := s.inner.PutIdentity(ctx, identity)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) PutBeneficiary(ctx context.Context, beneficiary *types.Beneficiary) error {
	ctx, span, t := s.op(ctx, "PutBeneficiary")
	err := s.inner.PutBeneficiary(ctx, beneficiary)
	s.done(ctx, span, t, err)
	return err
}

func (s *InstrumentedStorage) PutLawFirm(ctx context.Context, firm *types.LawFirm) error {
	ctx, span, t := s.op(ctx, "PutLawFirm")
	err := s.inner.PutLawFirm(ctx, firm)
	s.done(ctx, span, t, err)
	return err
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
