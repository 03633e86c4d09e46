package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/voyara/poimod/internal/domain"
)

const tracerName = "github.com/voyara/poimod/internal/adapter/otel"

// TracingRepository wraps a domain.POIRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingRepository struct {
	next   domain.POIRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.POIRepository.
var _ domain.POIRepository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.POIRepository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) Create(ctx context.Context, poi domain.POI) error {
	ctx, span := r.tracer.Start(ctx, "POIRepository.Create",
		trace.WithAttributes(
			attribute.String("poi.id", poi.ID),
			attribute.String("poi.owner_id", poi.OwnerID),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, poi)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) GetByID(ctx context.Context, id string) (domain.POI, error) {
	ctx, span := r.tracer.Start(ctx, "POIRepository.GetByID",
		trace.WithAttributes(attribute.String("poi.id", id)),
	)
	defer span.End()

	poi, err := r.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return poi, err
}

func (r *TracingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.POI, error) {
	ctx, span := r.tracer.Start(ctx, "POIRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.OwnerID != "" {
		span.SetAttributes(attribute.String("filter.owner_id", filter.OwnerID))
	}

	pois, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(pois)))
	}
	return pois, err
}

func (r *TracingRepository) ApplyTransition(ctx context.Context, poi domain.POI, expectedVersion int64, msg *domain.Message) (domain.POI, error) {
	ctx, span := r.tracer.Start(ctx, "POIRepository.ApplyTransition",
		trace.WithAttributes(
			attribute.String("poi.id", poi.ID),
			attribute.String("poi.status", string(poi.Status)),
			attribute.Int64("poi.expected_version", expectedVersion),
			attribute.Bool("poi.has_message", msg != nil),
		),
	)
	defer span.End()

	persisted, err := r.next.ApplyTransition(ctx, poi, expectedVersion, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return persisted, err
}
