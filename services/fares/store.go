package fares

import (
	"context"
	"database/sql"

	"tigerfare-backend/lib/scrapers/tigerair"
	"tigerfare-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Store keeps a history of crawls so price movement can be compared
// across runs. The scrape itself never depends on it.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// SaveResult records one route search and all of its flights under a
// single crawl row.
func (s Store) SaveResult(ctx context.Context, result tigerair.RouteResult) (int64, error) {
	ctx, span := tracer.Start(ctx, "store.SaveResult")
	defer span.End()
	span.SetAttributes(attribute.String("route", result.Route.Code))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO crawls (route, started_at, flight_count, error_count, skipped_rows)
		 VALUES (?, ?, ?, ?, ?)`,
		result.Route.Code,
		timezone.Now().Unix(),
		len(result.Flights),
		len(result.Errors),
		result.SkippedRows,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	crawlId, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, f := range result.Flights {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO flights (crawl_id, flight_number, departure_time, arrival_time,
			                      departure_date, price, seats_available, time_slot, route)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			crawlId, f.FlightNumber, f.DepartureTime, f.ArrivalTime,
			f.DepartureDate, f.Price, f.SeatsAvailable, string(f.TimeSlot), f.Route,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return crawlId, nil
}

// PricePoint is one observed fare at one crawl time.
type PricePoint struct {
	CrawledAt     int64
	FlightNumber  string
	DepartureDate string
	Price         float64
}

// History returns observed prices for a route, newest crawl first.
func (s Store) History(ctx context.Context, route string, limit int) ([]PricePoint, error) {
	ctx, span := tracer.Start(ctx, "store.History")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.started_at, f.flight_number, f.departure_date, f.price
		 FROM flights f JOIN crawls c ON c.id = f.crawl_id
		 WHERE f.route = ?
		 ORDER BY c.started_at DESC, f.departure_date ASC
		 LIMIT ?`,
		route, limit,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.CrawledAt, &p.FlightNumber, &p.DepartureDate, &p.Price); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
