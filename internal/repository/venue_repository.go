package repository // repository holds data access logic for venues

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors.Is for sql.ErrNoRows
	"fmt"          // fmt wraps scan errors with context

	"github.com/iliyamo/venue-seatmap/internal/model"
)

// VenueSummary is the list view of a venue.
type VenueSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SectionCount int    `json:"sections"`
	SeatCount    int    `json:"seats"`
}

// VenueRepo loads venue layouts from MySQL.  The layout is spread over
// three tables: venues, venue_sections (geometry and price) and
// venue_seats (row label, in-row position and occupancy status).
type VenueRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewVenueRepo constructs a VenueRepo with the given DB handle.
func NewVenueRepo(db *sql.DB) *VenueRepo {
	return &VenueRepo{db: db}
}

// List returns every venue with its section and seat counts.
func (r *VenueRepo) List(ctx context.Context) ([]VenueSummary, error) {
	const q = `SELECT v.id, v.name,
	                  (SELECT COUNT(*) FROM venue_sections s WHERE s.venue_id = v.id),
	                  (SELECT COUNT(*) FROM venue_seats t WHERE t.venue_id = v.id)
	           FROM venues v
	           ORDER BY v.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []VenueSummary{}
	for rows.Next() {
		var s VenueSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.SectionCount, &s.SeatCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get loads a full venue layout.  Sections come back in sort_order and
// seats are attached to their section.  It returns ErrVenueNotFound when
// no venue matches.
func (r *VenueRepo) Get(ctx context.Context, id string) (*model.Venue, error) {
	v := &model.Venue{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM venues WHERE id = ?`, id).Scan(&v.ID, &v.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}

	const qSections = `SELECT id, name, price_cents, pos_x, pos_y, width, height, rotation
	                   FROM venue_sections
	                   WHERE venue_id = ?
	                   ORDER BY sort_order, id`
	rows, err := r.db.QueryContext(ctx, qSections, id)
	if err != nil {
		return nil, err
	}
	index := map[string]int{}
	for rows.Next() {
		var (
			sec        model.Section
			priceCents int64
			w, h, rot  sql.NullFloat64
		)
		if err := rows.Scan(&sec.ID, &sec.Name, &priceCents, &sec.X, &sec.Y, &w, &h, &rot); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sec.Price = float64(priceCents) / 100
		sec.Width, sec.Height, sec.Rotation = w.Float64, h.Float64, rot.Float64 // NULL -> 0 -> default size
		index[sec.ID] = len(v.Sections)
		v.Sections = append(v.Sections, sec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	const qSeats = `SELECT id, section_id, row_label, seat_in_row, status
	                FROM venue_seats
	                WHERE venue_id = ?
	                ORDER BY section_id, row_label, seat_in_row`
	rows, err = r.db.QueryContext(ctx, qSeats, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			seat   model.Seat
			status string
		)
		if err := rows.Scan(&seat.ID, &seat.SectionID, &seat.RowNumber, &seat.SeatInRow, &status); err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seat.Status = model.SeatStatus(status)
		if !seat.Status.Valid() {
			seat.Status = model.SeatPending // unknown upstream states are treated as not purchasable
		}
		i, ok := index[seat.SectionID]
		if !ok {
			continue // orphaned seat row; the section is gone
		}
		v.Sections[i].Seats = append(v.Sections[i].Seats, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateSeatStatus sets the occupancy status of one seat.  Returns
// ErrSeatNotFound when the seat does not belong to the venue.
func (r *VenueRepo) UpdateSeatStatus(ctx context.Context, venueID, seatID string, status model.SeatStatus) error {
	const q = `UPDATE venue_seats
	           SET status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE venue_id = ? AND id = ?`
	res, err := r.db.ExecContext(ctx, q, string(status), venueID, seatID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatNotFound
	}
	return nil
}
