// Package repository defines the venue sources and the error types they
// share. These sentinel values allow higher layers such as handlers to
// distinguish between different failure scenarios. For example,
// ErrVenueNotFound maps to an HTTP 404 response while ErrInvalidVenue
// signals that fixture data failed validation while loading.
package repository

import "errors"

// ErrVenueNotFound is returned when a venue lookup yields nothing.
var ErrVenueNotFound = errors.New("venue not found")

// ErrSeatNotFound is returned when a seat does not exist in the venue.
// Handlers should translate this into an HTTP 404 response.
var ErrSeatNotFound = errors.New("seat not found")

// ErrInvalidVenue is returned when venue data violates the layout
// invariants (duplicate seat IDs, seats without a row, unknown status).
var ErrInvalidVenue = errors.New("invalid venue")
