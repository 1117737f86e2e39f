// Package suggest proposes the next un-visited address to knock, rooted at a
// known customer, via a bounded address-offset search against the geocoder.
package suggest

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/knockline/backend/internal/address"
	"github.com/knockline/backend/internal/geocode"
	"github.com/knockline/backend/internal/models"
)

const defaultMaxAttempts = 10

// Suggestion is a provisional candidate prospect. It is not persisted; the
// caller decides whether a human accepts it. A later manually entered
// prospect at the same normalized address is not invalidated here; the
// collision surfaces through the normal resolve path on acceptance.
type Suggestion struct {
	Address          string  `json:"address"`
	DisplayName      string  `json:"display_name"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	SourceCustomerID string  `json:"source_customer_id"`
}

// Searcher cycles a cursor over the customer list so repeated calls root
// their suggestions at different customers. The cursor is explicit per
// searcher, not global; callers compose one per scope. Safe for concurrent
// use.
type Searcher struct {
	Geocoder    geocode.Geocoder
	MaxAttempts int
	Country     string
	Logger      zerolog.Logger

	mu          sync.Mutex
	sourceIndex int
}

// Next proposes one suggestion near one of the given customers, or nil when
// no customer yields a novel, geocodable candidate. known is the snapshot of
// every address already held as a prospect or customer. External calls are
// bounded by len(customers) * MaxAttempts.
func (s *Searcher) Next(ctx context.Context, customers []models.Contact, known []string) (*Suggestion, error) {
	if len(customers) == 0 {
		return nil, nil
	}

	knownSet := make(map[string]bool, len(known))
	for _, a := range known {
		knownSet[address.Normalize(a)] = true
	}

	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.sourceIndex % len(customers)
	for i := 0; i < len(customers); i++ {
		idx := (start + i) % len(customers)
		customer := customers[idx]

		num, street, ok := address.SplitHouseNumber(customer.Address)
		if !ok {
			// No leading house number; dead end for this customer.
			continue
		}

		for offset := 1; offset <= maxAttempts; offset++ {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			candidate := fmt.Sprintf("%d %s", num+offset, street)
			if knownSet[address.Normalize(candidate)] {
				continue
			}
			place, err := s.Geocoder.Geocode(ctx, geocode.BuildQuery(candidate, "", s.Country))
			if err != nil {
				// Unresolvable and transport failures alike mean "not a
				// real address here"; move to the next offset.
				s.Logger.Debug().Str("candidate", candidate).Err(err).Msg("candidate not resolvable")
				continue
			}
			s.sourceIndex = (idx + 1) % len(customers)
			return &Suggestion{
				Address:          candidate,
				DisplayName:      place.DisplayName,
				Lat:              place.Lat,
				Lon:              place.Lon,
				SourceCustomerID: customer.ID,
			}, nil
		}
	}

	// Full cycle with nothing to offer; leave the cursor where it was.
	return nil, nil
}
