package anbima

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DateLayout is the date format the ANBIMA feeds accept in query parameters.
const DateLayout = "2006-01-02"

// DebenturesService handles the debentures price feed.
type DebenturesService struct {
	session *Session
	req     *requester
	baseURL string
}

// Secondary fetches secondary-market quotes. params are sent verbatim as
// query parameters, e.g. {"date": "2024-01-15"}. 429 responses retry the
// whole call, re-authenticating if needed.
func (s *DebenturesService) Secondary(ctx context.Context, params map[string]string) ([]Record, error) {
	url := s.baseURL + "/mercado-secundario"

	var records []Record
	err := s.req.retry(ctx, "debentures.secondary", func(ctx context.Context) error {
		zerolog.Ctx(ctx).Info().Interface("params", params).Msg("fetching debentures")

		var page []Record
		if err := s.req.get(ctx, s.session, "debentures/mercado-secundario", url, params, &page); err != nil {
			return err
		}
		records = page
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// SecondaryByDate fetches secondary-market quotes for a single reference date.
func (s *DebenturesService) SecondaryByDate(ctx context.Context, date time.Time) ([]Record, error) {
	return s.Secondary(ctx, map[string]string{"date": date.Format(DateLayout)})
}
