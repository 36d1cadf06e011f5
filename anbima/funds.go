package anbima

import (
	"context"
	"fmt"
)

// FundType selects a listing under the funds feed.
type FundType string

const (
	FundICVM       FundType = "fundos"
	FundStructured FundType = "fundos-estruturados"
	FundOffshore   FundType = "fundos-offshore"
	FundInvestors  FundType = "investidores"
)

// FundsService handles the funds feed listings.
type FundsService struct {
	session *Session
	req     *requester
	baseURL string
}

// ICVM lists ICVM 555 funds.
func (s *FundsService) ICVM(ctx context.Context, getAll bool) ([]Record, error) {
	return s.List(ctx, FundICVM, getAll, 0)
}

// Structured lists structured funds (FIDC, FII, FIP).
func (s *FundsService) Structured(ctx context.Context, getAll bool) ([]Record, error) {
	return s.List(ctx, FundStructured, getAll, 0)
}

// Offshore lists offshore funds.
func (s *FundsService) Offshore(ctx context.Context, getAll bool) ([]Record, error) {
	return s.List(ctx, FundOffshore, getAll, 0)
}

// Investors is declared by the API but not supported by this client. It
// always returns ErrUnimplemented without contacting the API.
func (s *FundsService) Investors(ctx context.Context, getAll bool) ([]Record, error) {
	return s.List(ctx, FundInvestors, getAll, 0)
}

// List returns the content of the given page of a funds listing. With
// getAll, page is ignored: page 0 is fetched, followed by every page its
// total_elements/size metadata announces, concatenated in page order.
func (s *FundsService) List(ctx context.Context, fundType FundType, getAll bool, page int) ([]Record, error) {
	if fundType == FundInvestors {
		return nil, fmt.Errorf("listing %s: %w", fundType, ErrUnimplemented)
	}

	if !getAll {
		p, err := s.Page(ctx, fundType, page)
		if err != nil {
			return nil, err
		}
		return p.Content, nil
	}

	first, err := s.Page(ctx, fundType, 0)
	if err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, n int) (*Page, error) {
		return s.Page(ctx, fundType, n)
	}
	fallback := func(p *Page) {
		s.req.logger.Warn().
			Str("fund_type", string(fundType)).
			Int("size", p.Size).
			Bool("total_elements_present", p.TotalElements != nil).
			Msg("pagination metadata unusable, returning first page only")
	}

	return collectPages(ctx, first, fetch, fallback)
}

// Page fetches a single listing page including its pagination metadata.
// Each page fetch is its own logical operation under the retry policy.
func (s *FundsService) Page(ctx context.Context, fundType FundType, page int) (*Page, error) {
	if fundType == FundInvestors {
		return nil, fmt.Errorf("listing %s: %w", fundType, ErrUnimplemented)
	}

	url := s.baseURL + "/" + string(fundType)

	var result Page
	err := s.req.retry(ctx, "funds.list", func(ctx context.Context) error {
		var p Page
		if err := s.req.get(ctx, s.session, "funds/"+string(fundType), url, pageQuery(page), &p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.req.metrics.RecordPageFetched(string(fundType))
	s.req.logger.Info().Int("page", page).Str("fund_type", string(fundType)).Msg("fetched funds page")

	return &result, nil
}
