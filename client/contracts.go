package client

import (
	"context"
	"net/url"
	"strconv"
)

// ContractService handles contract CRUD operations.
type ContractService struct {
	c *Client
}

// contractListResponse wraps the paginated contract list response.
type contractListResponse struct {
	Contracts []Contract `json:"contracts"`
	HasMore   bool       `json:"has_more"`
}

// List returns contracts with optional filtering and pagination.
func (s *ContractService) List(ctx context.Context, opts *ContractListOptions) ([]Contract, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Status != "" {
			params.Set("status", opts.Status)
		}
		if opts.Counterparty != "" {
			params.Set("counterparty", opts.Counterparty)
		}
		if opts.Query != "" {
			params.Set("q", opts.Query)
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp contractListResponse
	if err := s.c.get(ctx, "/api/v1/contracts", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Contracts, resp.HasMore, nil
}

// Get returns a single contract by ID.
func (s *ContractService) Get(ctx context.Context, id string) (*Contract, error) {
	var contract Contract
	if err := s.c.get(ctx, "/api/v1/contracts/"+url.PathEscape(id), nil, &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

// Create creates a new draft contract, snapshotting version 1.
func (s *ContractService) Create(ctx context.Context, req *CreateContractRequest) (*Contract, error) {
	var contract Contract
	if err := s.c.post(ctx, "/api/v1/contracts", req, &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

// Update updates a draft contract. Changes to tracked fields or the
// annexure body snapshot a new version on the server.
func (s *ContractService) Update(ctx context.Context, id string, req *UpdateContractRequest) (*Contract, error) {
	var contract Contract
	if err := s.c.put(ctx, "/api/v1/contracts/"+url.PathEscape(id), req, &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}
