package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// VersionService reads version history and changelogs.
type VersionService struct {
	c *Client
}

// versionListResponse wraps the paginated version list response.
type versionListResponse struct {
	Versions []ContractVersion `json:"versions"`
	HasMore  bool              `json:"has_more"`
}

// List returns the version history for a contract, newest first.
func (s *VersionService) List(ctx context.Context, contractID string, limit, offset int) ([]ContractVersion, bool, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	var resp versionListResponse
	path := "/api/v1/contracts/" + url.PathEscape(contractID) + "/versions"
	if err := s.c.get(ctx, path, params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Versions, resp.HasMore, nil
}

// Get returns a single version by sequence number.
func (s *VersionService) Get(ctx context.Context, contractID string, sequence int) (*ContractVersion, error) {
	var version ContractVersion
	path := fmt.Sprintf("/api/v1/contracts/%s/versions/%d", url.PathEscape(contractID), sequence)
	if err := s.c.get(ctx, path, nil, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

// Changelog returns the persisted changelog entry for a version.
func (s *VersionService) Changelog(ctx context.Context, contractID string, sequence int) (*ChangeLogEntry, error) {
	var entry ChangeLogEntry
	path := fmt.Sprintf("/api/v1/contracts/%s/versions/%d/changelog", url.PathEscape(contractID), sequence)
	if err := s.c.get(ctx, path, nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Compare computes the diff between two arbitrary versions on the server.
func (s *VersionService) Compare(ctx context.Context, contractID string, from, to int) (*ChangeLogEntry, error) {
	params := url.Values{}
	params.Set("from", strconv.Itoa(from))
	params.Set("to", strconv.Itoa(to))
	var entry ChangeLogEntry
	path := "/api/v1/contracts/" + url.PathEscape(contractID) + "/compare"
	if err := s.c.get(ctx, path, params, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
