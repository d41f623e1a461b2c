package lms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	searchPath = "/restapi/sites/all/organisations/search/v1"
	sitePath   = "/restapi/sites/%d/v1"
)

// Directory looks up organisations on the public itslearning host.
type Directory struct {
	baseURL string
	opts    options
}

// NewDirectory returns a Directory rooted at baseURL, or at DefaultBaseURL
// when baseURL is empty.
func NewDirectory(baseURL string, opts ...Option) *Directory {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Directory{baseURL: strings.TrimRight(baseURL, "/"), opts: o}
}

// SearchOrganisations returns the organisations whose name matches query.
// No match is an empty result, not an error.
func (d *Directory) SearchOrganisations(ctx context.Context, query string) ([]OrganisationMatch, error) {
	body, err := d.opts.get(ctx, d.opts.httpClient, d.baseURL+searchPath, url.Values{"searchText": {query}})
	if err != nil {
		return nil, err
	}
	items, err := entityArray(body, "organisation search", true)
	if err != nil {
		return nil, err
	}
	matches, err := parseAll(items, func(e entity) (OrganisationMatch, error) {
		var m OrganisationMatch
		f := e.fields("organisation search")
		f.get("CustomerId", &m.ID)
		f.get("SiteName", &m.Name)
		return m, f.err
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// FetchOrganisation loads the tenant metadata of organisation id.
func (d *Directory) FetchOrganisation(ctx context.Context, id int64) (*Organisation, error) {
	body, err := d.opts.get(ctx, d.opts.httpClient, d.baseURL+fmt.Sprintf(sitePath, id), nil)
	if err != nil {
		return nil, err
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull) {
		return nil, fmt.Errorf("%w: customer id %d", ErrNotFound, id)
	}

	var e entity
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, &SchemaError{Entity: "organisation", Field: "CustomerId", Err: err}
	}
	var (
		customerID               int64
		name, shortName, baseURL string
	)
	f := e.fields("organisation")
	f.get("CustomerId", &customerID)
	f.get("Title", &name)
	f.get("ShortName", &shortName)
	f.get("BaseUrl", &baseURL)
	if f.err != nil {
		return nil, f.err
	}
	return newOrganisation(customerID, name, shortName, baseURL, d.opts)
}

// FetchFirstMatch loads the first organisation of a search result.
func (d *Directory) FetchFirstMatch(ctx context.Context, matches []OrganisationMatch) (*Organisation, error) {
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no search match", ErrNotFound)
	}
	return d.FetchOrganisation(ctx, matches[0].ID)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
