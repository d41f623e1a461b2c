package lms_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/d9705996/tasksync/internal/lms"
	"github.com/d9705996/tasksync/internal/lms/lmstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDirectory(t *testing.T) (*lms.Directory, *lmstest.Server) {
	t.Helper()
	srv := lmstest.NewServer(t)
	return lms.NewDirectory(srv.URL, lms.WithHTTPClient(srv.Client())), srv
}

func TestSearchOrganisations(t *testing.T) {
	dir, srv := newDirectory(t)

	matches, err := dir.SearchOrganisations(context.Background(), "upper")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, lms.OrganisationMatch{ID: lmstest.CustomerID, Name: lmstest.SiteName}, matches[0])
	assert.Equal(t, "upper", srv.LastQuery(lmstest.SearchPath).Get("searchText"))
}

func TestSearchOrganisations_NoMatch(t *testing.T) {
	dir, _ := newDirectory(t)

	matches, err := dir.SearchOrganisations(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchOrganisations_ServerError(t *testing.T) {
	dir, srv := newDirectory(t)
	srv.SetStatus(lmstest.SearchPath, http.StatusInternalServerError)

	_, err := dir.SearchOrganisations(context.Background(), "upper")
	var tErr *lms.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusInternalServerError, tErr.StatusCode)
}

func TestSearchOrganisations_MissingField(t *testing.T) {
	dir, srv := newDirectory(t)
	srv.SetSites(map[string]any{"SiteName": "No Id School"})

	_, err := dir.SearchOrganisations(context.Background(), "")
	var sErr *lms.SchemaError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "CustomerId", sErr.Field)
}

func TestFetchOrganisation(t *testing.T) {
	dir, srv := newDirectory(t)

	org, err := dir.FetchOrganisation(context.Background(), lmstest.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, int64(lmstest.CustomerID), org.ID)
	assert.Equal(t, lmstest.SiteName, org.Name)
	assert.Equal(t, "eus", org.ShortName)
	assert.Equal(t, srv.URL, org.BaseURL)
}

func TestFetchOrganisation_NotFound(t *testing.T) {
	dir, _ := newDirectory(t)

	_, err := dir.FetchOrganisation(context.Background(), 1)
	assert.ErrorIs(t, err, lms.ErrNotFound)
}

func TestFetchOrganisation_InvalidBaseURL(t *testing.T) {
	dir, srv := newDirectory(t)
	srv.SetTenant(7, map[string]any{
		"CustomerId": 7,
		"Title":      "Relative School",
		"ShortName":  "rs",
		"BaseUrl":    "/relative",
	})

	_, err := dir.FetchOrganisation(context.Background(), 7)
	var sErr *lms.SchemaError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "BaseUrl", sErr.Field)
}

func TestFetchOrganisation_MissingBaseURL(t *testing.T) {
	dir, srv := newDirectory(t)
	srv.SetTenant(8, map[string]any{"CustomerId": 8, "Title": "T", "ShortName": "t"})

	_, err := dir.FetchOrganisation(context.Background(), 8)
	var sErr *lms.SchemaError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "BaseUrl", sErr.Field)
}

func TestFetchFirstMatch(t *testing.T) {
	dir, srv := newDirectory(t)

	t.Run("empty", func(t *testing.T) {
		_, err := dir.FetchFirstMatch(context.Background(), nil)
		assert.ErrorIs(t, err, lms.ErrNotFound)
	})

	t.Run("first wins", func(t *testing.T) {
		org, err := dir.FetchFirstMatch(context.Background(), []lms.OrganisationMatch{
			{ID: lmstest.CustomerID, Name: lmstest.SiteName},
			{ID: 1, Name: "Unknown"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(lmstest.CustomerID), org.ID)
		assert.Equal(t, 0, srv.Calls(lmstest.SitePath(1)))
	})
}

func TestTransportError_Unreachable(t *testing.T) {
	dir := lms.NewDirectory("http://127.0.0.1:1")

	_, err := dir.SearchOrganisations(context.Background(), "x")
	var tErr *lms.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Zero(t, tErr.StatusCode)
	assert.NotNil(t, errors.Unwrap(tErr))
}
