package lms_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/d9705996/tasksync/internal/lms"
	"github.com/d9705996/tasksync/internal/lms/lmstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrganisation(t *testing.T) (*lms.Organisation, *lmstest.Server) {
	t.Helper()
	dir, srv := newDirectory(t)
	org, err := dir.FetchOrganisation(context.Background(), lmstest.CustomerID)
	require.NoError(t, err)
	return org, srv
}

func TestAuthenticate(t *testing.T) {
	org, srv := newOrganisation(t)

	sess, err := org.Authenticate(context.Background(), lmstest.Username, lmstest.Password)
	require.NoError(t, err)
	assert.Equal(t, "access-"+lmstest.Username, sess.Token.AccessToken)
	assert.Equal(t, "refresh-"+lmstest.Username, sess.Token.RefreshToken)
	assert.Equal(t, int64(3600), sess.Token.ExpiresIn)
	assert.True(t, sess.Token.Valid())
	assert.Same(t, org, sess.Organisation)

	form := srv.LastForm(lmstest.TokenPath)
	assert.Equal(t, "password", form.Get("grant_type"))
	assert.Equal(t, lms.DefaultClientID, form.Get("client_id"))
	assert.Equal(t, lmstest.Username, form.Get("username"))
	assert.Equal(t, lmstest.Password, form.Get("password"))
	assert.Equal(t, "CustomerId=4242", srv.LastCookie(lmstest.TokenPath))
}

func TestAuthenticate_ClientID(t *testing.T) {
	srv := lmstest.NewServer(t)
	dir := lms.NewDirectory(srv.URL, lms.WithHTTPClient(srv.Client()), lms.WithClientID("other-client"))
	org, err := dir.FetchOrganisation(context.Background(), lmstest.CustomerID)
	require.NoError(t, err)

	_, err = org.Authenticate(context.Background(), lmstest.Username, lmstest.Password)
	require.NoError(t, err)
	assert.Equal(t, "other-client", srv.LastForm(lmstest.TokenPath).Get("client_id"))
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	org, _ := newOrganisation(t)

	_, err := org.Authenticate(context.Background(), lmstest.Username, "wrong")
	require.ErrorIs(t, err, lms.ErrAuthentication)

	var tErr *lms.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusBadRequest, tErr.StatusCode)
}

func TestAuthenticate_NonOKSuccess(t *testing.T) {
	org, srv := newOrganisation(t)
	srv.SetStatus(lmstest.TokenPath, http.StatusCreated)

	_, err := org.Authenticate(context.Background(), lmstest.Username, lmstest.Password)
	assert.ErrorIs(t, err, lms.ErrAuthentication)
}

func TestAuthenticate_MissingRefreshToken(t *testing.T) {
	org, srv := newOrganisation(t)
	srv.SetTokenResponse(map[string]any{
		"access_token": "only-access",
		"token_type":   "bearer",
		"expires_in":   3600,
	})

	_, err := org.Authenticate(context.Background(), lmstest.Username, lmstest.Password)
	var sErr *lms.SchemaError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "refresh_token", sErr.Field)
}

func TestAuthenticate_MissingExpiry(t *testing.T) {
	org, srv := newOrganisation(t)
	srv.SetTokenResponse(map[string]any{
		"access_token":  "no-expiry",
		"refresh_token": "r",
		"token_type":    "bearer",
	})

	_, err := org.Authenticate(context.Background(), lmstest.Username, lmstest.Password)
	var sErr *lms.SchemaError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "expires_in", sErr.Field)
}

func TestOrganisations_DoNotShareCookies(t *testing.T) {
	srv := lmstest.NewServer(t)
	srv.SetTenant(5, map[string]any{
		"CustomerId": 5,
		"Title":      "Second School",
		"ShortName":  "ss",
		"BaseUrl":    lmstest.SelfURL,
	})
	dir := lms.NewDirectory(srv.URL, lms.WithHTTPClient(srv.Client()))

	first, err := dir.FetchOrganisation(context.Background(), lmstest.CustomerID)
	require.NoError(t, err)
	second, err := dir.FetchOrganisation(context.Background(), 5)
	require.NoError(t, err)

	_, err = second.Authenticate(context.Background(), lmstest.Username, lmstest.Password)
	require.NoError(t, err)
	assert.Equal(t, "CustomerId=5", srv.LastCookie(lmstest.TokenPath))

	_, err = first.Authenticate(context.Background(), lmstest.Username, lmstest.Password)
	require.NoError(t, err)
	assert.Equal(t, "CustomerId=4242", srv.LastCookie(lmstest.TokenPath))
}
