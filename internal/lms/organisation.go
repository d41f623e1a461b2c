package lms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

const tokenPath = "/restapi/oauth2/token"

// Organisation is one itslearning tenant. Its HTTP client carries the
// tenant's login cookie and is never shared with another organisation.
type Organisation struct {
	ID        int64
	Name      string
	ShortName string
	BaseURL   string

	client *http.Client
	opts   options
}

func newOrganisation(id int64, name, shortName, baseURL string, opts options) (*Organisation, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &SchemaError{Entity: "organisation", Field: "BaseUrl", Err: fmt.Errorf("invalid base url %q", baseURL)}
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	jar.SetCookies(base, []*http.Cookie{{
		Name:  "login",
		Value: "CustomerId=" + formatID(id),
		Path:  "/",
	}})

	return &Organisation{
		ID:        id,
		Name:      name,
		ShortName: shortName,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		client:    newClient(opts.httpClient, jar),
		opts:      opts,
	}, nil
}

// Authenticate exchanges a username and password for a token set with the
// password grant, against this tenant's own token endpoint.
func (o *Organisation) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	rec := &statusRecorder{next: o.client.Transport}
	hc := *o.client
	hc.Transport = rec
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &hc)

	conf := oauth2.Config{
		ClientID: o.opts.clientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  o.BaseURL + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	tok, err := conf.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var rErr *oauth2.RetrieveError
		switch {
		case errors.As(err, &rErr):
			tErr := &TransportError{
				Method:     http.MethodPost,
				URL:        o.BaseURL + tokenPath,
				StatusCode: rec.status,
				Body:       string(rErr.Body),
			}
			return nil, fmt.Errorf("%w: %w", ErrAuthentication, tErr)
		case rec.status == 0:
			return nil, &TransportError{Method: http.MethodPost, URL: o.BaseURL + tokenPath, Err: err}
		case rec.status != http.StatusOK:
			return nil, fmt.Errorf("%w: token endpoint returned %d: %w", ErrAuthentication, rec.status, err)
		default:
			return nil, &SchemaError{Entity: "token", Field: "access_token", Err: err}
		}
	}
	if rec.status != http.StatusOK {
		return nil, fmt.Errorf("%w: token endpoint returned %d", ErrAuthentication, rec.status)
	}

	set, err := tokenSet(tok)
	if err != nil {
		return nil, err
	}
	o.opts.log.DebugContext(ctx, "lms authenticated", "organisation", o.ID)
	return NewSession(o, set), nil
}

// tokenSet reads the fields the API is expected to return. oauth2 tolerates
// a missing refresh_token or expires_in; this client does not.
func tokenSet(tok *oauth2.Token) (TokenSet, error) {
	if tok.Extra("refresh_token") == nil {
		return TokenSet{}, &SchemaError{Entity: "token", Field: "refresh_token"}
	}
	expiresIn, err := seconds(tok.Extra("expires_in"))
	if err != nil {
		return TokenSet{}, &SchemaError{Entity: "token", Field: "expires_in", Err: err}
	}
	return TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

func seconds(v any) (int64, error) {
	switch v := v.(type) {
	case nil:
		return 0, errors.New("missing")
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

// statusRecorder remembers the status of the last response it carried.
type statusRecorder struct {
	next   http.RoundTripper
	status int
}

func (r *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	next := r.next
	if next == nil {
		next = http.DefaultTransport
	}
	res, err := next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	r.status = res.StatusCode
	return res, nil
}
