package lms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	personPath              = "/restapi/personal/person/v1"
	coursesPath             = "/restapi/personal/courses/v1"
	tasksPath               = "/restapi/personal/tasks/v1"
	unreadMessagesPath      = "/restapi/personal/instantmessages/messagethreads/unread/count/v1"
	unreadNotificationsPath = "/restapi/personal/notifications/unread/count/v1"
	notificationsPath       = "/restapi/personal/notifications/v1"
	commentsPath            = "/restapi/personal/lightbulletins/%d/comments/v1"
	threadsPath             = "/restapi/personal/instantmessages/messagethreads/v1"
	newsPath                = "/restapi/personal/notifications/stream/v1"

	// Notification, comment and news listings always read the first page.
	pageSize = 20
)

// TokenSet is the result of a password grant. It is never refreshed.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Valid reports whether the set can authorize requests. Only the sign of
// ExpiresIn is checked, never the time elapsed since issue.
func (t TokenSet) Valid() bool {
	return t.AccessToken != "" && t.ExpiresIn > 0
}

// Session fetches one user's personal data. Profile, courses and tasks are
// fetched at most once; later calls return the stored values until
// Invalidate is called. A Session is not safe for concurrent use.
type Session struct {
	Token        TokenSet
	Organisation *Organisation

	client *http.Client
	opts   options

	profile cached[Profile]
	courses cached[[]Course]
	tasks   cached[[]Task]
}

// NewSession binds a token set to org. Authenticate is the usual way to get
// one; NewSession also serves callers that kept a token set from earlier.
func NewSession(org *Organisation, token TokenSet) *Session {
	return &Session{
		Token:        token,
		Organisation: org,
		client:       newClient(org.opts.httpClient, nil),
		opts:         org.opts,
	}
}

// get fetches a personal endpoint with the access token as query parameter.
func (s *Session) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if !s.Token.Valid() {
		return nil, ErrNotAuthenticated
	}
	q := url.Values{"access_token": {s.Token.AccessToken}}
	for k, vs := range params {
		q[k] = vs
	}
	return s.opts.get(ctx, s.client, s.Organisation.BaseURL+path, q)
}

func (s *Session) list(ctx context.Context, path string, params url.Values, kind string) ([]entity, error) {
	body, err := s.get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return entityArray(body, kind, false)
}

func firstPage() url.Values {
	return url.Values{"PageIndex": {"0"}, "PageSize": {strconv.Itoa(pageSize)}}
}

// FetchPersonalInfo returns the user's profile.
func (s *Session) FetchPersonalInfo(ctx context.Context) (Profile, error) {
	if !s.Token.Valid() {
		return Profile{}, ErrNotAuthenticated
	}
	return s.profile.get(func() (Profile, error) {
		body, err := s.get(ctx, personPath, nil)
		if err != nil {
			return Profile{}, err
		}
		var e entity
		if err := json.Unmarshal(body, &e); err != nil {
			return Profile{}, &SchemaError{Entity: "person", Field: "PersonId", Err: err}
		}
		return parseProfile(e)
	})
}

// FetchCourses returns the user's courses.
func (s *Session) FetchCourses(ctx context.Context) ([]Course, error) {
	if !s.Token.Valid() {
		return nil, ErrNotAuthenticated
	}
	return s.courses.get(func() ([]Course, error) {
		items, err := s.list(ctx, coursesPath, nil, "courses")
		if err != nil {
			return nil, err
		}
		return parseAll(items, parseCourse)
	})
}

// FetchTasks returns the user's tasks.
func (s *Session) FetchTasks(ctx context.Context) ([]Task, error) {
	if !s.Token.Valid() {
		return nil, ErrNotAuthenticated
	}
	return s.tasks.get(func() ([]Task, error) {
		items, err := s.list(ctx, tasksPath, nil, "tasks")
		if err != nil {
			return nil, err
		}
		return parseAll(items, parseTask)
	})
}

// FetchInfo fetches the profile, the courses and the tasks, in that order.
// It stops at the first error; whatever was fetched before it stays stored.
func (s *Session) FetchInfo(ctx context.Context) error {
	if _, err := s.FetchPersonalInfo(ctx); err != nil {
		return fmt.Errorf("fetch personal info: %w", err)
	}
	if _, err := s.FetchCourses(ctx); err != nil {
		return fmt.Errorf("fetch courses: %w", err)
	}
	if _, err := s.FetchTasks(ctx); err != nil {
		return fmt.Errorf("fetch tasks: %w", err)
	}
	return nil
}

// Profile returns the stored profile without any request.
func (s *Session) Profile() (Profile, bool) { return s.profile.peek() }

// Courses returns the stored courses without any request.
func (s *Session) Courses() ([]Course, bool) { return s.courses.peek() }

// Tasks returns the stored tasks without any request.
func (s *Session) Tasks() ([]Task, bool) { return s.tasks.peek() }

// Invalidate drops the stored courses and tasks so the next fetch goes to
// the network. The profile is kept.
func (s *Session) Invalidate() {
	s.courses.reset()
	s.tasks.reset()
}

// FetchUnreadMessageCount returns the raw unread message count payload.
func (s *Session) FetchUnreadMessageCount(ctx context.Context) (json.RawMessage, error) {
	return s.get(ctx, unreadMessagesPath, nil)
}

// FetchUnreadNotificationCount returns the raw unread notification count payload.
func (s *Session) FetchUnreadNotificationCount(ctx context.Context) (json.RawMessage, error) {
	return s.get(ctx, unreadNotificationsPath, nil)
}

// FetchNotifications returns the first page of notifications.
func (s *Session) FetchNotifications(ctx context.Context) ([]Notification, error) {
	items, err := s.list(ctx, notificationsPath, firstPage(), "notifications")
	if err != nil {
		return nil, err
	}
	return parseAll(items, parseNotification)
}

// FetchComments returns the raw first page of comments on bulletin id.
func (s *Session) FetchComments(ctx context.Context, id int64) (json.RawMessage, error) {
	return s.get(ctx, fmt.Sprintf(commentsPath, id), firstPage())
}

// FetchMessageThreads returns message threads selected by opts.
func (s *Session) FetchMessageThreads(ctx context.Context, opts ThreadOptions) ([]Thread, error) {
	opts = opts.withDefaults()
	params := url.Values{
		"maxThreadCount": {strconv.Itoa(opts.MaxThreadCount)},
		"threadPage":     {strconv.Itoa(opts.PageIndex)},
		"maxMessages":    {strconv.Itoa(opts.PageSize)},
	}
	if opts.Query != "" {
		params.Set("searchText", opts.Query)
	}
	items, err := s.list(ctx, threadsPath, params, "message threads")
	if err != nil {
		return nil, err
	}
	return parseAll(items, parseThread)
}

// FetchNews returns the first page of the notification stream.
func (s *Session) FetchNews(ctx context.Context) ([]NewsItem, error) {
	items, err := s.list(ctx, newsPath, firstPage(), "news")
	if err != nil {
		return nil, err
	}
	return parseAll(items, parseNewsItem)
}
