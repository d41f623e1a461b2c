// Package tasksync copies each registered user's LMS tasks into the store.
//
// A run is sequential: users are processed one after another and every
// failure is confined to the user it happened for. Duplicate detection is a
// lookup followed by an insert without a transaction, so two concurrent runs
// can insert the same task twice.
package tasksync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/d9705996/tasksync/internal/lms"
	"github.com/d9705996/tasksync/internal/model"
	"github.com/d9705996/tasksync/internal/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/d9705996/tasksync/internal/tasksync")

// errNoOrganisation marks a user whose organisation search had no hit.
var errNoOrganisation = errors.New("organisation not found")

// Directory is the part of lms.Directory the driver needs.
type Directory interface {
	SearchOrganisations(ctx context.Context, query string) ([]lms.OrganisationMatch, error)
	FetchFirstMatch(ctx context.Context, matches []lms.OrganisationMatch) (*lms.Organisation, error)
}

// Result counts what a run did.
type Result struct {
	Users    int // users listed from the store
	Synced   int // users whose tasks were all processed
	Failed   int // users abandoned after an error
	Inserted int // task rows written
	Skipped  int // tasks already present
}

// Driver runs sync passes.
type Driver struct {
	store   store.Store
	dir     Directory
	log     *slog.Logger
	metrics *metrics
}

// New returns a Driver. A nil logger discards output.
func New(s store.Store, dir Directory, log *slog.Logger, meter metric.Meter) (*Driver, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	m, err := newMetrics(meter)
	if err != nil {
		return nil, err
	}
	return &Driver{store: s, dir: dir, log: log, metrics: m}, nil
}

// Run performs one pass over every user. Only a failure to list users is
// returned; errors for a single user are logged and the pass continues.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	log := d.log.With("run_id", uuid.NewString())
	var res Result

	users, err := d.store.Users(ctx)
	if err != nil {
		return res, fmt.Errorf("list users: %w", err)
	}
	res.Users = len(users)
	if len(users) == 0 {
		log.InfoContext(ctx, "no users found")
		return res, nil
	}

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ulog := log.With("user", u.ItslearningUsername, "organisation", u.Organisation)
		inserted, skipped, err := d.syncUser(ctx, ulog, u)
		res.Inserted += inserted
		res.Skipped += skipped
		d.metrics.recordTasks(ctx, inserted, skipped)

		switch {
		case errors.Is(err, errNoOrganisation):
			ulog.WarnContext(ctx, "organisation not found")
			res.Failed++
			d.metrics.recordUser(ctx, false)
		case err != nil:
			ulog.ErrorContext(ctx, "sync user failed", "err", err)
			res.Failed++
			d.metrics.recordUser(ctx, false)
		default:
			ulog.InfoContext(ctx, "user synced", "inserted", inserted, "skipped", skipped)
			res.Synced++
			d.metrics.recordUser(ctx, true)
		}
	}

	log.InfoContext(ctx, "sync finished",
		"users", res.Users,
		"synced", res.Synced,
		"failed", res.Failed,
		"inserted", res.Inserted,
		"skipped", res.Skipped,
	)
	return res, nil
}

// syncUser processes one user. Rows inserted before an error stay inserted.
func (d *Driver) syncUser(ctx context.Context, log *slog.Logger, u model.User) (inserted, skipped int, err error) {
	ctx, span := tracer.Start(ctx, "tasksync.user")
	defer span.End()
	span.SetAttributes(attribute.String("tasksync.organisation", u.Organisation))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	matches, err := d.dir.SearchOrganisations(ctx, u.Organisation)
	if err != nil {
		return 0, 0, fmt.Errorf("search organisation: %w", err)
	}
	if len(matches) == 0 {
		return 0, 0, errNoOrganisation
	}
	org, err := d.dir.FetchFirstMatch(ctx, matches)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch organisation: %w", err)
	}

	sess, err := org.Authenticate(ctx, u.ItslearningUsername, u.ItslearningPassword)
	if err != nil {
		return 0, 0, fmt.Errorf("authenticate: %w", err)
	}
	if err := sess.FetchInfo(ctx); err != nil {
		return 0, 0, err
	}
	profile, _ := sess.Profile()
	tasks, _ := sess.Tasks()
	span.SetAttributes(
		attribute.Int64("lms.person_id", profile.ID),
		attribute.Int("lms.tasks", len(tasks)),
	)

	for _, t := range tasks {
		exists, err := d.store.TaskExists(ctx, t.ID, profile.ID)
		if err != nil {
			return inserted, skipped, err
		}
		if exists {
			log.InfoContext(ctx, "already exists", "task_id", t.ID, "task", t.Name)
			skipped++
			continue
		}
		row := &model.Task{
			TaskID:   t.ID,
			UserID:   profile.ID,
			Name:     t.Name,
			Course:   t.CourseName,
			Deadline: t.Deadline,
		}
		if err := d.store.InsertTask(ctx, row); err != nil {
			return inserted, skipped, err
		}
		inserted++
	}
	return inserted, skipped, nil
}
