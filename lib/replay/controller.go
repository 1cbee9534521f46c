// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ecs-project/ecs/lib/bus"
	"github.com/ecs-project/ecs/lib/clock"
	"github.com/ecs-project/ecs/lib/elastic"
	"github.com/ecs-project/ecs/lib/scenario"
)

// ClearPrefix starts the name of every index-clearing controller.
const ClearPrefix = "clear:"

// Settings is the session-wide context every controller shares.
type Settings struct {
	// Bus receives progress ([+] on the logs stream) and failures
	// ([!] on the errors stream). Required.
	Bus *bus.Bus

	// Clock paces trickle delivery and supplies "now". Nil means the
	// real clock.
	Clock clock.Clock

	// Ledger records every replayed index for "all" clears. Nil gives
	// the controller a private ledger.
	Ledger *IndexLedger

	// RequestTimeout bounds index deletions. Zero means
	// elastic.DefaultTimeout.
	RequestTimeout time.Duration

	// BulkTimeout bounds bulk writes. Zero means they end only with
	// the controller's context.
	BulkTimeout time.Duration

	// Transport overrides the backend HTTP transport.
	Transport http.RoundTripper

	Logger *slog.Logger
}

// Job is a fully resolved unit of work for a controller.
type Job struct {
	// Name identifies the controller in the registry.
	Name string

	// File is the log dump to replay. Unused for clears.
	File string

	Profile elastic.Profile

	// Clear, when set, makes the controller delete this index (or
	// every ledger index, for "all") instead of replaying File.
	Clear string
}

// Controller replays one log source, or clears an index, on its own
// goroutine. It is constructed idle; Run starts it, Cancel stops it
// and waits. A controller whose configuration is unusable is
// constructed already finished.
type Controller struct {
	job      Job
	client   *elastic.Client
	bus      *bus.Bus
	clock    clock.Clock
	ledger   *IndexLedger
	logger   *slog.Logger
	disabled bool

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
	started  atomic.Bool
}

// NewController creates a replay controller for a scenario log
// source. The source's profile is loaded now; the source's index and
// time settings override the profile's. When the profile is missing
// or incomplete the problem is reported on the errors stream and the
// controller is returned finished.
func NewController(source scenario.LogSource, settings Settings) *Controller {
	profile, err := sourceProfile(source)
	if err != nil {
		return disabledController(source.ID, settings, err)
	}
	return NewProfileController(Job{Name: source.ID, File: source.File, Profile: profile}, settings)
}

// NewClearController creates a controller that deletes index using
// the backend profile of source. index may be "all".
func NewClearController(source scenario.LogSource, index string, settings Settings) *Controller {
	name := ClearPrefix + index
	profile, err := sourceProfile(source)
	if err != nil {
		return disabledController(name, settings, err)
	}
	return NewProfileController(Job{Name: name, Profile: profile, Clear: index}, settings)
}

// NewProfileController creates a controller for an already resolved
// job. Replay jobs record their index in the ledger and announce
// their options on the logs stream.
func NewProfileController(job Job, settings Settings) *Controller {
	c := newController(job.Name, settings)
	c.job = job
	c.client = elastic.NewClient(job.Profile, elastic.ClientOptions{
		Timeout:     settings.RequestTimeout,
		BulkTimeout: settings.BulkTimeout,
		Transport:   settings.Transport,
		Logger:      c.logger,
	})
	if job.Clear == "" {
		c.ledger.Append(job.Profile.Index)
		c.notify("Log Controller created with options:\n\tIP: %s:%d\n\tSSL: %t\n\tTimestamps: %s\n\tIndex: %s\n\tAuthentication: %s:%s",
			job.Profile.IP, job.Profile.Port, job.Profile.Secure, job.Profile.Time, job.Profile.Index,
			job.Profile.Username, maskPassword(job.Profile.Password))
	}
	return c
}

func newController(name string, settings Settings) *Controller {
	clk := settings.Clock
	if clk == nil {
		clk = clock.Real()
	}
	ledger := settings.Ledger
	if ledger == nil {
		ledger = NewIndexLedger()
	}
	logger := settings.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		job:    Job{Name: name},
		bus:    settings.Bus,
		clock:  clk,
		ledger: ledger,
		logger: logger.With("log", name),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func disabledController(name string, settings Settings, err error) *Controller {
	c := newController(name, settings)
	c.disabled = true
	c.fail("%s", configProblem(name, err))
	c.logger.Warn("log source disabled", "error", err)
	c.started.Store(true)
	c.finish()
	return c
}

// errNoConfig marks a log source without a profile path.
var errNoConfig = errors.New("no config file")

func sourceProfile(source scenario.LogSource) (elastic.Profile, error) {
	if source.Config == "" {
		return elastic.Profile{}, errNoConfig
	}
	profile, err := elastic.LoadProfile(source.Config)
	if err != nil {
		return elastic.Profile{}, err
	}
	if source.Index != "" {
		profile.Index = source.Index
	}
	if source.Time != "" {
		profile.Time = source.Time
	}
	return profile, nil
}

// configProblem renders a profile failure as the operator sees it.
func configProblem(name string, err error) string {
	var incomplete *elastic.IncompleteProfileError
	switch {
	case errors.Is(err, errNoConfig):
		return fmt.Sprintf("Missing config file for %s. Log is disabled.", name)
	case errors.As(err, &incomplete):
		return fmt.Sprintf("Bad config provided for %s. %s not found.", name, strings.Join(incomplete.Missing, ", "))
	case errors.Is(err, elastic.ErrMissingSection):
		return fmt.Sprintf("Bad config provided for %s. No [ELK] section.", name)
	default:
		return fmt.Sprintf("Bad config provided for %s. %v", name, err)
	}
}

func maskPassword(password string) string {
	if password == "" {
		return ""
	}
	return "********"
}

// Name returns the controller's registry name: the log source id, or
// "clear:<index>" for clears.
func (c *Controller) Name() string {
	return c.job.Name
}

// Profile returns the backend profile in use.
func (c *Controller) Profile() elastic.Profile {
	return c.job.Profile
}

// Disabled reports whether construction failed.
func (c *Controller) Disabled() bool {
	return c.disabled
}

// Run starts the job on a new goroutine and returns immediately. Run
// on a finished, cancelled, or already running controller does
// nothing.
func (c *Controller) Run() {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.finish()
		if c.job.Clear != "" {
			c.clear(c.ctx, c.job.Clear)
		} else {
			c.replay(c.ctx)
		}
	}()
}

// Cancel stops the job at its next suspension point and waits for the
// goroutine to exit. After Cancel returns the controller makes no
// further backend requests and publishes nothing.
func (c *Controller) Cancel() {
	c.cancel()
	if c.started.CompareAndSwap(false, true) {
		// Never ran.
		c.finish()
		return
	}
	<-c.done
}

// Cancelled reports whether the controller has finished or been
// cancelled.
func (c *Controller) Cancelled() bool {
	return c.ctx.Err() != nil
}

// Done is closed when the controller's goroutine has exited.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) finish() {
	c.cancel()
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Controller) notify(format string, args ...any) {
	if c.bus != nil {
		c.bus.Publish(bus.Logs, "[+] "+fmt.Sprintf(format, args...))
	}
}

func (c *Controller) fail(format string, args ...any) {
	if c.bus != nil {
		c.bus.Publish(bus.Errors, "[!] "+fmt.Sprintf(format, args...))
	}
}

func (c *Controller) replay(ctx context.Context) {
	file, index := c.job.File, c.job.Profile.Index

	c.notify("parsing logs from: %s", file)
	events, err := ParseFile(ctx, file)
	if err != nil {
		if ctx.Err() != nil {
			c.logger.Debug("replay cancelled while parsing")
			return
		}
		c.fail("Error parsing %s: %v", file, err)
		return
	}

	option, err := ParseTimeOption(c.job.Profile.Time)
	if err != nil {
		c.fail("Time option <%s> not supported. See help for more details.", c.job.Profile.Time)
		return
	}
	c.notify("updating timestamps from: %s (w/ timestamp option %s)", file, option)
	events, err = Normalize(ctx, events, option, c.clock.Now())
	if err != nil {
		switch {
		case ctx.Err() != nil:
			c.logger.Debug("replay cancelled while normalizing")
		case errors.Is(err, ErrFormatConflict):
			c.fail("%s has attributes of both a Zeek log dump and a winlogbeat log dump. Nothing was sent. (%v)", file, err)
		default:
			c.fail("Updating timestamps in %s failed: %v", file, err)
		}
		return
	}

	if c.job.Profile.Delay {
		c.notify("trickling %s into index %s", file, index)
		sent, err := Trickle(ctx, c.client, c.clock, index, events, func(delivery Delivery) {
			if delivery.OK() {
				return
			}
			reason := delivery.Response.Status
			if delivery.Err != nil {
				reason = delivery.Err.Error()
			}
			c.fail("Bad response log #%d: %s", delivery.Number, reason)
		})
		if err != nil {
			c.logger.Debug("trickle cancelled", "sent", sent, "total", len(events))
			return
		}
		c.notify("%s : done. (%d events)", file, sent)
		return
	}

	c.notify("bulk sending %s into index %s", file, index)
	response, err := SendBulk(ctx, c.client, index, events)
	if err != nil {
		if ctx.Err() == nil {
			c.fail("Bulk send of %s failed: %v", file, err)
		}
		return
	}
	c.notify("%s : %s", file, describeResponse(response))
	if !response.OK() {
		c.fail("Bulk send of %s into index %s returned %s", file, index, response.Status)
		return
	}
	if summary, err := elastic.ParseBulkSummary(response.Body); err == nil && summary.Errors {
		c.fail("Bulk send of %s into index %s: %d of %d events rejected", file, index, summary.Rejected(), len(events))
	}
}

func (c *Controller) clear(ctx context.Context, index string) {
	if !IsAllIndexes(index) {
		c.deleteIndex(ctx, index)
		return
	}

	c.notify("Clearing all indexes that have been uploaded during this session . . .")
	for _, name := range c.ledger.Distinct() {
		if ctx.Err() != nil {
			return
		}
		if IsAllIndexes(name) {
			c.fail(`While clearing indexes received keyword "all". Skipping it; do not name an index "all".`)
			continue
		}
		c.deleteIndex(ctx, name)
	}
}

func (c *Controller) deleteIndex(ctx context.Context, index string) {
	c.notify("clearing index: %s", index)
	response, err := c.client.DeleteIndex(ctx, index)
	if err != nil {
		if ctx.Err() == nil {
			c.fail("Clearing index %s failed: %v", index, err)
		}
		return
	}
	if !response.OK() {
		c.fail("Clearing index %s returned %s", index, response.Status)
	}
}
