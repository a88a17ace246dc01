// Package anomaly flags workflow problems in Jira ticket snapshots: stale
// work, scope creep after completion, stalled reviews, task switching and
// (when GitHub data is supplied) pull requests with no ticket reference.
//
// Every detector is a pure function of (now, input). The engine runs them
// in a fixed order and concatenates their output; there is no ranking or
// cross-detector suppression beyond the final truncation.
package anomaly

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devai/internal/models"
)

// Thresholds
const (
	StaleMediumDays            = 5
	StaleHighDays              = 7
	ReviewStaleDays            = 2
	ScopeCreepMinTransitions   = 2
	TaskSwitchingMinTickets    = 5
	TaskSwitchingAffectedLimit = 5
	DefaultMaxAnomalies        = 20
)

// Clock returns the current time
type Clock func() time.Time

// Input is one detection batch
type Input struct {
	Tickets []models.TicketSnapshot
	// PullRequests is nil when no GitHub data accompanied the request; the
	// missing-link pass only runs when it is non-nil.
	PullRequests []models.PullRequest
	// ProjectKey restricts which issue keys count as a ticket reference
	ProjectKey   string
	MaxAnomalies int
}

// Result is the output of one detection run
type Result struct {
	Anomalies   []models.Anomaly
	Diagnostics []models.Diagnostic
	DetectedAt  time.Time
}

// Detector is one independent detection pass
type Detector interface {
	Name() string
	Detect(now time.Time, in Input) ([]models.Anomaly, []models.Diagnostic)
}

// Engine runs the detectors in order
type Engine struct {
	clock     Clock
	detectors []Detector
	logger    logrus.FieldLogger
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the wall clock
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger used for run summaries
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDetectors replaces the default detector chain
func WithDetectors(d ...Detector) Option {
	return func(e *Engine) { e.detectors = d }
}

// DefaultDetectors returns the detector chain in output order
func DefaultDetectors() []Detector {
	return []Detector{
		StaleDetector{},
		ScopeCreepDetector{},
		StatusMismatchDetector{},
		TaskSwitchingDetector{},
		MissingLinkDetector{},
	}
}

// NewEngine creates an engine with the default detectors and wall clock
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		clock:     func() time.Time { return time.Now().UTC() },
		detectors: DefaultDetectors(),
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Detect runs every detector against the same instant and truncates the
// concatenated output to in.MaxAnomalies. A negative limit falls back to
// DefaultMaxAnomalies.
func (e *Engine) Detect(in Input) Result {
	now := e.clock().UTC()
	limit := in.MaxAnomalies
	if limit < 0 {
		limit = DefaultMaxAnomalies
	}

	res := Result{
		Anomalies:   []models.Anomaly{},
		Diagnostics: []models.Diagnostic{},
		DetectedAt:  now,
	}
	for _, d := range e.detectors {
		found, diags := d.Detect(now, in)
		e.logger.WithFields(logrus.Fields{
			"detector":    d.Name(),
			"anomalies":   len(found),
			"diagnostics": len(diags),
		}).Debug("detector finished")
		res.Anomalies = append(res.Anomalies, found...)
		res.Diagnostics = append(res.Diagnostics, diags...)
	}

	if len(res.Anomalies) > limit {
		res.Anomalies = res.Anomalies[:limit]
	}
	e.logger.WithFields(logrus.Fields{
		"tickets":   len(in.Tickets),
		"anomalies": len(res.Anomalies),
	}).Info("anomaly detection complete")
	return res
}

// wholeDays is floor((now - then) / 24h)
func wholeDays(now, then time.Time) int {
	d := now.Sub(then)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

// eachTicket calls fn for every ticket, converting a panic on one ticket into
// a diagnostic so the remaining tickets are still processed.
func eachTicket(detector string, tickets []models.TicketSnapshot, fn func(models.TicketSnapshot)) (diags []models.Diagnostic) {
	for _, t := range tickets {
		func() {
			defer func() {
				if r := recover(); r != nil {
					diags = append(diags, models.Diagnostic{
						Record: t.Key,
						Reason: fmt.Sprintf("%s: %v", detector, r),
					})
				}
			}()
			fn(t)
		}()
	}
	return diags
}

func developers(assignee string) []string {
	if assignee == "" {
		return []string{}
	}
	return []string{assignee}
}
