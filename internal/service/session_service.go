package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
	"github.com/arturoeanton/go-ecs-exec-evidence/pkg/config"
)

// Handler steps, reported in failed results.
const (
	StepParse           = "parse"
	StepScratch         = "scratch"
	StepEnsureTrail     = "ensure_trail"
	StepUserIdentity    = "report_user_identity"
	StepServiceIdentity = "report_service_identity"
	StepFetchTranscript = "fetch_transcript"
	StepLocateInitiator = "locate_initiator"
	StepAttachLogs      = "attach_command_logs"
)

// Dependencies are the collaborators a SessionService drives.
type Dependencies struct {
	Registry port.EvidenceRegistry
	Attester port.Attester
	Fetcher  port.ArtifactFetcher
	Tasks    port.TaskDescriber
	Locator  *Locator
	Recorder port.InvocationRecorder // optional
}

// Options configure a SessionService.
type Options struct {
	TrailKey            string // config.TrailKeySession or config.TrailKeyInitiator
	StepUserIdentity    string
	StepServiceIdentity string
	StepCommandLogs     string
	LogBucket           string
	LogFileSuffix       string
	ScratchDir          string
	LocatorTimeout      time.Duration
}

// OptionsFromConfig picks the service options out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TrailKey:            cfg.TrailKey,
		StepUserIdentity:    cfg.StepUserIdentity,
		StepServiceIdentity: cfg.StepServiceIdentity,
		StepCommandLogs:     cfg.StepCommandLogs,
		LogBucket:           cfg.LogBucket,
		LogFileSuffix:       cfg.LogFileSuffix,
		ScratchDir:          cfg.ScratchDir,
		LocatorTimeout:      cfg.LocatorTimeout,
	}
}

// SessionService reacts to the two session triggers. It keeps no state of
// its own between invocations: a trail is ensured before every attachment,
// so either trigger may run first, run concurrently, or be redelivered.
type SessionService struct {
	deps            Dependencies
	opts            Options
	userIdentity    *IdentityReporter
	serviceIdentity *IdentityReporter
}

// NewSessionService creates a session service.
func NewSessionService(deps Dependencies, opts Options) *SessionService {
	return &SessionService{
		deps:            deps,
		opts:            opts,
		userIdentity:    NewIdentityReporter(deps.Attester, opts.StepUserIdentity),
		serviceIdentity: NewIdentityReporter(deps.Attester, opts.StepServiceIdentity),
	}
}

// Template is the trail template every trail is begun with.
func (s *SessionService) Template() domain.TrailTemplate {
	return domain.TrailTemplate{
		Description: "ECS exec session evidence",
		Attestations: []string{
			s.opts.StepUserIdentity,
			s.opts.StepServiceIdentity,
			s.opts.StepCommandLogs,
		},
	}
}

// TrailFor returns the trail name a session's evidence goes to. A key with
// no valid trail name characters is rejected.
func (s *SessionService) TrailFor(sessionID, initiator string) (string, error) {
	key, field := sessionID, "session id"
	if s.opts.TrailKey == config.TrailKeyInitiator {
		key, field = initiator, "initiator"
	}
	name := domain.TrailName(key)
	if name == "" {
		return "", fmt.Errorf("%w: %s %q yields no valid trail name", port.ErrMissingField, field, key)
	}
	return name, nil
}

// Dispatch routes an EventBridge envelope to the matching handler.
func (s *SessionService) Dispatch(ctx context.Context, env domain.Envelope) domain.Result {
	switch env.DetailType {
	case domain.DetailTypeCloudTrailCall:
		return s.HandleSessionStarted(ctx, env.Detail)
	case domain.DetailTypeObjectCreated:
		return s.HandleLogDelivered(ctx, env.Detail)
	default:
		err := fmt.Errorf("%w: detail-type %q", port.ErrUnknownEvent, env.DetailType)
		slog.Error("event rejected", "detail_type", env.DetailType, "error", err)
		return domain.Failure("", StepParse, Classify(err), err.Error())
	}
}

// HandleSessionStarted reports who started a session and which service it
// attached to. Every failure is returned as a 500 result, never as a panic.
func (s *SessionService) HandleSessionStarted(ctx context.Context, detail json.RawMessage) (res domain.Result) {
	start := time.Now()
	var sessionID string
	defer func() { s.record(ctx, domain.TriggerSessionStarted, start, res) }()
	defer s.recoverInto(&res, &sessionID)

	sess, err := ParseSessionStart(detail)
	sessionID = sess.ID
	if err != nil {
		return s.fail(sessionID, atStep(StepParse, err))
	}
	slog.Info("session started", "session_id", sess.ID, "initiator", sess.Initiator, "task_arn", sess.TaskArn, "cluster", sess.Cluster)

	if err := s.reportIdentities(ctx, sess); err != nil {
		return s.fail(sessionID, err)
	}
	return domain.Success(sessionID, "identity evidence reported")
}

func (s *SessionService) reportIdentities(ctx context.Context, sess domain.Session) error {
	trail, err := s.TrailFor(sess.ID, sess.Initiator)
	if err != nil {
		return atStep(StepEnsureTrail, err)
	}

	scratch, err := NewScratch(s.opts.ScratchDir, sess.ID)
	if err != nil {
		return atStep(StepScratch, err)
	}
	defer s.cleanup(scratch, sess.ID)

	if err := s.deps.Registry.EnsureTrail(ctx, trail, s.Template()); err != nil {
		return atStep(StepEnsureTrail, err)
	}

	// The two attestations are independent appends to an existing trail.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverStep(StepUserIdentity, &err)
		doc := domain.UserIdentityDocument{RoleArn: sess.Initiator}
		return atStep(StepUserIdentity, s.userIdentity.Report(gctx, scratch, trail, sess.ID, doc))
	})
	g.Go(func() (err error) {
		defer recoverStep(StepServiceIdentity, &err)
		group, err := s.deps.Tasks.TaskGroup(gctx, sess.Cluster, sess.TaskArn)
		if err != nil {
			return atStep(StepServiceIdentity, fmt.Errorf("describe task %s: %w", sess.TaskArn, err))
		}
		doc := domain.ServiceIdentityDocument{ServiceIdentity: group}
		return atStep(StepServiceIdentity, s.serviceIdentity.Report(gctx, scratch, trail, sess.ID, doc))
	})
	return g.Wait()
}

// HandleLogDelivered attaches a delivered session transcript to the trail of
// the session, locating the initiator in the audit log first because the
// storage event does not carry it.
func (s *SessionService) HandleLogDelivered(ctx context.Context, detail json.RawMessage) (res domain.Result) {
	start := time.Now()
	var sessionID string
	defer func() { s.record(ctx, domain.TriggerLogDelivered, start, res) }()
	defer s.recoverInto(&res, &sessionID)

	bucket, key, sessionID, err := ParseLogDelivered(detail, s.opts.LogBucket, s.opts.LogFileSuffix)
	if err != nil {
		return s.fail(sessionID, atStep(StepParse, err))
	}
	slog.Info("session log delivered", "session_id", sessionID, "bucket", bucket, "key", key)

	if err := s.attachTranscript(ctx, sessionID, bucket, key); err != nil {
		return s.fail(sessionID, err)
	}
	return domain.Success(sessionID, "command logs reported")
}

func (s *SessionService) attachTranscript(ctx context.Context, sessionID, bucket, key string) error {
	scratch, err := NewScratch(s.opts.ScratchDir, sessionID)
	if err != nil {
		return atStep(StepScratch, err)
	}
	defer s.cleanup(scratch, sessionID)

	transcript, err := s.fetch(ctx, bucket, key, scratch.Dir)
	if err != nil {
		return atStep(StepFetchTranscript, err)
	}

	started, err := s.deps.Locator.Locate(ctx, sessionID, s.opts.LocatorTimeout)
	if err != nil {
		return atStep(StepLocateInitiator, err)
	}

	trail, err := s.TrailFor(sessionID, started.Initiator)
	if err != nil {
		return atStep(StepEnsureTrail, err)
	}
	if err := s.deps.Registry.EnsureTrail(ctx, trail, s.Template()); err != nil {
		return atStep(StepEnsureTrail, err)
	}

	slog.Info("reporting command logs", "session_id", sessionID, "trail", trail)
	err = s.deps.Attester.Attach(ctx, trail, domain.Evidence{
		Name:  s.opts.StepCommandLogs,
		Files: []string{transcript},
		UserData: map[string]any{
			"session_id": sessionID,
			"role_arn":   started.Initiator,
			"bucket":     bucket,
			"object_key": key,
		},
	})
	return atStep(StepAttachLogs, err)
}

// fetch downloads the transcript, retrying once on a transient failure.
func (s *SessionService) fetch(ctx context.Context, bucket, key, dir string) (string, error) {
	p, err := s.deps.Fetcher.Fetch(ctx, bucket, key, dir)
	if errors.Is(err, port.ErrTransient) {
		slog.Warn("transcript fetch failed, retrying once", "bucket", bucket, "key", key, "error", err)
		p, err = s.deps.Fetcher.Fetch(ctx, bucket, key, dir)
	}
	return p, err
}

func (s *SessionService) fail(sessionID string, err error) domain.Result {
	step := stepOf(err, "")
	class := Classify(err)
	slog.Error("handler failed", "session_id", sessionID, "step", step, "error_class", class, "error", err)
	return domain.Failure(sessionID, step, class, err.Error())
}

func (s *SessionService) recoverInto(res *domain.Result, sessionID *string) {
	if r := recover(); r != nil {
		slog.Error("handler panicked", "session_id", *sessionID, "panic", r)
		*res = domain.Failure(*sessionID, "", domain.ErrorClassInternal, fmt.Sprintf("panic: %v", r))
	}
}

// recoverStep turns a panic on a worker goroutine into an error tagged with
// step. recoverInto only sees panics on the handler's own goroutine.
func recoverStep(step string, err *error) {
	if r := recover(); r != nil {
		slog.Error("report panicked", "step", step, "panic", r)
		*err = atStep(step, fmt.Errorf("panic: %v", r))
	}
}

func (s *SessionService) cleanup(scratch *Scratch, sessionID string) {
	if err := scratch.Cleanup(); err != nil {
		slog.Warn("failed to remove scratch dir", "session_id", sessionID, "dir", scratch.Dir, "error", err)
	}
}

func (s *SessionService) record(ctx context.Context, trigger string, start time.Time, res domain.Result) {
	if s.deps.Recorder == nil {
		return
	}
	entry := domain.InvocationLog{
		Trigger:    trigger,
		SessionID:  res.SessionID,
		Code:       res.Code,
		Step:       res.Step,
		ErrorClass: res.ErrorClass,
		Message:    res.Message,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err := s.deps.Recorder.RecordInvocation(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("failed to record invocation", "session_id", res.SessionID, "error", err)
	}
}
