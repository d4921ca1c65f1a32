package content

import (
	"context"
	"errors"
	"strings"
	"time"

	"chamber122/pkg/config"
	"chamber122/pkg/errutil"
	"chamber122/pkg/featureflags"
	"chamber122/pkg/logger"
	"chamber122/services/business"
	"chamber122/services/identity"
	"chamber122/services/notification"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("record not found")

const (
	defaultExpireAfter = 30 * 24 * time.Hour
	sweepBatchSize     = 500
)

// RegistrationCounter reports how many registrations each record has.
type RegistrationCounter interface {
	CountByRecord(ctx context.Context, recordIDs []string) (map[string]int64, error)
}

// BusinessStore is the part of business.Service content needs.
type BusinessStore interface {
	GetByID(ctx context.Context, id string) (*business.Business, error)
	CountPending(ctx context.Context) (int64, error)
}

type Service struct {
	db            *gorm.DB
	node          *snowflake.Node
	repo          Repository
	businesses    BusinessStore
	registrations RegistrationCounter
	flags         featureflags.FeatureFlag
	publisher     *notification.Publisher
	expireAfter   time.Duration
	log           *zap.Logger
	now           func() time.Time
}

type ServiceParams struct {
	fx.In
	DB            *gorm.DB
	Node          *snowflake.Node
	Businesses    *business.Service
	Config        *config.Config           `optional:"true"`
	Flags         featureflags.FeatureFlag `optional:"true"`
	Publisher     *notification.Publisher  `optional:"true"`
	Registrations RegistrationCounter      `optional:"true"`
	Logger        *zap.Logger              `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	flags := p.Flags
	if flags == nil {
		flags = featureflags.Static(nil)
	}
	expireAfter := defaultExpireAfter
	if p.Config != nil && p.Config.Content.ExpireAfter > 0 {
		expireAfter = p.Config.Content.ExpireAfter
	}

	var businesses BusinessStore
	if p.Businesses != nil {
		businesses = p.Businesses
	}

	return &Service{
		db:            p.DB,
		node:          p.Node,
		repo:          NewRepository(p.DB),
		businesses:    businesses,
		registrations: p.Registrations,
		flags:         flags,
		publisher:     p.Publisher,
		expireAfter:   expireAfter,
		log:           log,
		now:           time.Now,
	}
}

// systemActor is the identity the expiry sweep acts as.
var systemActor = &identity.Identity{Tier: identity.TierAdmin}

// CanManage reports whether who may edit or delete rec.
func CanManage(who *identity.Identity, rec *Record) bool {
	return who.IsAdmin() || owns(who, rec)
}

func owns(who *identity.Identity, rec *Record) bool {
	if who == nil || rec == nil {
		return false
	}
	if who.OwnsBusiness(rec.BusinessID) {
		return true
	}
	// Guest submissions belong to nobody once written, including their author.
	if rec.Origin == OriginGuest {
		return false
	}
	return rec.OwnerUserID != "" && rec.OwnerUserID == who.UserID()
}

func (s *Service) engine(ctx context.Context, who *identity.Identity) Engine {
	return Engine{
		EditRequiresReview: s.flags.IsEnabled(ctx, featureflags.ContentEditRequiresReview, who.UserID(), false),
	}
}

func (s *Service) storeErr(ctx context.Context, msg string, err error) error {
	var be errutil.BaseError
	switch {
	case errors.As(err, &be):
		return be
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errutil.NotFound("record not found", ErrRecordNotFound)
	case errors.Is(err, ErrVersionConflict):
		conflictsTotal.Inc()
		return errutil.Conflict("record was modified, reload and retry", err)
	default:
		logger.WithTrace(ctx, s.log).Error(msg, zap.Error(err))
		return errutil.Internal(msg, err)
	}
}

func (s *Service) load(ctx context.Context, kind Kind, id string) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr(ctx, "failed to load record", err)
	}
	if kind != "" && rec.Kind != kind {
		return nil, errutil.NotFound("record not found", ErrRecordNotFound)
	}
	return rec, nil
}

// Get returns a record the caller may see. Records that are not public are
// reported as missing to everyone but their owner and admins.
func (s *Service) Get(ctx context.Context, who *identity.Identity, kind Kind, id string) (*Record, error) {
	rec, err := s.load(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !rec.Visible() && !CanManage(who, rec) {
		return nil, errutil.NotFound("record not found", ErrRecordNotFound)
	}
	return rec, nil
}

// GetVisible returns a record only when it is publicly visible.
func (s *Service) GetVisible(ctx context.Context, kind Kind, id string) (*Record, error) {
	rec, err := s.load(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !rec.Visible() {
		return nil, errutil.NotFound("record not found", ErrRecordNotFound)
	}
	return rec, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func applyInput(rec *Record, in Input) {
	rec.Title = strings.TrimSpace(in.Title)
	rec.Description = strings.TrimSpace(in.Description)
	rec.Category = strings.TrimSpace(in.Category)
	rec.Location = strings.TrimSpace(in.Location)
	rec.ImageURL = strings.TrimSpace(in.ImageURL)
	rec.LinkURL = strings.TrimSpace(in.LinkURL)
	rec.Pinned = in.Pinned
	rec.StartAt = utc(in.StartAt)
	rec.EndAt = utc(in.EndAt)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// Create stores a new record. draft selects the saveDraft action. Owners
// create under their own business; admins may name any business or none.
func (s *Service) Create(ctx context.Context, who *identity.Identity, kind Kind, in CreateInput, draft bool) (*Record, Decision, error) {
	if kind.String() == "" {
		return nil, Decision{}, errutil.BadRequest("unknown content kind", nil)
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, Decision{}, errutil.ValidationFailed("title is required", nil,
			errutil.WithDetails(errutil.Detail{Field: "title", Message: "required"}))
	}

	businessID := strings.TrimSpace(in.BusinessID)
	switch {
	case who.Tier == identity.TierGuest:
		businessID = ""
	case who.Tier.IsOwner() && businessID == "":
		businessID = who.BusinessID()
	}
	if who.IsAdmin() && businessID != "" && s.businesses != nil {
		if _, err := s.businesses.GetByID(ctx, businessID); err != nil {
			return nil, Decision{}, err
		}
	}

	now := s.now().UTC()
	rec := &Record{
		ID:          s.node.Generate().String(),
		Kind:        kind,
		BusinessID:  businessID,
		OwnerUserID: who.UserID(),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyInput(rec, in.Input)

	action := ActionCreate
	if draft {
		action = ActionSaveDraft
	}
	// The author is not yet an owner of the record; only the business counts.
	d := s.engine(ctx, who).Decide(action, rec, who.Tier, who.OwnsBusiness(businessID))
	observeDecision(action, d)
	if !d.Allowed {
		return nil, d, d.Err()
	}

	if d.NextOrigin == OriginGuest {
		if !s.flags.IsEnabled(ctx, featureflags.GuestSubmissionsEnabled, who.UserID(), true) {
			return nil, d, errutil.Forbidden("guest submissions are disabled", nil)
		}
		rec.GuestName = strings.TrimSpace(in.GuestName)
		rec.GuestEmail = normalizeEmail(in.GuestEmail)
		if rec.GuestEmail == "" && who.Principal != nil {
			rec.GuestEmail = normalizeEmail(who.Principal.Email)
		}
		if rec.GuestEmail == "" {
			return nil, d, errutil.ValidationFailed("guest_email is required", nil,
				errutil.WithDetails(errutil.Detail{Field: "guest_email", Message: "required"}))
		}
	}
	rec.Status = d.NextStatus
	rec.Origin = d.NextOrigin

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)
		if err := repo.Create(ctx, rec); err != nil {
			return err
		}
		return repo.AppendAudit(ctx, s.auditEntry(who, action, rec, "", rec.Status, ""))
	})
	if err != nil {
		return nil, d, s.storeErr(ctx, "failed to create record", err)
	}

	transitionsTotal.WithLabelValues(string(rec.Kind), "", string(rec.Status)).Inc()
	logger.WithTrace(ctx, s.log).Info("content created",
		zap.String("record_id", rec.ID),
		zap.String("kind", string(rec.Kind)),
		zap.String("status", string(rec.Status)),
		zap.String("origin", string(rec.Origin)),
		zap.String("tier", who.Tier.String()),
	)
	return rec, d, nil
}

// Edit replaces the editable fields of a record.
func (s *Service) Edit(ctx context.Context, who *identity.Identity, kind Kind, id string, in EditInput) (*Record, Decision, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, Decision{}, errutil.ValidationFailed("title is required", nil,
			errutil.WithDetails(errutil.Detail{Field: "title", Message: "required"}))
	}
	rec, err := s.load(ctx, kind, id)
	if err != nil {
		return nil, Decision{}, err
	}
	return s.transition(ctx, who, rec, ActionEdit, in.Version, "", func(next *Record) {
		applyInput(next, in.Input)
	})
}

// Delete removes a record. The audit trail is kept.
func (s *Service) Delete(ctx context.Context, who *identity.Identity, kind Kind, id string, version int64) (Decision, error) {
	rec, err := s.load(ctx, kind, id)
	if err != nil {
		return Decision{}, err
	}
	_, d, err := s.transition(ctx, who, rec, ActionDelete, version, "", nil)
	return d, err
}

// Apply runs a status-only action: submit, unpublish, approve, reject,
// convertGuestSubmission or expire. kind may be empty for admin routes.
func (s *Service) Apply(ctx context.Context, who *identity.Identity, kind Kind, id string, action Action, in VersionInput) (*Record, Decision, error) {
	switch action {
	case ActionSubmit, ActionUnpublish, ActionApprove, ActionReject, ActionConvert, ActionExpire:
	default:
		return nil, Decision{}, errutil.BadRequest("unsupported action", nil)
	}
	rec, err := s.load(ctx, kind, id)
	if err != nil {
		return nil, Decision{}, err
	}
	return s.transition(ctx, who, rec, action, in.Version, in.Reason, nil)
}

// transition decides action on a snapshot of rec and persists the result
// conditionally on the snapshot's version and status. version is the
// client's view; zero skips the early check.
func (s *Service) transition(ctx context.Context, who *identity.Identity, rec *Record, action Action, version int64, reason string, mutate func(*Record)) (*Record, Decision, error) {
	d := s.engine(ctx, who).Decide(action, rec, who.Tier, owns(who, rec))
	observeDecision(action, d)
	if !d.Allowed {
		logger.WithTrace(ctx, s.log).Debug("content action refused",
			zap.String("record_id", rec.ID),
			zap.String("action", string(action)),
			zap.String("reason", string(d.Reason)),
			zap.String("tier", who.Tier.String()),
		)
		return nil, d, d.Err()
	}
	if version > 0 && version != rec.Version {
		conflictsTotal.Inc()
		return nil, d, errutil.Conflict("record was modified, reload and retry", ErrVersionConflict)
	}

	from := rec.Status
	next := *rec
	if mutate != nil {
		mutate(&next)
	}
	next.Status = d.NextStatus
	next.Origin = d.NextOrigin
	next.UpdatedAt = s.now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)
		if d.Remove {
			if err := repo.Delete(ctx, &next); err != nil {
				return err
			}
		} else if err := repo.Save(ctx, &next, rec.Version, from); err != nil {
			return err
		}
		to := next.Status
		if d.Remove {
			to = ""
		}
		return repo.AppendAudit(ctx, s.auditEntry(who, action, &next, from, to, reason))
	})
	if err != nil {
		return nil, d, s.storeErr(ctx, "failed to save record", err)
	}

	if from != next.Status {
		transitionsTotal.WithLabelValues(string(next.Kind), string(from), string(next.Status)).Inc()
	}
	logger.WithTrace(ctx, s.log).Info("content action applied",
		zap.String("record_id", next.ID),
		zap.String("action", string(action)),
		zap.String("from", string(from)),
		zap.String("to", string(next.Status)),
		zap.Bool("removed", d.Remove),
		zap.String("actor_id", who.UserID()),
	)

	if next.OwnerUserID != "" && next.OwnerUserID != who.UserID() && !d.Remove {
		s.publisher.ContentDecided(ctx, notification.ContentDecidedPayload{
			RecordID:    next.ID,
			Kind:        string(next.Kind),
			Title:       next.Title,
			Action:      string(action),
			Status:      string(next.Status),
			OwnerUserID: next.OwnerUserID,
			ActorID:     who.UserID(),
		})
	}

	if d.Remove {
		return nil, d, nil
	}
	return &next, d, nil
}

func (s *Service) auditEntry(who *identity.Identity, action Action, rec *Record, from, to Status, reason string) *AuditEntry {
	return &AuditEntry{
		ID:         s.node.Generate().String(),
		RecordID:   rec.ID,
		Kind:       rec.Kind,
		Action:     action,
		ActorID:    who.UserID(),
		ActorTier:  who.Tier.String(),
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
		Metadata: datatypes.JSONMap{
			"version":     rec.Version,
			"origin":      string(rec.Origin),
			"business_id": rec.BusinessID,
		},
		CreatedAt: s.now().UTC(),
	}
}

// Feed returns the public partitions for kind. filterExpr is an optional
// CEL expression over kind, category, title, business_id, location and
// pinned.
func (s *Service) Feed(ctx context.Context, kind Kind, order Ordering, filterExpr string) (Feed, error) {
	filter, err := CompileFilter(filterExpr)
	if err != nil {
		return Feed{}, err
	}
	records, err := s.repo.List(ctx, ListParams{Kind: kind, Statuses: []Status{StatusPublished}})
	if err != nil {
		return Feed{}, s.storeErr(ctx, "failed to list records", err)
	}
	return ProjectFeed(filter.Apply(records), s.now().UTC(), order), nil
}

type DashboardItem struct {
	Record            *Record `json:"record"`
	RegistrationCount int64   `json:"registration_count"`
}

// Dashboard lists the records the caller manages with their registration
// counts. Admins see every record.
func (s *Service) Dashboard(ctx context.Context, who *identity.Identity, kind Kind) ([]DashboardItem, error) {
	params := ListParams{Kind: kind}
	switch {
	case who.IsAdmin():
	case who.BusinessID() != "":
		params.BusinessID = who.BusinessID()
	default:
		return []DashboardItem{}, nil
	}

	records, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, s.storeErr(ctx, "failed to list records", err)
	}

	counts := map[string]int64{}
	if s.registrations != nil && len(records) > 0 {
		ids := make([]string, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.ID)
		}
		counts, err = s.registrations.CountByRecord(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	items := make([]DashboardItem, 0, len(records))
	for _, r := range records {
		items = append(items, DashboardItem{Record: r, RegistrationCount: counts[r.ID]})
	}
	return items, nil
}

// Moderation builds the admin queues and the pending business count.
func (s *Service) Moderation(ctx context.Context) (Queues, error) {
	var (
		records []*Record
		pending int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.repo.List(gctx, ListParams{Statuses: []Status{StatusPending}})
		if err != nil {
			return s.storeErr(gctx, "failed to list pending records", err)
		}
		return nil
	})
	g.Go(func() error {
		if s.businesses == nil {
			return nil
		}
		var err error
		pending, err = s.businesses.CountPending(gctx)
		if err != nil {
			return s.storeErr(gctx, "failed to count pending businesses", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Queues{}, err
	}

	q := ProjectQueues(records)
	q.Counts.PendingBusiness = pending
	return q, nil
}

func (s *Service) History(ctx context.Context, id string) ([]*AuditEntry, error) {
	entries, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, s.storeErr(ctx, "failed to load history", err)
	}
	return entries, nil
}

// ExpireStale expires published records whose end_at is older than the
// configured grace period. Records that change underneath are skipped.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.expireAfter)
	records, err := s.repo.List(ctx, ListParams{
		Statuses:    []Status{StatusPublished},
		EndedBefore: &cutoff,
		Limit:       sweepBatchSize,
	})
	if err != nil {
		return 0, s.storeErr(ctx, "failed to list stale records", err)
	}

	log := logger.WithTrace(ctx, s.log)
	expired := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		if _, _, err := s.transition(ctx, systemActor, rec, ActionExpire, 0, "end date passed", nil); err != nil {
			if errutil.Is(err, errutil.StatusConflict) {
				log.Debug("skip expiring record changed concurrently", zap.String("record_id", rec.ID))
				continue
			}
			return expired, err
		}
		expired++
	}
	if expired > 0 {
		log.Info("expired stale content", zap.Int("count", expired), zap.Time("cutoff", cutoff))
	}
	return expired, nil
}
