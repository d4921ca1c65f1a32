package featureflags

import (
	"context"

	"chamber122/pkg/config"

	"github.com/Flagsmith/flagsmith-go-client/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("featureflags", fx.Provide(ProvideFeatureFlag))

// Flag names read by the services.
const (
	ContentEditRequiresReview = "content_edit_requires_review"
	GuestSubmissionsEnabled   = "guest_submissions_enabled"
)

type FeatureFlag interface {
	Features(ctx context.Context, identifier string) ([]flagsmith.Flag, error)
	Flags(ctx context.Context, identifier string, traits ...*flagsmith.Trait) (flagsmith.Flags, error)
	// IsEnabled evaluates feature for identifier and falls back to def when
	// the flag service is unavailable or not configured.
	IsEnabled(ctx context.Context, feature, identifier string, def bool) bool
}

type featureflag struct {
	client *flagsmith.Client
}

type FeatureParams struct {
	fx.In
	Config *config.Config
}

func ProvideFeatureFlag(p FeatureParams) FeatureFlag {
	if p.Config.Flagsmith.ApiKey == "" {
		return Static(nil)
	}

	opts := []flagsmith.Option{
		flagsmith.WithAnalytics(),
	}
	if p.Config.Flagsmith.Addr != "" {
		opts = append(opts, flagsmith.WithBaseURL(p.Config.Flagsmith.Addr))
	}

	return &featureflag{
		client: flagsmith.NewClient(p.Config.Flagsmith.ApiKey, opts...),
	}
}

func (s *featureflag) Features(ctx context.Context, identifier string) ([]flagsmith.Flag, error) {
	flags, err := s.client.GetEnvironmentFlags()
	if err != nil {
		return nil, err
	}

	return flags.AllFlags(), nil
}

func (s *featureflag) Flags(ctx context.Context, identifier string, traits ...*flagsmith.Trait) (flagsmith.Flags, error) {
	if identifier == "" {
		return s.client.GetEnvironmentFlags()
	}
	return s.client.GetIdentityFlags(identifier, traits)
}

func (s *featureflag) IsEnabled(ctx context.Context, feature, identifier string, def bool) bool {
	flags, err := s.Flags(ctx, identifier)
	if err != nil {
		zap.L().Warn("feature flag lookup failed", zap.String("feature", feature), zap.Error(err))
		return def
	}
	on, err := flags.IsFeatureEnabled(feature)
	if err != nil {
		return def
	}
	return on
}

// static answers from a fixed map. Used when no flag service is configured
// and in tests.
type static map[string]bool

func Static(values map[string]bool) FeatureFlag {
	if values == nil {
		values = map[string]bool{}
	}
	return static(values)
}

func (s static) Features(ctx context.Context, identifier string) ([]flagsmith.Flag, error) {
	out := make([]flagsmith.Flag, 0, len(s))
	for name, on := range s {
		out = append(out, flagsmith.Flag{FeatureName: name, Enabled: on})
	}
	return out, nil
}

func (s static) Flags(ctx context.Context, identifier string, traits ...*flagsmith.Trait) (flagsmith.Flags, error) {
	return flagsmith.Flags{}, nil
}

func (s static) IsEnabled(ctx context.Context, feature, identifier string, def bool) bool {
	if on, ok := s[feature]; ok {
		return on
	}
	return def
}
