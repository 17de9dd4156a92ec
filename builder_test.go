package authcore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authcore "github.com/samudra-sahayak/authcore"
	"github.com/samudra-sahayak/authcore/memstore"
)

func TestBuilderRequiresCollaborators(t *testing.T) {
	cfg := defaultTestConfig()

	if _, err := authcore.New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("build without store should fail")
	}
	if _, err := authcore.New().WithConfig(cfg).WithPrincipalStore(memstore.New()).Build(); err == nil {
		t.Fatal("build without notifier should fail")
	}
}

func TestBuilderRejectsBadConfig(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.Token.RefreshSecret = cfg.Token.AccessSecret

	_, err := authcore.New().
		WithConfig(cfg).
		WithPrincipalStore(memstore.New()).
		WithNotifier(&fakeNotifier{}).
		Build()
	if err == nil {
		t.Fatal("shared secrets should be rejected")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := authcore.New().
		WithConfig(defaultTestConfig()).
		WithPrincipalStore(memstore.New()).
		WithNotifier(&fakeNotifier{})

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("second build on the same builder should fail")
	}
}

func TestBuilderWithRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := defaultTestConfig()
	cfg.RateLimit.Max = 2

	store := memstore.New()
	notifier := &fakeNotifier{}
	engine, err := authcore.New().
		WithConfig(cfg).
		WithPrincipalStore(store).
		WithNotifier(notifier).
		WithRedis(client).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)

	ctx := authcore.WithClientIP(context.Background(), "203.0.113.20")
	for i := 0; i < 2; i++ {
		if _, err := engine.Login(ctx, "nobody@example.org", "whatever!", false); !errors.Is(err, authcore.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if _, err := engine.Login(ctx, "nobody@example.org", "whatever!", false); !errors.Is(err, authcore.ErrRateLimited) {
		t.Fatalf("throttled attempt err = %v, want ErrRateLimited", err)
	}

	// Limiter state lives in Redis, visible as sorted-set members.
	keys := mr.Keys()
	if len(keys) == 0 {
		t.Fatal("no limiter keys written to redis")
	}
}
