package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/trust-insurance/quotation/pkg/cache"
)

// ErrIncompleteSecret is returned when a database secret has neither a dsn
// nor the host/username/password/dbname fields.
var ErrIncompleteSecret = errors.New("database secret incomplete")

// DSNResolver turns a Secrets Manager entry into a Postgres connection
// string, caching the result so rotation costs one fetch per TTL.
type DSNResolver struct {
	logger   *zap.Logger
	provider Provider
	cache    *cache.Cache[string]
}

// NewDSNResolver builds a resolver. A nil cache disables caching.
func NewDSNResolver(logger *zap.Logger, provider Provider, c *cache.Cache[string]) *DSNResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DSNResolver{logger: logger, provider: provider, cache: c}
}

// Resolve returns the DSN stored under secretID.
func (r *DSNResolver) Resolve(ctx context.Context, secretID string) (string, error) {
	if dsn, ok := r.cache.Get(secretID); ok {
		return dsn, nil
	}

	secret, err := r.provider.GetSecret(ctx, secretID)
	if err != nil {
		r.logger.Warn("aws.secret_fetch_failed",
			zap.String("key", secretID),
			zap.Error(err))
		return "", fmt.Errorf("resolve database secret %q: %w", secretID, err)
	}

	dsn, err := DSNFromSecret(secret)
	if err != nil {
		return "", fmt.Errorf("parse secret %q: %w", secretID, err)
	}

	r.cache.Put(secretID, dsn)
	r.logger.Info("aws.secret_resolved", zap.String("key", secretID))
	return dsn, nil
}

// Rotate drops the cached DSN so the next Resolve refetches it.
func (r *DSNResolver) Rotate(secretID string) {
	r.cache.Bust(secretID)
}

// DSNFromSecret accepts either {"dsn": "..."} or the RDS-style
// {"username","password","host","port","dbname"} layout.
func DSNFromSecret(secret map[string]string) (string, error) {
	if dsn := secret["dsn"]; dsn != "" {
		return dsn, nil
	}

	host, user, pass, db := secret["host"], secret["username"], secret["password"], secret["dbname"]
	if host == "" || user == "" || db == "" {
		return "", ErrIncompleteSecret
	}
	if port := secret["port"]; port != "" {
		host = host + ":" + port
	}

	q := url.Values{}
	sslmode := secret["sslmode"]
	if sslmode == "" {
		sslmode = "require"
	}
	q.Set("sslmode", sslmode)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     host,
		Path:     "/" + db,
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}
