package ldap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	goldap "github.com/go-ldap/ldap/v3"

	apperrors "github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/identity"
	"github.com/kbukum/idmigrate/logger"
	"github.com/kbukum/idmigrate/pipeline"
	"github.com/kbukum/idmigrate/resilience"
	"github.com/kbukum/idmigrate/source"
)

const searchBuffer = 64

// conn is the subset of *goldap.Conn the source uses.
type conn interface {
	Bind(username, password string) error
	SearchAsync(ctx context.Context, req *goldap.SearchRequest, bufferSize int) response
	Search(req *goldap.SearchRequest) (*goldap.SearchResult, error)
	Close() error
}

// response is the subset of goldap.Response the iterator reads.
type response interface {
	Next() bool
	Entry() *goldap.Entry
	Referral() string
	Controls() []goldap.Control
	Err() error
}

type dialFunc func(ctx context.Context, cfg Config) (conn, error)

type ldapConn struct{ *goldap.Conn }

func (c ldapConn) SearchAsync(ctx context.Context, req *goldap.SearchRequest, bufferSize int) response {
	return c.Conn.SearchAsync(ctx, req, bufferSize)
}

func dialDirectory(_ context.Context, cfg Config) (conn, error) {
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, apperrors.InvalidInput("tls", err.Error())
	}
	opts := []goldap.DialOpt{goldap.DialWithDialer(&net.Dialer{Timeout: cfg.DialTimeout})}
	if tlsCfg != nil {
		opts = append(opts, goldap.DialWithTLSConfig(tlsCfg))
	}
	c, err := goldap.DialURL(cfg.URL, opts...)
	if err != nil {
		return nil, apperrors.ConnectionFailed("ldap").WithCause(err)
	}
	if cfg.StartTLS {
		if err := c.StartTLS(startTLSConfig(cfg.URL, tlsCfg)); err != nil {
			_ = c.Close()
			return nil, apperrors.ConnectionFailed("ldap").WithCause(err)
		}
	}
	return ldapConn{c}, nil
}

// startTLSConfig fills ServerName from the url host when unset.
func startTLSConfig(rawURL string, base *tls.Config) *tls.Config {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if base != nil {
		cfg = base.Clone()
	}
	if cfg.ServerName == "" {
		if u, err := url.Parse(rawURL); err == nil {
			cfg.ServerName = u.Hostname()
		}
	}
	return cfg
}

// Source reads identities from an LDAP directory. Each pass and each lookup
// uses its own connection.
type Source struct {
	cfg    Config
	mapper *Mapper
	dial   dialFunc
	log    *logger.Logger
}

var _ source.Source = (*Source)(nil)

// New creates a directory source.
func New(cfg Config, log *logger.Logger) *Source {
	cfg.ApplyDefaults()
	s := &Source{
		cfg:    cfg,
		mapper: NewMapper(cfg),
		dial:   dialDirectory,
		log:    log.WithComponent("source.ldap"),
	}
	s.cfg.Retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		s.log.Warn("Directory connection failed, retrying", map[string]interface{}{
			"attempt":         attempt,
			"backoff":         backoff.String(),
			logger.FieldError: err.Error(),
		})
	}
	return s
}

// connect dials and binds with retry. Bind rejections are not retried.
func (s *Source) connect(ctx context.Context) (conn, error) {
	return resilience.Retry(ctx, s.cfg.Retry, func(ctx context.Context) (conn, error) {
		c, err := s.dial(ctx, s.cfg)
		if err != nil {
			return nil, err
		}
		if s.cfg.BindDN == "" {
			return c, nil
		}
		if err := c.Bind(s.cfg.BindDN, s.cfg.BindPassword); err != nil {
			_ = c.Close()
			return nil, bindError(err)
		}
		return c, nil
	})
}

func bindError(err error) error {
	appErr := apperrors.ConnectionFailed("ldap").WithCause(err)
	if goldap.IsErrorWithCode(err, goldap.LDAPResultInvalidCredentials) ||
		goldap.IsErrorWithCode(err, goldap.LDAPResultInsufficientAccessRights) {
		appErr.Message = "ldap bind rejected"
		appErr.Retryable = false
	}
	return appErr
}

// searchError classifies an error that ended a search.
func searchError(err error) error {
	if goldap.IsErrorWithCode(err, goldap.ErrorNetwork) {
		return apperrors.ConnectionFailed("ldap").WithCause(err)
	}
	if goldap.IsErrorWithCode(err, goldap.LDAPResultSizeLimitExceeded) {
		// The rest of the directory was never read.
		return apperrors.New(apperrors.ErrCodeServiceUnavailable, "ldap search truncated by the server size limit").WithCause(err)
	}
	return apperrors.ServiceUnavailable("ldap").WithCause(err)
}

func (s *Source) searchRequest(filter string, controls []goldap.Control) *goldap.SearchRequest {
	return goldap.NewSearchRequest(
		s.cfg.BaseDN,
		goldap.ScopeWholeSubtree, goldap.NeverDerefAliases,
		0, 0, false,
		filter,
		s.mapper.Attributes(),
		controls,
	)
}

// Produce opens a connection and streams every entry matching the filter.
func (s *Source) Produce(ctx context.Context) (pipeline.Iterator[identity.SourceRecord], error) {
	c, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	it := &entryIterator{conn: c, mapper: s.mapper, log: s.log}
	var controls []goldap.Control
	if s.cfg.PageSize > 0 {
		it.paging = goldap.NewControlPaging(s.cfg.PageSize)
		controls = append(controls, it.paging)
	}
	it.req = s.searchRequest(s.cfg.Filter, controls)

	s.log.Info("Directory pass started", map[string]interface{}{
		"base_dn":   s.cfg.BaseDN,
		"filter":    s.cfg.Filter,
		"page_size": s.cfg.PageSize,
		"tls":       s.cfg.StartTLS || s.cfg.TLS.IsEnabled(),
	})
	return it, nil
}

// LookupOne searches by login name, then by identity key. Referrals and a
// missing base are treated as a miss.
func (s *Source) LookupOne(ctx context.Context, key string) (identity.SourceRecord, error) {
	c, err := s.connect(ctx)
	if err != nil {
		return identity.SourceRecord{}, err
	}
	defer c.Close()

	for _, attr := range []string{s.cfg.UsernameAttribute, s.cfg.UIDAttribute} {
		filter := fmt.Sprintf("(&%s(%s=%s))", s.cfg.Filter, attr, goldap.EscapeFilter(key))
		res, err := c.Search(s.searchRequest(filter, nil))
		if err != nil {
			if goldap.IsErrorWithCode(err, goldap.LDAPResultNoSuchObject) ||
				goldap.IsErrorWithCode(err, goldap.LDAPResultReferral) {
				s.log.Debug("Lookup tolerated partial result", map[string]interface{}{
					"attribute":       attr,
					logger.FieldError: err.Error(),
				})
				continue
			}
			return identity.SourceRecord{}, searchError(err)
		}
		for _, e := range res.Entries {
			rec, ok, err := s.mapper.Map(e)
			if err != nil {
				return identity.SourceRecord{}, err
			}
			if ok {
				return rec, nil
			}
		}
		s.log.Debug("No entry found, trying next attribute", map[string]interface{}{"attribute": attr})
	}
	return identity.SourceRecord{}, apperrors.NotFound("source record", key)
}

// entryIterator walks the pages of one search over a connection it owns.
type entryIterator struct {
	conn   conn
	mapper *Mapper
	log    *logger.Logger
	req    *goldap.SearchRequest
	paging *goldap.ControlPaging
	resp   response
	done   bool

	closeOnce sync.Once
	closeErr  error
}

func (it *entryIterator) Next(ctx context.Context) (identity.SourceRecord, bool, error) {
	for {
		if it.done {
			return identity.SourceRecord{}, false, nil
		}
		if err := ctx.Err(); err != nil {
			it.done = true
			return identity.SourceRecord{}, false, err
		}
		if it.resp == nil {
			it.resp = it.conn.SearchAsync(ctx, it.req, searchBuffer)
		}

		if !it.resp.Next() {
			if err := it.finishPage(ctx); err != nil {
				return identity.SourceRecord{}, false, err
			}
			continue
		}

		entry := it.resp.Entry()
		if entry == nil {
			if ref := it.resp.Referral(); ref != "" {
				it.log.Debug("Skipping referral", map[string]interface{}{"referral": ref})
			}
			continue
		}

		rec, ok, err := it.mapper.Map(entry)
		if err != nil {
			return identity.SourceRecord{}, false, err
		}
		if !ok {
			continue
		}
		return rec, true, nil
	}
}

// finishPage ends the pass or arms the next page.
func (it *entryIterator) finishPage(ctx context.Context) error {
	resp := it.resp
	it.resp = nil

	if err := resp.Err(); err != nil {
		it.done = true
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return searchError(err)
	}

	if it.paging == nil {
		it.done = true
		return nil
	}
	cookie := pagingCookie(resp.Controls())
	if len(cookie) == 0 {
		it.done = true
		return nil
	}
	it.paging.SetCookie(cookie)
	return nil
}

func pagingCookie(controls []goldap.Control) []byte {
	ctrl := goldap.FindControl(controls, goldap.ControlTypePaging)
	if paging, ok := ctrl.(*goldap.ControlPaging); ok {
		return paging.Cookie
	}
	return nil
}

// Close releases the connection. Safe to call more than once.
func (it *entryIterator) Close() error {
	it.closeOnce.Do(func() {
		it.closeErr = it.conn.Close()
	})
	return it.closeErr
}
