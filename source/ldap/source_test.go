package ldap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goldap "github.com/go-ldap/ldap/v3"

	apperrors "github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/identity"
	"github.com/kbukum/idmigrate/logger"
	"github.com/kbukum/idmigrate/pipeline"
)

type fakeItem struct {
	entry    *goldap.Entry
	referral string
}

type fakeResponse struct {
	items    []fakeItem
	pos      int
	cur      fakeItem
	controls []goldap.Control
	err      error
}

func (r *fakeResponse) Next() bool {
	if r.pos >= len(r.items) {
		return false
	}
	r.cur = r.items[r.pos]
	r.pos++
	return true
}
func (r *fakeResponse) Entry() *goldap.Entry { return r.cur.entry }
func (r *fakeResponse) Referral() string { return r.cur.referral }
func (r *fakeResponse) Controls() []goldap.Control { return r.controls }
func (r *fakeResponse) Err() error { return r.err }

type fakeConn struct {
	pages     [][]fakeItem
	pageErr   error
	bindErr   error
	searchFn  func(req *goldap.SearchRequest) (*goldap.SearchResult, error)
	cookies   []string
	filters   []string
	bindCalls int
	closed    int
}

func (c *fakeConn) Bind(_, _ string) error {
	c.bindCalls++
	return c.bindErr
}

func (c *fakeConn) SearchAsync(_ context.Context, req *goldap.SearchRequest, _ int) response {
	c.cookies = append(c.cookies, string(pagingCookie(req.Controls)))
	page := len(c.cookies) - 1
	resp := &fakeResponse{items: c.pages[page]}
	if page < len(c.pages)-1 {
		resp.controls = []goldap.Control{&goldap.ControlPaging{PagingSize: 2, Cookie: []byte("page-" + string(rune('1'+page)))}}
	} else {
		resp.controls = []goldap.Control{&goldap.ControlPaging{PagingSize: 2}}
		resp.err = c.pageErr
	}
	return resp
}

func (c *fakeConn) Search(req *goldap.SearchRequest) (*goldap.SearchResult, error) {
	c.filters = append(c.filters, req.Filter)
	return c.searchFn(req)
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

func person(uid, username, password string) fakeItem {
	attrs := map[string][]string{"uid": {uid}, "initials": {username}}
	if password != "" {
		attrs["userPassword"] = []string{password}
	}
	return fakeItem{entry: goldap.NewEntry("uid="+uid+",ou=people,dc=example,dc=com", attrs)}
}

func newTestSource(fc *fakeConn, dialErrs ...error) (*Source, *int) {
	s := New(Config{
		URL:    "ldap://localhost:389",
		BindDN: "cn=admin,dc=example,dc=com",
	}, logger.Nop())
	s.cfg.Retry.MaxAttempts = 3
	s.cfg.Retry.InitialBackoff = time.Millisecond
	s.cfg.Retry.MaxBackoff = 5 * time.Millisecond

	dials := 0
	s.dial = func(context.Context, Config) (conn, error) {
		dials++
		if dials <= len(dialErrs) {
			return nil, dialErrs[dials-1]
		}
		return fc, nil
	}
	return s, &dials
}

// drain collects records and per-record errors until the end of the stream.
func drain(t *testing.T, it pipeline.Iterator[identity.SourceRecord]) ([]identity.SourceRecord, []error) {
	t.Helper()
	var recs []identity.SourceRecord
	var errs []error
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		rec, ok, err := it.Next(ctx)
		switch {
		case err != nil:
			errs = append(errs, err)
			if apperrors.KindOf(err) != apperrors.KindRecoverable {
				return recs, errs
			}
		case ok:
			recs = append(recs, rec)
		default:
			return recs, errs
		}
	}
	t.Fatal("iterator did not terminate")
	return nil, nil
}

func TestSource_ProduceStreamsPages(t *testing.T) {
	fc := &fakeConn{pages: [][]fakeItem{
		{person("id1", "userA", "pw1"), {entry: goldap.NewEntry("ou=people,dc=example,dc=com", map[string][]string{"ou": {"people"}})}},
		{{referral: "ldap://other/dc=example"}, person("id2", "userB", bcryptHash)},
		{person("id3", "", "")},
	}}
	s, _ := newTestSource(fc)

	it, err := s.Produce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recs, errs := drain(t, it)
	if err := it.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
	_ = it.Close()

	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].IdentityKey != "id1" || recs[1].IdentityKey != "id2" {
		t.Errorf("expected id1, id2, got %s, %s", recs[0].IdentityKey, recs[1].IdentityKey)
	}
	if len(errs) != 1 || !apperrors.HasCode(errs[0], apperrors.ErrCodeSourceRecord) {
		t.Errorf("expected one SOURCE_RECORD error, got %v", errs)
	}
	if strings.Join(fc.cookies, ",") != ",page-1,page-2" {
		t.Errorf("expected paging cookies to advance, got %q", fc.cookies)
	}
	if fc.bindCalls != 1 {
		t.Errorf("expected 1 bind, got %d", fc.bindCalls)
	}
	if fc.closed != 1 {
		t.Errorf("expected connection closed once, got %d", fc.closed)
	}
}

func TestSource_ProduceSearchFailureIsFatal(t *testing.T) {
	fc := &fakeConn{
		pages:   [][]fakeItem{{person("id1", "userA", "")}},
		pageErr: goldap.NewError(goldap.ErrorNetwork, errors.New("connection reset")),
	}
	s, _ := newTestSource(fc)

	it, err := s.Produce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer it.Close()

	recs, errs := drain(t, it)
	if len(recs) != 1 {
		t.Errorf("expected 1 record before failure, got %d", len(recs))
	}
	if len(errs) != 1 || !apperrors.HasCode(errs[0], apperrors.ErrCodeConnectionFailed) {
		t.Fatalf("expected CONNECTION_FAILED, got %v", errs)
	}
	if apperrors.KindOf(errs[0]) != apperrors.KindFatal {
		t.Errorf("expected fatal kind")
	}
}

func TestSource_ProduceSizeLimitAbortsPass(t *testing.T) {
	fc := &fakeConn{
		pages:   [][]fakeItem{{person("id1", "userA", "")}},
		pageErr: goldap.NewError(goldap.LDAPResultSizeLimitExceeded, errors.New("size limit")),
	}
	s, _ := newTestSource(fc)

	it, _ := s.Produce(context.Background())
	defer it.Close()

	recs, errs := drain(t, it)
	if len(recs) != 1 {
		t.Errorf("expected 1 record before truncation, got %d", len(recs))
	}
	if len(errs) != 1 || !apperrors.HasCode(errs[0], apperrors.ErrCodeServiceUnavailable) {
		t.Fatalf("expected SERVICE_UNAVAILABLE, got %v", errs)
	}
	if apperrors.KindOf(errs[0]) != apperrors.KindFatal {
		t.Errorf("expected a truncated pass to be fatal, got %s", apperrors.KindOf(errs[0]))
	}
}

func TestSource_ProduceCanceled(t *testing.T) {
	fc := &fakeConn{pages: [][]fakeItem{{person("id1", "userA", "")}}}
	s, _ := newTestSource(fc)

	it, _ := s.Produce(context.Background())
	defer it.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err := it.Next(ctx)
	if ok || !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got ok=%v err=%v", ok, err)
	}
}

func TestSource_ConnectRetriesDial(t *testing.T) {
	fc := &fakeConn{pages: [][]fakeItem{{}}}
	dialErr := apperrors.ConnectionFailed("ldap").WithCause(errors.New("refused"))
	s, dials := newTestSource(fc, dialErr, dialErr)

	it, err := s.Produce(context.Background())
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	defer it.Close()
	if *dials != 3 {
		t.Errorf("expected 3 dials, got %d", *dials)
	}
}

func TestSource_ConnectGivesUp(t *testing.T) {
	dialErr := apperrors.ConnectionFailed("ldap").WithCause(errors.New("refused"))
	s, dials := newTestSource(&fakeConn{}, dialErr, dialErr, dialErr, dialErr)

	_, err := s.Produce(context.Background())
	if !apperrors.HasCode(err, apperrors.ErrCodeConnectionFailed) {
		t.Fatalf("expected CONNECTION_FAILED, got %v", err)
	}
	if *dials != 3 {
		t.Errorf("expected 3 dials, got %d", *dials)
	}
}

func TestSource_BindRejectedIsNotRetried(t *testing.T) {
	fc := &fakeConn{bindErr: goldap.NewError(goldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))}
	s, dials := newTestSource(fc)

	_, err := s.Produce(context.Background())
	if !apperrors.HasCode(err, apperrors.ErrCodeConnectionFailed) {
		t.Fatalf("expected CONNECTION_FAILED, got %v", err)
	}
	if *dials != 1 {
		t.Errorf("expected a single attempt, got %d", *dials)
	}
	if fc.closed != 1 {
		t.Errorf("expected connection closed after failed bind, got %d", fc.closed)
	}
}

func TestSource_LookupOne(t *testing.T) {
	byUsername := goldap.NewEntry("uid=id1", map[string][]string{"uid": {"id1"}, "initials": {"userA"}})
	byUID := goldap.NewEntry("uid=id2", map[string][]string{"uid": {"id2"}, "initials": {"userB"}})

	tests := []struct {
		name        string
		key         string
		searchFn    func(req *goldap.SearchRequest) (*goldap.SearchResult, error)
		wantKey     string
		wantCode    apperrors.ErrorCode
		wantFilters int
	}{
		{
			name: "found by username",
			key:  "userA",
			searchFn: func(req *goldap.SearchRequest) (*goldap.SearchResult, error) {
				return &goldap.SearchResult{Entries: []*goldap.Entry{byUsername}}, nil
			},
			wantKey:     "id1",
			wantFilters: 1,
		},
		{
			name: "falls back to uid",
			key:  "id2",
			searchFn: func(req *goldap.SearchRequest) (*goldap.SearchResult, error) {
				if strings.Contains(req.Filter, "(uid=") {
					return &goldap.SearchResult{Entries: []*goldap.Entry{byUID}}, nil
				}
				return &goldap.SearchResult{}, nil
			},
			wantKey:     "id2",
			wantFilters: 2,
		},
		{
			name: "referral tolerated",
			key:  "id2",
			searchFn: func(req *goldap.SearchRequest) (*goldap.SearchResult, error) {
				if strings.Contains(req.Filter, "(initials=") {
					return nil, goldap.NewError(goldap.LDAPResultReferral, errors.New("referral"))
				}
				return &goldap.SearchResult{Entries: []*goldap.Entry{byUID}}, nil
			},
			wantKey:     "id2",
			wantFilters: 2,
		},
		{
			name: "not found",
			key:  "ghost",
			searchFn: func(req *goldap.SearchRequest) (*goldap.SearchResult, error) {
				return &goldap.SearchResult{}, nil
			},
			wantCode:    apperrors.ErrCodeNotFound,
			wantFilters: 2,
		},
		{
			name: "server failure",
			key:  "userA",
			searchFn: func(req *goldap.SearchRequest) (*goldap.SearchResult, error) {
				return nil, goldap.NewError(goldap.LDAPResultBusy, errors.New("busy"))
			},
			wantCode:    apperrors.ErrCodeServiceUnavailable,
			wantFilters: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeConn{searchFn: tt.searchFn}
			s, _ := newTestSource(fc)

			rec, err := s.LookupOne(context.Background(), tt.key)
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			} else if rec.IdentityKey != tt.wantKey {
				t.Errorf("expected %s, got %s", tt.wantKey, rec.IdentityKey)
			}

			if len(fc.filters) != tt.wantFilters {
				t.Errorf("expected %d searches, got %d", tt.wantFilters, len(fc.filters))
			}
			if fc.closed != 1 {
				t.Errorf("expected connection closed, got %d", fc.closed)
			}
		})
	}
}

func TestSource_LookupOneEscapesFilter(t *testing.T) {
	fc := &fakeConn{searchFn: func(req *goldap.SearchRequest) (*goldap.SearchResult, error) {
		return &goldap.SearchResult{}, nil
	}}
	s, _ := newTestSource(fc)

	_, _ = s.LookupOne(context.Background(), "a*)(uid=*")

	if len(fc.filters) == 0 {
		t.Fatal("expected a search")
	}
	want := `(&(objectClass=*)(initials=a\2a\29\28uid=\2a))`
	if fc.filters[0] != want {
		t.Errorf("expected filter %s, got %s", want, fc.filters[0])
	}
}
