package csv

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	apperrors "github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/identity"
	"github.com/kbukum/idmigrate/logger"
	"github.com/kbukum/idmigrate/pipeline"
	"github.com/kbukum/idmigrate/source"
	"github.com/kbukum/idmigrate/validation"
)

// Column names, compared after lowercasing and dropping '_', '-' and spaces.
const (
	ColUID       = "uid"
	ColUsername  = "username"
	ColFirstName = "firstname"
	ColLastName  = "lastname"
	ColEmail     = "email"
	ColCellPhone = "cellphone"
	ColPersonRef = "personref"
	ColPassword  = "password"
)

// Config locates the file.
type Config struct {
	Path  string `mapstructure:"path" validate:"required"`
	Comma string `mapstructure:"comma" validate:"omitempty,len=1"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Comma == "" {
		c.Comma = ","
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Source reads identities from a CSV file with a header row. Lines starting
// with '#' are comments.
type Source struct {
	cfg Config
	log *logger.Logger
}

var _ source.Source = (*Source)(nil)

// New creates a CSV source.
func New(cfg Config, log *logger.Logger) *Source {
	cfg.ApplyDefaults()
	return &Source{cfg: cfg, log: log.WithComponent("source.csv")}
}

// Produce opens the file and reads the header. A missing file or a header
// without uid and username columns is fatal.
func (s *Source) Produce(ctx context.Context) (pipeline.Iterator[identity.SourceRecord], error) {
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return nil, apperrors.InvalidInput("path", "cannot open source file").WithCause(err)
	}

	r := stdcsv.NewReader(f)
	r.Comma = rune(s.cfg.Comma[0])
	r.Comment = '#'

	header, err := r.Read()
	if err != nil {
		_ = f.Close()
		return nil, apperrors.InvalidInput("path", "cannot read header").WithCause(err)
	}
	cols, err := parseHeader(header)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	s.log.Info("CSV pass started", map[string]interface{}{"path": s.cfg.Path, "columns": len(header)})

	rows := &rowReader{file: f, reader: r}
	conv := rowConverter{cols: cols}
	recs := pipeline.Map(pipeline.From(pipeline.NewIterator(rows.next, rows.close)), conv.toRecord)
	return pipeline.Filter(recs, isPerson).Iter(ctx), nil
}

// isPerson drops rows with neither uid nor username, such as separators.
func isPerson(rec identity.SourceRecord) bool {
	return rec.IdentityKey != ""
}

// LookupOne scans the file for a login name match, falling back to the
// first identity key match.
func (s *Source) LookupOne(ctx context.Context, key string) (identity.SourceRecord, error) {
	it, err := s.Produce(ctx)
	if err != nil {
		return identity.SourceRecord{}, err
	}
	defer it.Close()

	var byUID *identity.SourceRecord
	for {
		rec, ok, err := it.Next(ctx)
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindRecoverable {
				continue
			}
			return identity.SourceRecord{}, err
		}
		if !ok {
			break
		}
		if rec.LoginName == key {
			return rec, nil
		}
		if rec.IdentityKey == key && byUID == nil {
			found := rec
			byUID = &found
		}
	}
	if byUID != nil {
		return *byUID, nil
	}
	return identity.SourceRecord{}, apperrors.NotFound("source record", key)
}

func normalize(name string) string {
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(name)))
}

// parseHeader maps normalized column names to their index.
func parseHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := normalize(h)
		if _, dup := cols[name]; dup {
			return nil, apperrors.InvalidInput("header", fmt.Sprintf("duplicate column %q", h))
		}
		cols[name] = i
	}
	for _, required := range []string{ColUID, ColUsername} {
		if _, ok := cols[required]; !ok {
			return nil, apperrors.MissingField(required)
		}
	}
	return cols, nil
}

// row is one data line of the file.
type row struct {
	line   int
	fields []string
}

type rowReader struct {
	file   *os.File
	reader *stdcsv.Reader

	closeOnce sync.Once
	closeErr  error
}

func (r *rowReader) next(ctx context.Context) (row, bool, error) {
	if err := ctx.Err(); err != nil {
		return row{}, false, err
	}
	fields, err := r.reader.Read()
	if errors.Is(err, io.EOF) {
		return row{}, false, nil
	}
	if err != nil {
		var parseErr *stdcsv.ParseError
		if errors.As(err, &parseErr) {
			return row{}, false, apperrors.SourceRecord("", fmt.Sprintf("line %d: %v", parseErr.Line, parseErr.Err))
		}
		return row{}, false, apperrors.InvalidInput("path", "read failed").WithCause(err)
	}
	line, _ := r.reader.FieldPos(0)
	return row{line: line, fields: fields}, true, nil
}

// close closes the file. Safe to call more than once.
func (r *rowReader) close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.file.Close()
	})
	return r.closeErr
}

type rowConverter struct {
	cols map[string]int
}

func (c rowConverter) field(r row, col string) string {
	i, ok := c.cols[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// toRecord returns the zero record for a row with neither uid nor username.
func (c rowConverter) toRecord(_ context.Context, r row) (identity.SourceRecord, error) {
	uid := c.field(r, ColUID)
	username := c.field(r, ColUsername)
	switch {
	case uid == "" && username == "":
		return identity.SourceRecord{}, nil
	case uid == "":
		return identity.SourceRecord{}, apperrors.SourceRecord(username, "missing uid").WithDetail("line", r.line)
	case username == "":
		return identity.SourceRecord{}, apperrors.SourceRecord(uid, "missing username").WithDetail("line", r.line)
	}

	// Passwords keep surrounding whitespace.
	var rawPassword string
	if i, ok := c.cols[ColPassword]; ok && i < len(r.fields) {
		rawPassword = r.fields[i]
	}
	cred, err := identity.ParseCredential(rawPassword)
	if err != nil {
		if appErr, isApp := apperrors.AsAppError(err); isApp {
			return identity.SourceRecord{}, appErr.WithDetail("key", uid).WithDetail("line", r.line)
		}
		return identity.SourceRecord{}, err
	}

	return identity.SourceRecord{
		IdentityKey: uid,
		LoginName:   username,
		FirstName:   c.field(r, ColFirstName),
		LastName:    c.field(r, ColLastName),
		Email:       c.field(r, ColEmail),
		CellPhone:   c.field(r, ColCellPhone),
		PersonRef:   c.field(r, ColPersonRef),
		Credential:  cred,
	}, nil
}
