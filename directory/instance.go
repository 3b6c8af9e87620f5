package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"

	"f0oster/scimsync/directory/ldaphelpers"
	"f0oster/scimsync/snapshot"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

const defaultPageSize = 500

type searcher interface {
	Search(searchRequest *ldap.SearchRequest) (*ldap.SearchResult, error)
}

// Fetcher reads the configured identities from an LDAP directory.
type Fetcher struct {
	cfg    Config
	parser *Parser
}

func NewFetcher(cfg Config) *Fetcher {
	if cfg.PageSize == 0 {
		cfg.PageSize = defaultPageSize
	}
	return &Fetcher{
		cfg:    cfg,
		parser: NewParser(cfg.UniqueIdentifier, cfg.Attributes),
	}
}

// FetchSnapshot binds to the directory and returns every matching entry as
// a snapshot. Any failure invalidates the whole snapshot.
func (f *Fetcher) FetchSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	conn, err := f.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return f.fetch(ctx, conn)
}

// Connect to the directory server and bind
func (f *Fetcher) connect() (*ldap.Conn, error) {
	conn, err := ldap.DialURL(f.cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	if f.cfg.StartTLS {
		serverName := ""
		if u, err := url.Parse(f.cfg.URI); err == nil {
			serverName = u.Hostname()
		}
		if err := conn.StartTLS(&tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to start TLS with LDAP server: %w", err)
		}
	}

	if err := conn.Bind(f.cfg.BindDN, f.cfg.Password); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to bind to LDAP server: %w", err)
	}

	log.Debug().Str("uri", f.cfg.URI).Str("bind_dn", f.cfg.BindDN).Msg("bound to LDAP server")
	return conn, nil
}

func (f *Fetcher) fetch(ctx context.Context, conn searcher) (*snapshot.Snapshot, error) {
	builder := snapshot.NewBuilder()
	filter := ldaphelpers.And(
		ldaphelpers.Raw(f.cfg.Filter),
		ldaphelpers.Present(f.cfg.UniqueIdentifier),
	).String()

	pages := 0
	err := f.fetchPagedEntriesWithCallback(ctx, conn, filter, func(entries []*ldap.Entry) error {
		pages++
		return f.parser.ParseEntries(builder, entries)
	})
	if err != nil {
		return nil, err
	}

	snap := builder.Build()
	log.Info().
		Str("base_dn", f.cfg.BaseDN).
		Str("filter", filter).
		Int("pages", pages).
		Int("identities", snap.Len()).
		Msg("fetched directory snapshot")
	return snap, nil
}

// requestedAttributes is the configured attribute list plus the unique
// identifier when it is not already listed.
func (f *Fetcher) requestedAttributes() []string {
	attrs := append([]string(nil), f.cfg.Attributes...)
	for _, a := range attrs {
		if a == f.cfg.UniqueIdentifier {
			return attrs
		}
	}
	return append(attrs, f.cfg.UniqueIdentifier)
}

// perform a paged LDAP query and callback per page
func (f *Fetcher) fetchPagedEntriesWithCallback(
	ctx context.Context,
	conn searcher,
	filter string,
	processPage func(entries []*ldap.Entry) error,
) error {
	pageControl := ldap.NewControlPaging(f.cfg.PageSize)
	pageRequest := ldap.NewSearchRequest(
		f.cfg.BaseDN,
		f.cfg.Scope,
		ldap.NeverDerefAliases,
		0, 0, f.cfg.AttrsOnly,
		filter,
		f.requestedAttributes(),
		[]ldap.Control{pageControl},
	)

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("LDAP search interrupted: %w", err)
		}

		searchResults, err := conn.Search(pageRequest)
		if err != nil {
			return fmt.Errorf("LDAP search failed: %w", err)
		}

		if err := processPage(searchResults.Entries); err != nil {
			return fmt.Errorf("processing page failed: %w", err)
		}

		// Check if there's a next page
		pagingControl, ok := ldap.FindControl(searchResults.Controls, ldap.ControlTypePaging).(*ldap.ControlPaging)
		if !ok || len(pagingControl.Cookie) == 0 {
			break
		}
		pageControl.SetCookie(pagingControl.Cookie)
	}

	return nil
}
