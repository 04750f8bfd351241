package gmail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// DefaultIMAPAddr is Gmail's implicit-TLS IMAP endpoint.
const DefaultIMAPAddr = "imap.gmail.com:993"

// ErrIMAPAuth is returned by Probe when Gmail rejects the app password.
var ErrIMAPAuth = errors.New("gmail: IMAP authentication failed")

// ProbeResult summarizes what an app password can see.
type ProbeResult struct {
	Mailbox  string
	Messages uint32
	Recent   int
}

// Prober logs in to Gmail over IMAP to check an app password locally,
// without going through the backend.
type Prober struct {
	Addr string

	// Window bounds the "recent" message count.
	Window time.Duration

	// TLSConfig overrides the client TLS settings. Nil uses the system
	// roots.
	TLSConfig *tls.Config
}

// NewProber returns a Prober for Gmail with a 30 day window.
func NewProber() *Prober {
	return &Prober{Addr: DefaultIMAPAddr, Window: 30 * 24 * time.Hour}
}

// Probe authenticates with cred, selects INBOX and counts messages
// received within the window.
func (p *Prober) Probe(ctx context.Context, cred Credential) (*ProbeResult, error) {
	if !cred.Complete() {
		return nil, ErrMissingCredential
	}

	client, err := imapclient.DialTLS(p.Addr, &imapclient.Options{TLSConfig: p.TLSConfig})
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", p.Addr, err)
	}
	defer client.Close()

	// go-imap has no context support; closing the connection unblocks
	// any pending command.
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	// Google displays app passwords in groups of four.
	password := strings.ReplaceAll(cred.AppPassword, " ", "")
	if err := client.Login(strings.TrimSpace(cred.Email), password).Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrIMAPAuth, err)
	}
	defer func() { _ = client.Logout().Wait() }()

	selected, err := client.Select("INBOX", &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	result := &ProbeResult{Mailbox: "INBOX", Messages: selected.NumMessages}

	criteria := &imap.SearchCriteria{Since: time.Now().Add(-p.Window)}
	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	result.Recent = len(searchData.AllUIDs())

	return result, nil
}
