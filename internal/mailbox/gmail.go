package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/service"
)

// DefaultQuery skips the tabs that never carry application mail.
const DefaultQuery = "newer_than:7d -category:promotions -category:social -is:chat"

const (
	gmailUser      = "me"
	fetchWorkers   = 5
	metadataFormat = "metadata"
	// listScanLimit bounds how far back a listing pages looking for the marker.
	listScanLimit = 2000
)

var _ service.Mailbox = (*Gmail)(nil)

// Gmail reads the user's inbox through the Gmail API.
type Gmail struct {
	svc   *gmail.Service
	query string
}

// GmailOption configures a Gmail mailbox.
type GmailOption func(*gmailSettings)

type gmailSettings struct {
	query string
	opts  []option.ClientOption
}

// WithQuery overrides DefaultQuery.
func WithQuery(q string) GmailOption {
	return func(s *gmailSettings) {
		if q != "" {
			s.query = q
		}
	}
}

// WithClientOptions passes options to the underlying API client.
func WithClientOptions(opts ...option.ClientOption) GmailOption {
	return func(s *gmailSettings) {
		s.opts = append(s.opts, opts...)
	}
}

// NewGmail builds a mailbox authorized by ts.
func NewGmail(ctx context.Context, ts oauth2.TokenSource, opts ...GmailOption) (*Gmail, error) {
	return newGmail(ctx, oauth2.NewClient(ctx, ts), opts...)
}

func newGmail(ctx context.Context, client *http.Client, opts ...GmailOption) (*Gmail, error) {
	settings := gmailSettings{query: DefaultQuery}
	for _, opt := range opts {
		opt(&settings)
	}
	clientOpts := append([]option.ClientOption{option.WithHTTPClient(client)}, settings.opts...)
	svc, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &Gmail{svc: svc, query: settings.query}, nil
}

// FetchRecent returns up to maxCount messages received after afterMarker,
// oldest first. When more than maxCount are waiting, the oldest are returned
// so the caller's bookmark never jumps over unfetched mail.
func (g *Gmail) FetchRecent(ctx context.Context, afterMarker string, maxCount int) ([]model.RawEmail, error) {
	ids, err := g.listAfter(ctx, afterMarker, maxCount)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	emails := make([]model.RawEmail, len(ids))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(fetchWorkers)
	for i, id := range ids {
		group.Go(func() error {
			msg, err := g.svc.Users.Messages.Get(gmailUser, id).
				Format(metadataFormat).
				MetadataHeaders("From", "Subject", "Date").
				Context(gctx).
				Do()
			if err != nil {
				return wrapAPIError(fmt.Sprintf("get message %s", id), err)
			}
			emails[i] = toRawEmail(msg)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	slices.Reverse(emails)
	slog.Debug("Fetched gmail messages", "count", len(emails), "after", afterMarker)
	return emails, nil
}

// listAfter pages through the listing, newest first, and returns at most
// maxCount ids. With a marker it pages back to the marker and keeps the
// oldest maxCount ids after it, so a backlog drains over several sweeps
// instead of being skipped. Without one it keeps the newest maxCount.
func (g *Gmail) listAfter(ctx context.Context, afterMarker string, maxCount int) ([]string, error) {
	if maxCount <= 0 {
		maxCount = 50
	}
	limit := maxCount
	if afterMarker != "" {
		limit = max(listScanLimit, maxCount)
	}

	var ids []string
	pageToken := ""
	for len(ids) < limit {
		req := g.svc.Users.Messages.List(gmailUser).
			Q(g.query).
			MaxResults(int64(min(limit-len(ids), 500))).
			Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		resp, err := req.Do()
		if err != nil {
			return nil, wrapAPIError("list messages", err)
		}
		for _, m := range resp.Messages {
			if afterMarker != "" && m.Id == afterMarker {
				return oldest(ids, maxCount), nil
			}
			ids = append(ids, m.Id)
			if len(ids) == limit {
				break
			}
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	if afterMarker != "" && len(ids) == limit {
		slog.Warn("Sync marker not found within scan limit, older messages may be skipped",
			"marker", afterMarker, "scanned", len(ids))
	}
	return oldest(ids, maxCount), nil
}

// oldest returns the last n ids of a newest-first listing.
func oldest(ids []string, n int) []string {
	if len(ids) <= n {
		return ids
	}
	return ids[len(ids)-n:]
}

func toRawEmail(msg *gmail.Message) model.RawEmail {
	email := model.RawEmail{
		SourceID: msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}
	if msg.InternalDate > 0 {
		email.ReceivedAt = time.UnixMilli(msg.InternalDate).UTC()
	}
	if msg.Payload == nil {
		return email
	}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "From":
			email.FromName, email.FromAddress = model.ParseSender(h.Value)
		case "Subject":
			email.Subject = h.Value
		}
	}
	return email
}

func wrapAPIError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
		return fmt.Errorf("gmail %s: %w: %w", op, common.ErrNotAuthorized, err)
	}
	return fmt.Errorf("gmail %s: %w: %w", op, common.ErrMailboxUnavailable, err)
}
