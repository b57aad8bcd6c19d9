package oauth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

// GoogleInfo is the profile of the account that completed the consent
// screen.
type GoogleInfo struct {
	Name    string
	Email   string
	Picture string
}

// Parser exchanges sign-in auth codes for tokens and resolves the profile
// of the account behind them. The calendar.readonly scope is requested so
// the resulting token can list events; offline access yields the refresh
// token the session keeps.
type Parser struct {
	conf oauth2.Config
}

func NewParser(clientID, clientSecret, redirectURL string) *Parser {
	return &Parser{
		conf: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirectURL,
			Scopes: []string{
				people.UserinfoEmailScope,
				people.UserinfoProfileScope,
				calendar.CalendarReadonlyScope,
			},
		},
	}
}

func (p *Parser) GetInfoGoogle(ctx context.Context, authCode string) (*GoogleInfo, *oauth2.Token, error) {
	token, err := p.conf.Exchange(ctx, authCode, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, nil, fmt.Errorf("code exchange: %w", err)
	}

	peopleService, err := people.NewService(ctx,
		option.WithTokenSource(p.conf.TokenSource(ctx, token)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to People API: %w", err)
	}

	resp, err := peopleService.People.
		Get("people/me").
		PersonFields("names,emailAddresses,photos").
		Context(ctx).
		Do()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to make request for user info: %w", err)
	}

	if resp.HTTPStatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("failed to get user info: code: %d", resp.HTTPStatusCode)
	}

	info := &GoogleInfo{}

	for _, n := range resp.Names {
		if n.Metadata.Primary {
			info.Name = n.DisplayName
			break
		}
	}

	for _, e := range resp.EmailAddresses {
		if e.Metadata.Primary {
			info.Email = e.Value
			break
		}
	}

	for _, ph := range resp.Photos {
		if ph.Metadata.Primary {
			info.Picture = ph.Url
			break
		}
	}

	return info, token, nil
}
