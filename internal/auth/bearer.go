package auth

import (
	"net/http"

	"golang.org/x/oauth2"
)

// BearerClient returns an *http.Client that sends "Authorization: Bearer
// <token>" on every request, sharing base's transport, timeout and redirect
// policy. An empty token returns base unchanged: anonymous calls (listing
// activities, logging in) carry no credential.
//
// oauth2.Transport with a static source does exactly this and nothing more:
// there is no refresh, the backend's token is used until it stops working.
func BearerClient(base *http.Client, token string) *http.Client {
	if token == "" {
		return base
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: src,
			Base:   base.Transport,
		},
		Timeout:       base.Timeout,
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
	}
}
