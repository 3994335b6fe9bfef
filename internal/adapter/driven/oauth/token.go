// Package oauth implements the Authorizer and TokenRefresher ports with
// golang.org/x/oauth2 against Google's OAuth endpoints.
package oauth

import (
	"strings"

	"golang.org/x/oauth2"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

// fromOAuth2 converts an oauth2 token into the domain token, recording the
// client identity so the token can be refreshed later on its own.
func fromOAuth2(tok *oauth2.Token, cfg *oauth2.Config, requested []string) *model.Token {
	scopes := requested
	if granted, ok := tok.Extra("scope").(string); ok && granted != "" {
		scopes = strings.Fields(granted)
	}

	return &model.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       scopes,
		Expiry:       tok.Expiry,
	}
}
