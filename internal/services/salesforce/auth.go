package salesforce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Credentials identify an integration user for the OAuth username-password flow.
type Credentials struct {
	LoginURL      string
	ClientID      string
	ClientSecret  string
	Username      string
	Password      string
	SecurityToken string
	APIVersion    string
}

// Login authenticates against the org and returns a client that re-authenticates
// on its own when the session expires.
func Login(ctx context.Context, name string, creds Credentials) (*Client, error) {
	loginFn := func(ctx context.Context) (session, error) {
		return passwordLogin(ctx, creds)
	}

	s, err := loginFn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to log in to %s org: %w", name, err)
	}

	client := NewClient(name, s.httpClient, s.instanceURL, creds.APIVersion)
	client.session = s
	client.relogin = loginFn
	return client, nil
}

func passwordLogin(ctx context.Context, creds Credentials) (session, error) {
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  strings.TrimRight(creds.LoginURL, "/") + "/services/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	// Salesforce expects the security token appended to the password
	token, err := conf.PasswordCredentialsToken(ctx, creds.Username, creds.Password+creds.SecurityToken)
	if err != nil {
		return session{}, fmt.Errorf("password grant failed: %w", err)
	}

	instanceURL, _ := token.Extra("instance_url").(string)
	if instanceURL == "" {
		return session{}, fmt.Errorf("token response missing instance_url")
	}

	// The token source must outlive ctx, which may be a single request
	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(token))
	httpClient.Timeout = 30 * time.Second

	return session{httpClient: httpClient, instanceURL: strings.TrimRight(instanceURL, "/")}, nil
}
