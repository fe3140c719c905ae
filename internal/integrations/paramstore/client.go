package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the minimal AWS SSM interface required by TokenSource.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// TokenSource resolves the chat socket credential from a (usually
// SecureString) parameter. The value is either the bare token or a JSON
// object with a "token" field.
type TokenSource struct {
	api  ssmAPI
	name string
}

func NewTokenSource(api ssmAPI, name string) (*TokenSource, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("paramstore: name is required")
	}
	return &TokenSource{api: api, name: name}, nil
}

func (s *TokenSource) Token(ctx context.Context) (string, error) {
	withDecryption := true
	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &s.name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", s.name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.New("paramstore: parameter missing value")
	}
	return parseToken(*out.Parameter.Value)
}

func parseToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		if raw == "" {
			return "", errors.New("paramstore: token is empty")
		}
		return raw, nil
	}
	var wrapped struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return "", fmt.Errorf("paramstore: decode token object: %w", err)
	}
	if strings.TrimSpace(wrapped.Token) == "" {
		return "", errors.New("paramstore: token object has no token")
	}
	return wrapped.Token, nil
}
