package service

import (
	"context"

	"ecommerce-checkout/internal/client"

	"go.uber.org/zap"
)

type TokenService interface {
	GenerateClientToken(ctx context.Context) (string, error)
}

type tokenServiceImpl struct {
	braintreeClient client.BraintreeClient
	logger          *zap.Logger
}

func NewTokenService(braintreeClient client.BraintreeClient, logger *zap.Logger) TokenService {
	return &tokenServiceImpl{
		braintreeClient: braintreeClient,
		logger:          logger,
	}
}

// GenerateClientToken has no side effects besides the gateway call, so
// clients may retry it freely. The gateway error is returned unwrapped.
func (s *tokenServiceImpl) GenerateClientToken(ctx context.Context) (string, error) {
	token, err := s.braintreeClient.GenerateClientToken(ctx)
	if err != nil {
		s.logger.Warn("generate braintree client token", zap.Error(err))
		return "", err
	}

	return token, nil
}
