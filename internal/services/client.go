package services

import (
	"context"

	"github.com/BradenHooton/drivewatch/internal/models"
)

type clientKey struct{}

// WithClient attaches client metadata used for attempt records.
func WithClient(ctx context.Context, client models.ClientInfo) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// ClientFrom returns the client metadata stored by WithClient.
func ClientFrom(ctx context.Context) models.ClientInfo {
	client, _ := ctx.Value(clientKey{}).(models.ClientInfo)
	return client
}
