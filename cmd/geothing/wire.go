//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
)

// initializeApplication creates the Application with its dependencies.
func initializeApplication(ctx context.Context, settings Settings) (*Application, func(), error) {
	wire.Build(
		provideConfig,
		provideDBAdapter,
		provideRegistry,
		provideORM,
		provideIntrospector,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}
