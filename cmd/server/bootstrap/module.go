// Package bootstrap assembles the service with fx: configuration, stores,
// domain services, handlers and the HTTP server.
package bootstrap

import "go.uber.org/fx"

var Module = fx.Options(
	ConfigModule,
	TelemetryModule,
	DBModule,
	CacheModule,
	RepositoryModule,
	AuditModule,
	ServiceModule,
	HandlerModule,
	ServerModule,
)
