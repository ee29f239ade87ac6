// Package redis establishes verified Redis connections from environment
// configuration, with retry and a readiness probe.
//
// Usage:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	ready := redis.Healthcheck(client)
package redis
