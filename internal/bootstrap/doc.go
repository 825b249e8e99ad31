// Package bootstrap assembles the runtime graph shared by the server and
// the recompute CLI: logger, store backend, result cache, event publisher
// and core services. Optional infrastructure (redis, AMQP) degrades to
// no-op implementations when unconfigured.
package bootstrap
