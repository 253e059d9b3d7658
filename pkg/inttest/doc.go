// Package inttest enables writing of integration tests. Setup functions
// create Docker containers for dependencies like PostgreSQL, Redis and
// RabbitMQ, ensure the container is ready before returning, clean up after
// the test and return a client ready to interact with the container.
package inttest
