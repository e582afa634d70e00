// snshttp wires snsauth into net/http. Middleware authenticates SNS
// deliveries before they reach a handler, RequireScope restricts a handler to
// particular topics, and ReverseProxy puts both in front of a separate
// webhook consumer, passing the authenticated topic along as headers.
// SQSForwarder does the same for consumers that read from an SQS queue.
//
// The server speaks HTTP/1.1 and cleartext HTTP/2 (h2c) on the same port, so
// a TLS-terminating load balancer in front of it can use either.
package snshttp
