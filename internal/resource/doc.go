// Package resource throttles outbound storage requests.
//
// A Controller bounds the request rate, the number of in-flight requests and
// the byte throughput toward a remote provider. A nil *Controller is valid and
// imposes no limits.
package resource
