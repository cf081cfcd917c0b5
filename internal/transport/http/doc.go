// Package http serves the sentiment dashboard API.
//
// Read endpoints work on the latest in-memory snapshot and accept the same
// filter parameters: min and max bound the inclusive sentiment range,
// keyword matches titles ignoring case, and field rescoring picks another
// record attribute. Errors are JSON APIError bodies.
package http
