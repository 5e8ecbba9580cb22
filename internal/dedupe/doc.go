// Package dedupe suppresses repeated events within a time window.
//
// The gateway uses a Window to write one admin_account_denied audit entry per
// admin and route per minute, however often a misconfigured admin client
// retries.
package dedupe
