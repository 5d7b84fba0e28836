// Package limiters holds the persistent failed-login counter behind
// automatic account lockout. Unlike the burst throttle in internal/rate,
// this counter tracks only authentication failures for known accounts,
// and reaching the threshold converts the counter into a lock the
// caller persists on the account itself.
package limiters
