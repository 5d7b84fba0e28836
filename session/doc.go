// Package session tracks server-side login sessions in Redis.
//
// A session is created per successful login or refresh rotation and
// lives exactly as long as the refresh token that anchors it: the
// record under "sess:<sid>" carries an absolute expiry and Redis
// reclaims it at that instant. Session ids are unguessable ("sess_"
// plus 32 hex characters) and invalidation is idempotent.
package session
