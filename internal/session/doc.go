// Package session runs quiz attempts for learners. The Manager holds
// attempts in flight; the Service starts them behind the level gate and
// records the effects of a finalized attempt.
package session
