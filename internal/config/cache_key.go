package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SubmissionTokenKey returns the cache key holding a session's one-time
// submission token. The key is deleted when the token is consumed.
func (r *CacheKeyStruct) SubmissionTokenKey(token string) string {
	return fmt.Sprintf("session:%s:submission_token", token)
}

// UserSessionKey returns the cache key for a user's login session.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// ViolationChannel returns the Redis PubSub channel for live violation events
// consumed by the instructor monitor stream.
func (r *CacheKeyStruct) ViolationChannel() string {
	return "proctor:violations"
}

var CacheKey = NewCacheKeyStruct()
