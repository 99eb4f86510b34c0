package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// StudentAnswersKey returns the cache key for a student's autosaved answers
func (r *CacheKeyStruct) StudentAnswersKey(sessionID string, studentID int) string {
	return fmt.Sprintf("student:%d:session:%s:answers", studentID, sessionID)
}

// StudentActiveSessionKey returns the cache key for a student's live exam session
func (r *CacheKeyStruct) StudentActiveSessionKey(studentID int) string {
	return fmt.Sprintf("student:%d:active_session", studentID)
}

// GeneratedSetKey returns the cache key for a pre-generated question set
func (r *CacheKeyStruct) GeneratedSetKey(topic string, count int, difficulty string) string {
	return fmt.Sprintf("genset:%s:%d:%s", topic, count, difficulty)
}

var CacheKey = NewCacheKeyStruct()
