package rediskey

import "fmt"

// Key prefixes shared by the directory and the worker.
const (
	SessionRevokedPrefix = "session:revoked"
	ExpirySweepLock      = "lock:content:expiry"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildRevokedSessionKey returns "session:revoked:{tokenID}"
func BuildRevokedSessionKey(tokenID string) string {
	return NamespaceKey(SessionRevokedPrefix, tokenID)
}
