package redisrepo

import "fmt"

const ns = "eventix:v1"

func KeyIdempotency(scope, key string) string {
	return fmt.Sprintf("%s:idem:%s:%s", ns, scope, key)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelChanges() string {
	return ns + ":changes"
}
