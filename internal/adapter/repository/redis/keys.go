package redis

const keyPrefix = "ledgerimport:"

func idempotencyKey(key string) string { return keyPrefix + "idempotency:" + key }

func importLockKey(projectID string) string { return keyPrefix + "lock:import:" + projectID }

func batchProgressKey(batchID string) string { return keyPrefix + "progress:batch:" + batchID }

func projectProgressKey(projectID string) string { return keyPrefix + "progress:project:" + projectID }
