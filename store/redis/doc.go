// Package redis stores archviz sessions in Redis.
//
// Each key is a single string value holding the JSON document
// {"state": {...}, "version": 0} under "<prefix>state:<key>". An optional TTL is
// refreshed on every save, so an idle session expires while an active one does not.
//
//	s := redis.NewRedisStateStore(redis.RedisOptions{
//		Addr:   "localhost:6379",
//		Prefix: "archviz:",
//		TTL:    7 * 24 * time.Hour,
//	})
//	defer s.Close()
//
//	saver, detach := store.Attach(graphStore, s)
//	defer detach()
package redis
