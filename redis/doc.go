// Package redis provides a go-redis client wrapper with idmigrate logging,
// configuration conventions and component lifecycle.
//
// The migration uses it only for claim coordination between cooperating
// processes, so the client exposes the few commands that needs: SetNX for
// taking a claim, CompareAndDelete for releasing one the caller still owns,
// and DeleteByPattern for clearing a namespace.
//
//	comp := redis.NewComponent(redis.Config{Enabled: true, Addr: "localhost:6379"}, log)
//	if err := comp.Start(ctx); err != nil { ... }
//	ok, err := comp.Client().SetNX(ctx, "idmigrate:claim:id1", runID, time.Hour)
package redis
