// Package batch writes a queue of items to a store in bounded chunks.
//
// Chunks are issued strictly one at a time: chunk n+1 is only handed to the
// persist function after chunk n returned. The writer walks a small state
// machine:
//
//	Pending(queue) --non-empty--> Writing(chunk, remainder)
//	Writing        --success----> Pending(remainder)
//	Pending        --empty------> Done
//	Writing        --failure----> Failed(committed, remaining)
//
// Failed and Done are terminal. There is no retry and no rollback: chunks
// committed before a failure stay committed, and the returned Progress says
// exactly how much was applied. Recovery is re-running the caller's
// pipeline, which must therefore be idempotent.
package batch
