// Package pool provides four interchangeable task-execution engines —
// ClassicFixed, ElasticGlobal, WorkStealing, and AdvancedElasticStealing —
// that accept short, non-cooperative work items from producer goroutines
// and run them on a managed set of worker goroutines.
//
// All four variants share one capability, the Pool interface, so a caller
// can hold a pool.Pool value without caring which variant backs it:
//
//	p, err := pool.NewWorkStealing(4)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
//
//	p.Submit(func() {
//		fmt.Println("hello from a worker")
//	})
//
// A work item is a plain func() — it runs once to completion and never
// returns a value. A failing work item (one that panics) is contained: the
// worker that ran it survives and keeps serving the pool.
package pool
