// Package resolution coordinates fetching of network sourced font faces. Every resource is
// fetched at most once per process, its outcome is cached forever, and every party waiting
// for it is notified exactly once. The following actions are taken once a batch of font
// faces is submitted.
//
//	Input: Coordinator.SubmitBatch(entries, done)
//		↓
//	Filter malformed entries (missing locator or family)
//		↓
//	Lock
//		├─ FamilyDirectory.Replace(entries)
//		├─ for each entry: key = Resolve(family, variant, locator)
//		├─ EncounterLedger.Classify(key, locator)
//		│	├─ New      → register waiter, schedule fetch
//		│	├─ SeenSame → cached outcome? report it : register waiter
//		│	└─ Conflict → report failure for this member
//		└─ BatchAggregator fires immediately if every member is already terminal
//	Unlock
//		↓
//	WorkerPool.Enqueue(fetch) for every scheduled key
//		↓
//	WorkerPool.worker (one of N concurrent workers, no lock held)
//		├─ Fetcher.Fetch(locator, key)
//		└─ Decoder.Decode(key)
//		↓
//	Lock
//		├─ ResultCache.SetOnce(key, outcome)
//		└─ WaiterRegistry.NotifyAll(key, outcome) → BatchAggregator.ReportOutcome
//	Unlock
//
// A single resource request resolves the locator through the FamilyDirectory, derives the
// key, and either returns the cached outcome, joins the waiters of the in-flight fetch, or
// fails with ErrFamilyNotConfigured or ErrResourceConflict.
//
// The key of a resource is derived as
//
//	key = family + "-" + variant + extension(locator)
//
// so two locators with the same extension for the same family and variant collide and the
// second one is rejected as a conflict instead of overwriting the first. Failed outcomes are
// cached just like successful ones and are never retried.
package resolution
