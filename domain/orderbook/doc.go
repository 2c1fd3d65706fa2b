// Package orderbook holds the per-symbol limit order book and its value
// types. Bids and asks live in red-black trees of FIFO price levels, with an
// orderId index for cheap cancellation, all guarded by one mutex per book so
// unrelated symbols trade in parallel.
//
// Orders mutate only while the owning book's lock is held; trade records and
// depth snapshots returned to callers are immutable copies.
package orderbook
