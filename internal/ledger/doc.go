// Package ledger provides the record types that flow through pocket:
// expenses, categories, and scanned receipts.
//
// Records are created locally, possibly while offline, and later pushed to
// the remote store by the sync engine. Two properties of these types are
// load-bearing for sync correctness:
//
//  1. A record's ID is generated exactly once, at creation time, and never
//     regenerated. The same ID is used to test remote existence and to
//     insert remotely, which is what makes push operations idempotent.
//
//  2. Records created without an authenticated user carry a placeholder
//     owner ID (see NewPlaceholderOwner). The sync engine rewrites it to
//     the authenticated identity at push time.
//
// Receipt images are buffered as base64 text and must round-trip exactly:
// decoding buffered image data reproduces the original bytes. The OCR
// collaborator depends on this contract.
package ledger
