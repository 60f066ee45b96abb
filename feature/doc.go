// Package feature provides a DynamoDB backed feature store keyed by entity and category.
//
// Features are named values grouped into categories. A record is identified by an
// entity reference (the entity kind plus its identifier) and a category, and holds the
// feature data together with creation and update metadata. Two logically identical tables
// exist, one per entity kind, differing only in the partition key attribute name.
//
// # Entity Kinds
//
//   - [Primary] ("bright_uid") - user scoped records
//   - [Secondary] ("account_id") - account scoped records
//
// # Item Shape
//
//	{
//	    "<kind>":   "<id>",          // partition key
//	    "category": "<category>",    // sort key
//	    "features": {
//	        "data": {"<name>": <value>, ...},
//	        "meta": {"created_at": ..., "updated_at": ..., "compute_id": ...}
//	    },
//	    "ttl": <epoch seconds>       // only when Config.RecordTTL is set
//	}
//
// # Writes
//
// [Service.UpsertCategory] replaces the whole data map of a record. The creation
// timestamp of an existing record is preserved; the update timestamp is always
// refreshed. The read of the existing record and the write of the replacement are two
// separate calls, so concurrent writers to the same key race and the last put wins.
//
// # Reads
//
// [Service.GetMultipleCategories] takes a [Selection] parsed from "category:feature"
// and "category:*" tokens by [ParseFeatureList]. Categories outside the read allow-list
// and categories without a record are reported as unavailable; the call only fails with
// [ErrNothingFound] when no category produced a record.
//
// # Values
//
// Feature values are [Value]s: null, string, number, bool, map or list. Numbers are
// float64 in memory and written as decimal strings, never binary floats. Integers above
// 2^53 and decimals with more significant digits than a float64 holds do not survive the
// round trip exactly.
//
// # Errors
//
//   - [ErrNotFound] - no record for the key, or the record's TTL has passed
//   - [ErrNothingFound] - a multi-category read found nothing
//   - [ErrCategoryNotAllowed] - category outside the allow-list (see [CategoryError])
//   - [ErrEmptyFeatures] - write without features
//   - [MarshalError] - value outside the supported domain
//   - [StoreError] - DynamoDB call failed
package feature
