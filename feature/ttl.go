package feature

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IsExpired checks if an item has a ttl at or before now. DynamoDB deletes expired
// items lazily, so reads must filter them out themselves.
func IsExpired(item map[string]types.AttributeValue, now time.Time) bool {
	ttl, ok := ttlOf(item)
	if !ok {
		return false // No TTL = active
	}
	return ttl <= now.Unix()
}

func ttlOf(item map[string]types.AttributeValue) (int64, bool) {
	ttlAttr, exists := item[attrTTL]
	if !exists {
		return 0, false
	}
	ttlNum, ok := ttlAttr.(*types.AttributeValueMemberN)
	if !ok {
		return 0, false
	}
	ttl, err := strconv.ParseInt(ttlNum.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return ttl, true
}

// expiryFor returns the ttl to stamp on a record written at now, or nil when records
// do not expire.
func expiryFor(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := now.Add(ttl).Truncate(time.Second)
	return &t
}
