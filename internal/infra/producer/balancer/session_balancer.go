package balancer

import (
	"hash/fnv"

	"github.com/segmentio/kafka-go"
)

// SessionBalancer 購物車事件使用 session id 做 key，同一 session 的事件落在同一 partition 以保證順序
type SessionBalancer struct {
	numPartitions int
}

func NewSessionBalancer(numPartitions int) *SessionBalancer {
	if numPartitions <= 0 {
		numPartitions = 1
	}
	return &SessionBalancer{numPartitions: numPartitions}
}

func (b *SessionBalancer) Balance(msg kafka.Message, partitions ...int) (partition int) {
	h := fnv.New32a()
	h.Write(msg.Key)
	sum := int(h.Sum32() & 0x7fffffff)

	if len(partitions) != 0 {
		return partitions[sum%len(partitions)]
	}
	return sum % b.numPartitions
}
