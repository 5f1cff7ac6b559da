package orders

const (
	TopicOrderPlaced    = "order.placed"
	TopicOrderAmended   = "order.amended"
	TopicOrderCancelled = "order.cancelled"
)

// Partition key = order_id, so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
